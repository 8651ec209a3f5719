package testutil

import "sync"

// FixedRunIDGenerator returns predetermined run IDs.
//
// IDs are issued in order; once they run out the last one repeats, so a
// generator built from a single id always returns it. Tests that store runs
// use it so stored rows and golden output do not depend on the wall clock.
//
// Implements engine.RunIDGenerator.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator for ids.
// With no ids (or a single empty id), Generate() returns "test-run-default".
//
//	gen := NewFixedRunIDGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // "run-2"
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 || (len(ids) == 1 && ids[0] == "") {
		ids = []string{"test-run-default"}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
