package metrics

import "github.com/roach88/eqsat/internal/engine"

// Instrumented wraps a Runner and records each step as it completes.
//
// Use it for long runs that should be observable while in flight; report
// the stop with ObserveStop and ObserveRunTime afterwards rather than
// ObserveReport, which would count the iterations twice. A wrapped
// Stepper is not consulted.
type Instrumented[G engine.Graph] struct {
	engine.Runner[G]
	rec *Recorder
}

// Instrument wraps r.
func Instrument[G engine.Graph](r engine.Runner[G], rec *Recorder) *Instrumented[G] {
	return &Instrumented[G]{Runner: r, rec: rec}
}

// PostStep records it, then delegates.
func (i *Instrumented[G]) PostStep(it *engine.Iteration, g G) error {
	i.rec.ObserveIteration(*it)
	return i.Runner.PostStep(it, g)
}
