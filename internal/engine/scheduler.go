package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/eqsat/internal/ir"
)

// Default SimpleScheduler limits.
const (
	DefaultIterLimit         = 30
	DefaultNodeLimit         = 10_000
	DefaultInitialMatchLimit = 1_000
	DefaultBanLength         = 5
)

// DefaultSchedulerSpec returns the default limits as a spec.
func DefaultSchedulerSpec() ir.SchedulerSpec {
	return ir.SchedulerSpec{
		IterationLimit:    DefaultIterLimit,
		NodeLimit:         DefaultNodeLimit,
		InitialMatchLimit: DefaultInitialMatchLimit,
		BanLength:         DefaultBanLength,
	}
}

// SimpleScheduler is the default Runner.
//
// It stops when:
//   - a step applied nothing and no rule is banned (Saturated),
//   - the iteration limit is reached (IterationLimit),
//   - the graph grows past the node limit (NodeLimit),
//   - an optional time limit elapses (Timeout) or context is cancelled
//     (Cancelled).
//
// It also bans rules that match too often. A rule banned n times is
// allowed InitialMatchLimit<<n matches per search; the (n+1)th ban lasts
// BanLength<<n iterations. A banned rule is not searched at all.
//
// A SimpleScheduler is stateful and drives a single run.
type SimpleScheduler[G Graph] struct {
	iter  int
	stats *StatsTable

	iterLimit         int
	nodeLimit         int
	initialMatchLimit int
	banLength         int

	timeLimit time.Duration
	ctx       context.Context
	clock     Clock
	started   time.Time
}

var _ Runner[Graph] = (*SimpleScheduler[Graph])(nil)

// NewSimpleScheduler creates a scheduler with the default limits.
func NewSimpleScheduler[G Graph]() *SimpleScheduler[G] {
	return &SimpleScheduler[G]{
		stats:             newStatsTable(),
		iterLimit:         DefaultIterLimit,
		nodeLimit:         DefaultNodeLimit,
		initialMatchLimit: DefaultInitialMatchLimit,
		banLength:         DefaultBanLength,
		clock:             SystemClock(),
	}
}

// with returns a copy of s modified by f. Run state (iteration counter and
// rule stats) is copied too, so the copy is independent of s.
func (s *SimpleScheduler[G]) with(f func(*SimpleScheduler[G])) *SimpleScheduler[G] {
	c := *s
	c.stats = s.stats.clone()
	f(&c)
	return &c
}

// WithIterLimit returns a copy that stops after n steps.
//
// Limits passed to the With* builders must not be negative; a negative
// limit is a caller bug and panics. Validate authored limits first with
// compiler.ValidateScheduler.
func (s *SimpleScheduler[G]) WithIterLimit(n int) *SimpleScheduler[G] {
	mustNotBeNegative("iteration limit", int64(n))
	return s.with(func(c *SimpleScheduler[G]) { c.iterLimit = n })
}

// WithNodeLimit returns a copy that stops once the graph exceeds n nodes.
func (s *SimpleScheduler[G]) WithNodeLimit(n int) *SimpleScheduler[G] {
	mustNotBeNegative("node limit", int64(n))
	return s.with(func(c *SimpleScheduler[G]) { c.nodeLimit = n })
}

// WithInitialMatchLimit returns a copy whose first ban threshold is n
// matches.
func (s *SimpleScheduler[G]) WithInitialMatchLimit(n int) *SimpleScheduler[G] {
	mustNotBeNegative("initial match limit", int64(n))
	return s.with(func(c *SimpleScheduler[G]) { c.initialMatchLimit = n })
}

// WithBanLength returns a copy whose first ban lasts n iterations.
// A negative length would move BannedUntil backwards.
func (s *SimpleScheduler[G]) WithBanLength(n int) *SimpleScheduler[G] {
	mustNotBeNegative("ban length", int64(n))
	return s.with(func(c *SimpleScheduler[G]) { c.banLength = n })
}

// WithTimeLimit returns a copy that stops with Timeout once d has elapsed
// since its first PreStep. Zero disables the limit.
func (s *SimpleScheduler[G]) WithTimeLimit(d time.Duration) *SimpleScheduler[G] {
	mustNotBeNegative("time limit", int64(d))
	return s.with(func(c *SimpleScheduler[G]) { c.timeLimit = d })
}

// WithContext returns a copy that stops with Cancelled once ctx is done.
func (s *SimpleScheduler[G]) WithContext(ctx context.Context) *SimpleScheduler[G] {
	return s.with(func(c *SimpleScheduler[G]) { c.ctx = ctx })
}

// WithClock returns a copy that measures its time limit with clock.
func (s *SimpleScheduler[G]) WithClock(clock Clock) *SimpleScheduler[G] {
	return s.with(func(c *SimpleScheduler[G]) { c.clock = clock })
}

// WithSpec returns a copy with every non-zero limit in spec applied.
// Panics on negative limits, like the single-limit builders.
func (s *SimpleScheduler[G]) WithSpec(spec ir.SchedulerSpec) *SimpleScheduler[G] {
	mustNotBeNegative("iteration limit", int64(spec.IterationLimit))
	mustNotBeNegative("node limit", int64(spec.NodeLimit))
	mustNotBeNegative("initial match limit", int64(spec.InitialMatchLimit))
	mustNotBeNegative("ban length", int64(spec.BanLength))
	mustNotBeNegative("time limit", spec.TimeLimitMs)
	return s.with(func(c *SimpleScheduler[G]) {
		if spec.IterationLimit != 0 {
			c.iterLimit = spec.IterationLimit
		}
		if spec.NodeLimit != 0 {
			c.nodeLimit = spec.NodeLimit
		}
		if spec.InitialMatchLimit != 0 {
			c.initialMatchLimit = spec.InitialMatchLimit
		}
		if spec.BanLength != 0 {
			c.banLength = spec.BanLength
		}
		if spec.TimeLimitMs != 0 {
			c.timeLimit = time.Duration(spec.TimeLimitMs) * time.Millisecond
		}
	})
}

func mustNotBeNegative(name string, n int64) {
	if n < 0 {
		panic(fmt.Sprintf("engine: %s must not be negative, got %d", name, n))
	}
}

// Spec returns the scheduler's limits.
func (s *SimpleScheduler[G]) Spec() ir.SchedulerSpec {
	return ir.SchedulerSpec{
		IterationLimit:    s.iterLimit,
		NodeLimit:         s.nodeLimit,
		InitialMatchLimit: s.initialMatchLimit,
		BanLength:         s.banLength,
		TimeLimitMs:       s.timeLimit.Milliseconds(),
	}
}

// Iteration returns the number of completed steps.
func (s *SimpleScheduler[G]) Iteration() int {
	return s.iter
}

// Stats returns the per-rule table. Callers must not modify it.
func (s *SimpleScheduler[G]) Stats() *StatsTable {
	return s.stats
}

// PreStep stops with IterationLimit once the limit is reached.
func (s *SimpleScheduler[G]) PreStep(g G) error {
	if s.started.IsZero() {
		s.started = s.clock.Now()
	}
	slog.Info("iteration",
		"iteration", s.iter,
		"nodes", g.Size(),
		"classes", g.ClassCount(),
	)
	if s.iter >= s.iterLimit {
		return IterationLimit(s.iter)
	}
	return s.checkBudget()
}

// DuringStep stops with NodeLimit once the graph exceeds the node limit.
func (s *SimpleScheduler[G]) DuringStep(g G) error {
	if size := g.Size(); size > s.nodeLimit {
		return NodeLimit(size)
	}
	return s.checkBudget()
}

// PostStep advances the iteration counter and stops with Saturated if the
// step applied nothing while no rule was banned.
//
// Bans are checked against the iteration that just ran, before the counter
// moves: a ban ending exactly at the next iteration still counts.
func (s *SimpleScheduler[G]) PostStep(it *Iteration, _ G) error {
	anyBans := s.stats.anyBannedAt(s.iter)
	s.iter++
	if !anyBans && it.Applied.IsEmpty() {
		return Saturated()
	}
	return nil
}

// SearchRewrite searches rule unless it is banned, and bans it instead of
// returning its matches when they exceed the rule's current threshold.
func (s *SimpleScheduler[G]) SearchRewrite(g G, rule Rule[G]) []ir.SearchMatches {
	name := rule.Name()
	stats, seen := s.stats.lookup(name)
	if !seen {
		return rule.Search(g)
	}

	if s.iter < stats.BannedUntil {
		slog.Debug("skipping banned rule",
			"rule", name,
			"times_applied", stats.TimesApplied,
			"times_banned", stats.TimesBanned,
			"banned_until", stats.BannedUntil,
		)
		return nil
	}

	matches := rule.Search(g)
	total := ir.TotalMatches(matches)
	threshold := s.initialMatchLimit << stats.TimesBanned
	if total > threshold {
		banLength := s.banLength << stats.TimesBanned
		stats.TimesBanned++
		stats.BannedUntil = s.iter + banLength
		slog.Info("banning rule",
			"rule", name,
			"times_applied", stats.TimesApplied,
			"times_banned", stats.TimesBanned,
			"ban_length", banLength,
			"threshold", threshold,
			"matches", total,
		)
		return nil
	}

	stats.TimesApplied++
	return matches
}

// ApplyRewrite applies rule and returns how many ids changed.
func (s *SimpleScheduler[G]) ApplyRewrite(g G, rule Rule[G], matches []ir.SearchMatches) int {
	return len(rule.Apply(g, matches))
}

func (s *SimpleScheduler[G]) checkBudget() error {
	if s.ctx != nil && s.ctx.Err() != nil {
		return Cancelled()
	}
	if s.timeLimit > 0 && !s.started.IsZero() {
		if elapsed := since(s.clock, s.started); elapsed > s.timeLimit {
			return Timeout(int(elapsed.Milliseconds()))
		}
	}
	return nil
}
