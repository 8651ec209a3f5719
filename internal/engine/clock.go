package engine

import "time"

// Clock supplies the time readings used for phase timings.
//
// The default reads the wall clock, whose values carry Go's monotonic
// reading, so durations are immune to wall-clock adjustments. Tests inject a
// fake clock to make timings deterministic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real clock.
func SystemClock() Clock {
	return systemClock{}
}

// Option configures Step, Run and RunExpr.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used to time phases.
// Default: SystemClock().
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func since(c Clock, start time.Time) time.Duration {
	return c.Now().Sub(start)
}
