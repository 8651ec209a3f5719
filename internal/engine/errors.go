package engine

import (
	"errors"
	"fmt"
)

// StopKind categorizes why a run stopped.
type StopKind string

const (
	// StopSaturated means a step applied nothing and no rule was banned.
	StopSaturated StopKind = "saturated"

	// StopIterationLimit means the configured number of steps completed.
	StopIterationLimit StopKind = "iteration_limit"

	// StopNodeLimit means the graph grew past the configured node count.
	StopNodeLimit StopKind = "node_limit"

	// StopTimeout means the run exceeded its wall-clock budget.
	StopTimeout StopKind = "timeout"

	// StopCancelled means the run's context was cancelled.
	StopCancelled StopKind = "cancelled"
)

// StopReason is the stop value returned by SimpleScheduler hooks.
//
// Value carries the kind's payload: the iteration count for
// StopIterationLimit, the node count for StopNodeLimit and the elapsed
// milliseconds for StopTimeout. It is zero otherwise.
//
// Custom runners may stop with any error; StopReason is only the vocabulary
// of the built-in scheduler.
type StopReason struct {
	Kind  StopKind
	Value int
}

// Error implements the error interface.
func (s *StopReason) Error() string {
	switch s.Kind {
	case StopIterationLimit:
		return fmt.Sprintf("iteration limit: %d", s.Value)
	case StopNodeLimit:
		return fmt.Sprintf("node limit: %d", s.Value)
	case StopTimeout:
		return fmt.Sprintf("timeout after %dms", s.Value)
	default:
		return string(s.Kind)
	}
}

// Saturated returns the saturation stop.
func Saturated() *StopReason {
	return &StopReason{Kind: StopSaturated}
}

// IterationLimit returns the stop for a reached iteration limit.
func IterationLimit(iterations int) *StopReason {
	return &StopReason{Kind: StopIterationLimit, Value: iterations}
}

// NodeLimit returns the stop for a graph that grew to size nodes.
func NodeLimit(size int) *StopReason {
	return &StopReason{Kind: StopNodeLimit, Value: size}
}

// Timeout returns the stop for an exhausted time budget.
func Timeout(elapsedMs int) *StopReason {
	return &StopReason{Kind: StopTimeout, Value: elapsedMs}
}

// Cancelled returns the stop for a cancelled context.
func Cancelled() *StopReason {
	return &StopReason{Kind: StopCancelled}
}

// AsStopReason extracts a StopReason from err.
// Uses errors.As to handle wrapped errors.
func AsStopReason(err error) (*StopReason, bool) {
	var sr *StopReason
	if errors.As(err, &sr) {
		return sr, true
	}
	return nil, false
}

func isKind(err error, kind StopKind) bool {
	sr, ok := AsStopReason(err)
	return ok && sr.Kind == kind
}

// IsSaturated returns true if err is a saturation stop.
func IsSaturated(err error) bool {
	return isKind(err, StopSaturated)
}

// IsIterationLimit returns true if err is an iteration-limit stop.
func IsIterationLimit(err error) bool {
	return isKind(err, StopIterationLimit)
}

// IsNodeLimit returns true if err is a node-limit stop.
func IsNodeLimit(err error) bool {
	return isKind(err, StopNodeLimit)
}

// IsTimeout returns true if err is a timeout stop.
func IsTimeout(err error) bool {
	return isKind(err, StopTimeout)
}

// IsCancelled returns true if err is a cancellation stop.
func IsCancelled(err error) bool {
	return isKind(err, StopCancelled)
}
