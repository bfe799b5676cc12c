package parseengine

import "fmt"

// UnknownSegmentError is fatal to the current parse: a Ref named a
// grammar the dialect registry cannot resolve at match time.
type UnknownSegmentError struct {
	Name     string
	Position int
}

func (e *UnknownSegmentError) Error() string {
	return fmt.Sprintf("unknown segment %q referenced at token %d", e.Name, e.Position)
}

// InfiniteLoopError is fatal: the iteration guard fired before the parse
// converged. FrameDump carries a short diagnostic of the top frames at
// the point of failure.
type InfiniteLoopError struct {
	MaxIterations int
	FrameDump     string
}

func (e *InfiniteLoopError) Error() string {
	return fmt.Sprintf("parse exceeded %d iterations (possible infinite loop); frames:\n%s", e.MaxIterations, e.FrameDump)
}

// InvariantViolationError marks a handler bug caught by an eager runtime
// check rather than a user-facing parse failure — e.g. a parent frame
// resuming without its child's result in the results map.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return "parse engine invariant violated: " + e.Detail
}
