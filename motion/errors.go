package motion

import "errors"

var (
	// ErrInvalidCommand indicates a command violated a velocity or phase
	// precondition. The command is rejected before any state mutation, so
	// the caller may retry with corrected input.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrTimeTravel indicates a query or command timestamp precedes the
	// engine's recorded start time. This signals a clock or ordering bug
	// upstream and is fatal to the operation.
	ErrTimeTravel = errors.New("query time precedes command start time")

	// ErrUnreachablePhase indicates the evaluation reached a commanded-phase
	// combination the profile model does not define. It is an internal
	// invariant violation and is surfaced immediately.
	ErrUnreachablePhase = errors.New("unreachable motion phase")
)
