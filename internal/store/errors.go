package store

import (
	"fmt"

	"github.com/jonathan/velvet-rope/internal/types"
)

// TransitionError is returned when an action would move the pipeline to a
// stage that is not directly reachable from the current one.
type TransitionError struct {
	From types.Stage
	To   types.Stage
	Kind string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s to %s", e.Kind, e.From, e.To)
}

// DuplicateResultError is returned when an attendee already has a biometric result.
type DuplicateResultError struct {
	AttendeeID string
}

func (e *DuplicateResultError) Error() string {
	return fmt.Sprintf("attendee %s already has a biometric result", e.AttendeeID)
}

// PersistError wraps a failed load or save. The store logs it and carries on.
type PersistError struct {
	Op    string
	Cause error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("state %s failed: %v", e.Op, e.Cause)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}
