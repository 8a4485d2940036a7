package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/velvet-rope/internal/ingestion"
	"github.com/jonathan/velvet-rope/internal/pipeline/steps"
	"github.com/jonathan/velvet-rope/internal/store"
	"github.com/jonathan/velvet-rope/internal/types"
)

// ConfigError represents a venue or DJ configuration that failed validation.
type ConfigError struct {
	Field string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// UnknownAttendeeError is returned for an attendee id that is not on the roster.
type UnknownAttendeeError struct {
	AttendeeID string
}

func (e *UnknownAttendeeError) Error() string {
	return fmt.Sprintf("unknown attendee: %s", e.AttendeeID)
}

// StageError is returned when an operation runs outside the stage it belongs to.
type StageError struct {
	Operation string
	Want      []types.Stage
	Got       types.Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s is not available at stage %s (want %v)", e.Operation, e.Got, e.Want)
}

// BusyError is returned when another state-changing operation is still running.
type BusyError struct {
	Operation string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s refused: another pipeline operation is in progress", e.Operation)
}

// IsInputError reports whether err was caused by the caller rather than the system.
func IsInputError(err error) bool {
	var (
		inputErr   *ingestion.InputError
		depErr     *steps.DependencyError
		configErr  *ConfigError
		unknownErr *UnknownAttendeeError
		duplicate  *store.DuplicateResultError
	)
	return errors.As(err, &inputErr) ||
		errors.As(err, &depErr) ||
		errors.As(err, &configErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &duplicate)
}

// IsConflict reports whether err is an out-of-order or overlapping stage operation.
func IsConflict(err error) bool {
	var (
		transition *store.TransitionError
		stageErr   *StageError
		busy       *BusyError
	)
	return errors.As(err, &transition) || errors.As(err, &stageErr) || errors.As(err, &busy)
}
