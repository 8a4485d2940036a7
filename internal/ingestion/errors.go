package ingestion

import "fmt"

// ErrNoAttendees is the message for an upload without a single usable row.
const ErrNoAttendees = "No valid attendees found in CSV."

// InputError represents an upload the pipeline cannot accept.
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// RowIssue records a row that was skipped during parsing.
type RowIssue struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (r RowIssue) String() string {
	if r.ID != "" {
		return fmt.Sprintf("line %d (%s): %s", r.Line, r.ID, r.Reason)
	}
	return fmt.Sprintf("line %d: %s", r.Line, r.Reason)
}
