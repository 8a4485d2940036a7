package speech

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New("speech: OPENAI_API_KEY is not set")

// ErrMissingText is returned when there is nothing to narrate.
var ErrMissingText = errors.New("speech: text is required")

// UpstreamError represents a failed call to the speech service.
type UpstreamError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("speech upstream error: %v", e.Cause)
	}
	return fmt.Sprintf("speech upstream error: status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
