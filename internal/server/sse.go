package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// errStreamingUnsupported is returned when the ResponseWriter cannot flush.
var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewSSEWriter checks that w can stream. Headers are sent with the first event,
// so callers can still answer with a plain JSON error before that.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Started reports whether any event has been written.
func (s *SSEWriter) Started() bool {
	return s.started
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(rounds int) {
	s.WriteEvent("complete", map[string]any{ //nolint:errcheck
		"status": "completed",
		"rounds": rounds,
	})
}
