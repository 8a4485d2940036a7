package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/pipeline"
	"github.com/jonathan/velvet-rope/internal/speech"
)

// ErrRunsUnavailable is returned when no run archive is configured.
var ErrRunsUnavailable = errors.New("run history requires DATABASE_URL")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		upstream   *speech.UpstreamError
	)
	switch {
	case errors.As(err, &validation),
		errors.Is(err, speech.ErrMissingText),
		pipeline.IsInputError(err):
		return http.StatusBadRequest
	case pipeline.IsConflict(err), errors.Is(err, biometrics.ErrWindowActive):
		return http.StatusConflict
	case errors.Is(err, speech.ErrMissingCredential), errors.Is(err, ErrRunsUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
