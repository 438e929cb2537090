package http

import (
	"errors"
	"net/http"

	"github.com/classforge/assessment-core/internal/assess"
	"github.com/classforge/assessment-core/internal/delivery"
)

// writeError maps the domain taxonomy onto HTTP status codes. Everything in
// the taxonomy is caller-recoverable, so nothing maps to 5xx.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assess.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, delivery.ErrAttemptLimitExceeded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, delivery.ErrOutsideSchedule):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, delivery.ErrAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assess.ErrImmutableField),
		errors.Is(err, assess.ErrShapeMismatch),
		errors.Is(err, assess.ErrValidationFailed):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
