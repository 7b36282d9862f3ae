// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("upstream unavailable")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "order source unavailable, retry shortly")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
