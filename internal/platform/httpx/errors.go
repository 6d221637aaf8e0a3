// Package httpx writes JSON and RFC 7807 responses for the API endpoints.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the HTTP boundary.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

var errorStatus = []struct {
	err    error
	status int
}{
	{ErrValidation, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
}

// RespondError maps err onto a problem response for r. Errors outside the
// sentinel set become a 500 without detail.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	p := ProblemDetail{Status: http.StatusInternalServerError}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			p.Status = m.status
			p.Detail = err.Error()
			break
		}
	}
	if r != nil {
		p.Instance = r.URL.Path
	}
	WriteProblem(w, p)
}
