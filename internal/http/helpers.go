package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finboard/internal/core"
	"finboard/internal/middleware/auth"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userID returns the authenticated user of r.
func userID(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", core.ErrEmptyUserID
	}
	return id, nil
}

// pathID returns the {id} URL parameter.
func pathID(r *http.Request) string {
	return sanitizeInput(chi.URLParam(r, "id"))
}
