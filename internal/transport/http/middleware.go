package http

import (
	"context"
	"net/http"
	"strings"

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/domain"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// requireAuth verifies the bearer token and stashes the caller identity
// in the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, domain.ErrInvalidCredentials)
			return
		}
		id, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func identityFrom(r *http.Request) app.Identity {
	id, _ := r.Context().Value(identityKey).(app.Identity)
	return id
}
