package middleware

import (
	"context"
	"net/http"

	"github.com/Rrens/auditlens/internal/api/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

var validate = validator.New()

// GetSessionID gets the session ID from context
func GetSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionIDKey).(string)
	return id, ok
}

// SessionContext validates the session ID from the URL and adds it to context
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if err := validate.Var(sessionID, "required,uuid"); err != nil {
			response.Fail(w, http.StatusBadRequest, "invalid_session_id", "session ID must be a UUID")
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
