package middleware

import (
	"context"
	"net/http"

	"github.com/dom/writing-assistant/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// SessionReader resolves the user behind a request's session cookie.
type SessionReader interface {
	UserID(r *http.Request) (uuid.UUID, bool)
	Require(next http.Handler) http.Handler
}

// RequireSession redirects anonymous requests to the login page.
func RequireSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return sessions.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := session.UserIDFromContext(r.Context()); ok {
				hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("user_id", userID.String())
				})
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// OptionalSession attaches the user id when a valid session is present and
// lets anonymous requests through unchanged.
func OptionalSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := sessions.UserID(r); ok {
				r = r.WithContext(session.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	return session.UserIDFromContext(ctx)
}
