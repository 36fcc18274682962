package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	CookieName = "__session"

	LoginPath = "/auth?mode=login"

	ShortLived = 24 * time.Hour
	LongLived  = 7 * 24 * time.Hour
)

type contextKey string

const userIDKey contextKey = "userID"

// Manager issues and reads the session cookie. The cookie is the only
// session state; nothing is stored server-side.
type Manager struct {
	codec  *codec
	secure bool
}

// NewManager builds a Manager from the configured secrets. The first secret
// seals new cookies, every secret is accepted when reading one.
func NewManager(secrets []string, secure bool) (*Manager, error) {
	c, err := newCodec(secrets)
	if err != nil {
		return nil, err
	}
	return &Manager{codec: c, secure: secure}, nil
}

// Create sets a cookie for userID and redirects to redirectTo.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, userID uuid.UUID, remember bool, redirectTo string) error {
	ttl := ShortLived
	if remember {
		ttl = LongLived
	}

	value, err := m.codec.encode(userID, ttl)
	if err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(value, int(ttl/time.Second)))
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
	return nil
}

// UserID returns the user carried by the request's session cookie. A missing,
// tampered or expired cookie reports false.
func (m *Manager) UserID(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return uuid.Nil, false
	}

	userID, err := m.codec.decode(cookie.Value)
	if err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("ignoring invalid session cookie")
		return uuid.Nil, false
	}
	return userID, true
}

// Require lets the request through only with a valid session. Otherwise it
// redirects to the login page.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.UserID(r)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		ctx := WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Destroy clears the cookie and redirects to the site root.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, m.cookie("", -1))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	return userID, ok
}
