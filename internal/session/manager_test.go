package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, secrets ...string) *Manager {
	t.Helper()
	if len(secrets) == 0 {
		secrets = []string{"test-session-secret"}
	}
	m, err := NewManager(secrets, false)
	require.NoError(t, err)
	return m
}

// issue runs Create and returns the recorded response.
func issue(t *testing.T, m *Manager, userID uuid.UUID, remember bool) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	require.NoError(t, m.Create(rec, req, userID, remember, "/"))
	return rec.Result()
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", CookieName)
	return nil
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/writing", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestManager_Create(t *testing.T) {
	tests := []struct {
		name       string
		remember   bool
		wantMaxAge int
	}{
		{name: "short lived", remember: false, wantMaxAge: 86400},
		{name: "remember me", remember: true, wantMaxAge: 604800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			userID := uuid.New()

			resp := issue(t, m, userID, tt.remember)

			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, "/", resp.Header.Get("Location"))

			cookie := sessionCookie(t, resp)
			assert.Equal(t, tt.wantMaxAge, cookie.MaxAge)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
			assert.False(t, cookie.Secure)
			assert.NotContains(t, cookie.Value, userID.String())

			got, ok := m.UserID(requestWith(cookie))
			require.True(t, ok)
			assert.Equal(t, userID, got)
		})
	}
}

func TestManager_SecureFlag(t *testing.T) {
	m, err := NewManager([]string{"prod-secret"}, true)
	require.NoError(t, err)

	cookie := sessionCookie(t, issue(t, m, uuid.New(), false))
	assert.True(t, cookie.Secure)
}

func TestManager_UserID(t *testing.T) {
	m := newTestManager(t)
	valid := sessionCookie(t, issue(t, m, uuid.New(), false))

	tampered := *valid
	mid := len(tampered.Value) / 2
	replacement := "A"
	if tampered.Value[mid] == 'A' {
		replacement = "B"
	}
	tampered.Value = tampered.Value[:mid] + replacement + tampered.Value[mid+1:]

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie", cookie: nil},
		{name: "empty value", cookie: &http.Cookie{Name: CookieName, Value: ""}},
		{name: "not base64", cookie: &http.Cookie{Name: CookieName, Value: "%%%not-base64%%%"}},
		{name: "too short", cookie: &http.Cookie{Name: CookieName, Value: "YWJj"}},
		{name: "tampered", cookie: &tampered},
		{name: "plain user id", cookie: &http.Cookie{Name: CookieName, Value: uuid.NewString()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := m.UserID(requestWith(tt.cookie))
			assert.False(t, ok)
			assert.Equal(t, uuid.Nil, id)
		})
	}
}

func TestManager_ForeignSecretRejected(t *testing.T) {
	issuer := newTestManager(t, "issuer-secret")
	reader := newTestManager(t, "other-secret")

	cookie := sessionCookie(t, issue(t, issuer, uuid.New(), true))

	_, ok := reader.UserID(requestWith(cookie))
	assert.False(t, ok)
}

func TestManager_SecretRotation(t *testing.T) {
	old := newTestManager(t, "old-secret")
	rotated := newTestManager(t, "new-secret", "old-secret")
	userID := uuid.New()

	cookie := sessionCookie(t, issue(t, old, userID, false))

	got, ok := rotated.UserID(requestWith(cookie))
	require.True(t, ok)
	assert.Equal(t, userID, got)

	// New cookies are sealed with the first secret only.
	fresh := sessionCookie(t, issue(t, rotated, userID, false))
	_, ok = old.UserID(requestWith(fresh))
	assert.False(t, ok)
}

func TestManager_Expired(t *testing.T) {
	m := newTestManager(t)
	issuedAt := time.Now()
	m.codec.now = func() time.Time { return issuedAt }

	cookie := sessionCookie(t, issue(t, m, uuid.New(), false))

	m.codec.now = func() time.Time { return issuedAt.Add(ShortLived + time.Minute) }
	_, ok := m.UserID(requestWith(cookie))
	assert.False(t, ok)
}

func TestManager_Require(t *testing.T) {
	m := newTestManager(t)
	userID := uuid.New()
	valid := sessionCookie(t, issue(t, m, userID, false))

	var seen uuid.UUID
	protected := m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no cookie redirects to login", func(t *testing.T) {
		seen = uuid.Nil
		rec := httptest.NewRecorder()

		assert.NotPanics(t, func() { protected.ServeHTTP(rec, requestWith(nil)) })

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		assert.Equal(t, uuid.Nil, seen)
	})

	t.Run("invalid cookie redirects to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, requestWith(&http.Cookie{Name: CookieName, Value: "garbage"}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	})

	t.Run("valid cookie passes user id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, requestWith(valid))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, seen)
	})
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(t)
	valid := sessionCookie(t, issue(t, m, uuid.New(), true))

	rec := httptest.NewRecorder()
	m.Destroy(rec, requestWith(valid))
	resp := rec.Result()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	cleared := sessionCookie(t, resp)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	assert.True(t, strings.Contains(resp.Header.Get("Set-Cookie"), "Max-Age=0"))

	_, ok := m.UserID(requestWith(cleared))
	assert.False(t, ok)
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(nil, false)
	assert.Error(t, err)
}
