package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *auth.TokenManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	return auth.NewTokenManager(cfg)
}

func issue(t *testing.T, tokens *auth.TokenManager, role models.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(&models.Account{ID: 4, FirstName: "Jo", LastName: "Doe", Email: "jo@example.com", Role: role})
	require.NoError(t, err)
	return token
}

// echoIdentity reports what the handler saw.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if identity, ok := IdentityFromContext(r.Context()); ok {
		w.Write([]byte(identity.Email))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestIdentifyWithValidCookie(t *testing.T) {
	tokens := newTokens()
	m := NewAuthMiddleware(tokens, auth.CookieOptions{Name: "jwt"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: issue(t, tokens, models.RoleClient)})
	rec := httptest.NewRecorder()
	m.Identify(echoIdentity).ServeHTTP(rec, req)

	assert.Equal(t, "jo@example.com", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestIdentifyWithoutCookieIsAnonymous(t *testing.T) {
	m := NewAuthMiddleware(newTokens(), auth.CookieOptions{Name: "jwt"})
	rec := httptest.NewRecorder()
	m.Identify(echoIdentity).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestIdentifyClearsInvalidCookie(t *testing.T) {
	tokens := newTokens()
	expired := newTokens().WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) })

	for name, value := range map[string]string{
		"garbage": "abc.def.ghi",
		"expired": issue(t, expired, models.RoleClient),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewAuthMiddleware(tokens, auth.CookieOptions{Name: "jwt"})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "jwt", Value: value})
			rec := httptest.NewRecorder()
			m.Identify(echoIdentity).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "anonymous", rec.Body.String())
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "jwt", cookies[0].Name)
			assert.Equal(t, -1, cookies[0].MaxAge)
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	m := NewAuthMiddleware(newTokens(), auth.CookieOptions{Name: "jwt"})
	h := m.RequireAuthenticated(echoIdentity)

	t.Run("browser is redirected with a notice", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, flash.CookieName, cookies[0].Name)
	})

	t.Run("json caller gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/messages/mark-read", nil)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Please log in."}`, rec.Body.String())
	})

	t.Run("identified request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/messages/", nil)
		req = req.WithContext(WithIdentity(req.Context(), auth.Identity{AccountID: 1, Email: "a@b.c", Role: models.RoleClient}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "a@b.c", rec.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(newTokens(), auth.CookieOptions{Name: "jwt"})
	h := m.RequireStaff(echoIdentity)

	request := func(role models.Role, jsonCaller bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/inv/", nil)
		if jsonCaller {
			req.Header.Set("Accept", "application/json")
		}
		req = req.WithContext(WithIdentity(req.Context(), auth.Identity{AccountID: 2, Email: "s@x.io", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, "s@x.io", request(models.RoleEmployee, false).Body.String())
	assert.Equal(t, "s@x.io", request(models.RoleManager, false).Body.String())

	rec := request(models.RoleClient, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	assert.Equal(t, http.StatusForbidden, request(models.RoleClient, true).Code)

	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/inv/", nil))
	assert.Equal(t, LoginPath, anon.Header().Get("Location"))
}

func TestWantsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, WantsJSON(req))

	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	assert.True(t, WantsJSON(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json, text/plain")
	assert.True(t, WantsJSON(req))
}
