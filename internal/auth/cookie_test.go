package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndClearTokenCookie(t *testing.T) {
	opts := CookieOptions{Name: "jwt", Secure: true}

	rec := httptest.NewRecorder()
	SetTokenCookie(rec, opts, "abc.def.ghi", time.Hour)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "jwt", c.Name)
	assert.Equal(t, "abc.def.ghi", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rec = httptest.NewRecorder()
	ClearTokenCookie(rec, opts)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(req, "jwt"))

	req.AddCookie(&http.Cookie{Name: "jwt", Value: "tok"})
	assert.Equal(t, "tok", TokenFromRequest(req, "jwt"))
}
