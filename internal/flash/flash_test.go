package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetThenPop(t *testing.T) {
	rec := httptest.NewRecorder()
	Set(rec, Error, "Please log in.", "Second line")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	next := httptest.NewRecorder()

	got := Pop(next, req)
	assert.Equal(t, []string{"Please log in.", "Second line"}, got[Error])
	assert.False(t, got.Empty())

	cleared := next.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestPopWithoutCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	assert.True(t, Pop(rec, req).Empty())
	assert.Empty(t, rec.Result().Cookies())
}

func TestPopCorruptCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "%%%"})
	assert.Nil(t, Pop(httptest.NewRecorder(), req))
}

func TestSetNothing(t *testing.T) {
	rec := httptest.NewRecorder()
	Set(rec, Notice)
	assert.Empty(t, rec.Result().Cookies())
}
