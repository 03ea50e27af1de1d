package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBase(t *testing.T) *Base {
	t.Helper()
	r, err := views.New(templates.FS, nil, false)
	require.NoError(t, err)
	return &Base{Views: r}
}

func jsonRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func TestFail_JSONStatuses(t *testing.T) {
	b := newBase(t)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.ErrTooManyAttempts, http.StatusBadRequest},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			b.fail(rec, jsonRequest("POST", "/x"), tt.err, "/back")
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}

func TestFail_BrowserRedirectsWithFlash(t *testing.T) {
	b := newBase(t)
	rec := httptest.NewRecorder()

	b.fail(rec, httptest.NewRequest("POST", "/reviews/add", nil), services.ErrForbidden, "/inv/detail/4")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/inv/detail/4", rec.Header().Get("Location"))
	var flashed bool
	for _, c := range rec.Result().Cookies() {
		flashed = flashed || c.Name == "flash"
	}
	assert.True(t, flashed)
}

func TestServerError_HidesDetailInProduction(t *testing.T) {
	b := newBase(t)
	rec := httptest.NewRecorder()

	b.serverError(rec, httptest.NewRequest("GET", "/", nil), errors.New("relation \"inventory\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgTryAgain)
	assert.NotContains(t, rec.Body.String(), "does not exist")
}

func TestSameSiteReferer(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"", "/fallback"},
		{"http://example.com/inv/detail/3?offset=10", "/inv/detail/3?offset=10"},
		{"http://evil.test/phish", "/fallback"},
		{"http://example.com//evil.test/phish", "/fallback"},
		{"javascript:alert(1)", "/fallback"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "http://example.com/reviews/reply", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		assert.Equal(t, tt.want, sameSiteReferer(req, "/fallback"), tt.referer)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 12, atoi(" 12 "))
	assert.Equal(t, 0, atoi("x"))
	assert.Equal(t, "Forbidden", capitalize("forbidden"))
	assert.Equal(t, "", capitalize(""))
}
