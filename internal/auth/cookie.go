package auth

import (
	"net/http"
	"time"
)

// CookieOptions controls how the identity cookie is written.
type CookieOptions struct {
	Name   string
	Secure bool
}

// SetTokenCookie stores the signed token in an HTTP-only cookie that expires
// together with the token.
func SetTokenCookie(w http.ResponseWriter, opts CookieOptions, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie deletes the identity cookie.
func ClearTokenCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the identity cookie. A missing cookie yields "".
func TokenFromRequest(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
