package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

type contextKey string

const identityKey contextKey = "identity"

const (
	LoginPath       = "/account/login"
	MsgPleaseLogIn  = "Please log in."
	MsgNotPermitted = "You do not have permission to view that page."
)

type AuthMiddleware struct {
	tokens *auth.TokenManager
	cookie auth.CookieOptions
}

func NewAuthMiddleware(tokens *auth.TokenManager, cookie auth.CookieOptions) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		cookie: cookie,
	}
}

// Identify resolves the identity cookie on every request. A missing token
// leaves the request anonymous. An invalid or expired token is cleared and
// the request also continues anonymous.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r, m.cookie.Name)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.tokens.Verify(token)
		if err != nil {
			var verr *auth.VerifyError
			if errors.As(err, &verr) {
				log.Printf("[Auth] dropped %s token for %s", verr.Kind, r.URL.Path)
			}
			auth.ClearTokenCookie(w, m.cookie)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
	})
}

// RequireAuthenticated lets a request through only when it carries an identity.
func (m *AuthMiddleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			Unauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole is a middleware that ensures the user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				Unauthenticated(w, r)
				return
			}
			if !identity.Role.In(allowed...) {
				Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits Employee and Manager accounts.
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return m.RequireRole(models.StaffRoles...)(next)
}

// Unauthenticated answers 401 to JSON callers and sends browsers to the
// login page with a notice.
func Unauthenticated(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		utils.Error(w, http.StatusUnauthorized, MsgPleaseLogIn)
		return
	}
	flash.Set(w, flash.Notice, MsgPleaseLogIn)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// Forbidden answers 403 to JSON callers and sends browsers to the login
// page with a notice, so they can sign in with a permitted account.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		utils.Error(w, http.StatusForbidden, MsgNotPermitted)
		return
	}
	flash.Set(w, flash.Error, MsgNotPermitted)
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// WantsJSON reports whether the caller is script rather than a page load.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity resolved by Identify.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}
