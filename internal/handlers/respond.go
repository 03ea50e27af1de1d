package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/pkg/utils"

	"github.com/gorilla/mux"
)

const (
	MsgTryAgain = "Something went wrong. Please try again later."
	MsgNotFound = "Sorry, we couldn't find that."
)

// Base carries what every handler needs to answer a request.
type Base struct {
	Views *views.Renderer
}

func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, page string, p views.Page) {
	b.Views.Render(w, r, status, page, p)
}

// fail maps a service error to a response. Browsers get a redirect to back
// with a notice; JSON callers get a status and {"error"}. Store failures
// are logged and shown generically.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	jsonCaller := middleware.WantsJSON(r)

	if messages := services.ValidationMessages(err); len(messages) > 0 {
		if jsonCaller {
			utils.JSON(w, http.StatusBadRequest, map[string]any{"error": messages[0], "errors": messages})
			return
		}
		flash.Set(w, flash.Error, messages...)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		middleware.Unauthenticated(w, r)
		return
	case errors.Is(err, services.ErrForbidden):
		if jsonCaller {
			utils.Error(w, http.StatusForbidden, err.Error())
			return
		}
		flash.Set(w, flash.Error, capitalize(err.Error())+".")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	case errors.Is(err, services.ErrNotFound):
		if jsonCaller {
			utils.Error(w, http.StatusNotFound, MsgNotFound)
			return
		}
		flash.Set(w, flash.Error, MsgNotFound)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	b.serverError(w, r, err)
}

func (b *Base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("[HTTP] %s %s %s failed: %v", middleware.RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
	if middleware.WantsJSON(r) {
		utils.Error(w, http.StatusInternalServerError, MsgTryAgain)
		return
	}
	p := views.Page{Title: "Server Error", Data: MsgTryAgain}
	if b.Views.Dev() {
		p.Detail = err.Error()
	}
	b.render(w, r, http.StatusInternalServerError, "error", p)
}

// NotFound renders the 404 page for unmatched routes.
func (b *Base) NotFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		utils.Error(w, http.StatusNotFound, MsgNotFound)
		return
	}
	b.render(w, r, http.StatusNotFound, "error", views.Page{Title: "404", Data: MsgNotFound})
}

// identity is only called behind RequireAuthenticated.
func identity(r *http.Request) auth.Identity {
	id, _ := middleware.IdentityFromContext(r.Context())
	return id
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// formValues snapshots the named fields for sticky re-rendering.
func formValues(r *http.Request, keys ...string) map[string]string {
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		values[k] = r.FormValue(k)
	}
	return values
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// sameSiteReferer returns the referring path when it points back at this
// site, so a redirect can never leave it.
func sameSiteReferer(r *http.Request, fallback string) string {
	u, err := url.Parse(r.Referer())
	if err != nil || u.Host != r.Host || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
