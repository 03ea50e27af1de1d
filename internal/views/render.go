// Package views renders the embedded HTML templates. Every page is parsed
// together with layout.html and executed through the "layout" template.
package views

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/timeutil"
)

const layoutFile = "layout.html"

// NavSource supplies the classification links shown on every page.
type NavSource interface {
	Classifications(ctx context.Context) ([]models.Classification, error)
}

// Page is the data every template receives. Handlers fill Title, Errors,
// Form and Data; the renderer fills the rest.
type Page struct {
	Title  string
	Errors []string
	Form   map[string]string
	Data   any

	Identity *auth.Identity
	Nav      []models.Classification
	Flash    flash.Messages
	Detail   string
}

// Value returns a sticky form value.
func (p Page) Value(key string) string {
	return p.Form[key]
}

type Renderer struct {
	pages map[string]*template.Template
	nav   NavSource
	dev   bool
}

// New parses every page in fsys. A template error is returned at startup
// rather than on first request.
func New(fsys fs.FS, nav NavSource, dev bool) (*Renderer, error) {
	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = tmpl
	}
	return &Renderer{pages: pages, nav: nav, dev: dev}, nil
}

// Has reports whether a page exists.
func (v *Renderer) Has(name string) bool {
	_, ok := v.pages[name]
	return ok
}

// Render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	tmpl, ok := v.pages[name]
	if !ok {
		log.Printf("[Views] unknown page %q", name)
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}

	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		p.Identity = &identity
	}
	if v.nav != nil {
		nav, err := v.nav.Classifications(r.Context())
		if err != nil {
			log.Printf("[Views] nav: %v", err)
		}
		p.Nav = nav
	}
	p.Flash = flash.Pop(w, r)
	if !v.dev {
		p.Detail = ""
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.Printf("[Views] render %s: %v", name, err)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Dev reports whether diagnostic detail may be shown.
func (v *Renderer) Dev() bool {
	return v.dev
}

var funcs = template.FuncMap{
	"price":  models.FormatPrice,
	"number": models.GroupThousands,
	"date": func(t any) string {
		if tt, ok := asTime(t); ok {
			return timeutil.Format(tt, timeutil.DisplayLayout)
		}
		return ""
	},
	"ago": func(t any) string {
		if tt, ok := asTime(t); ok {
			return timeutil.Ago(tt, timeutil.Now())
		}
		return ""
	},
	"stars": func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	},
	"rating": func(avg float64) string {
		return fmt.Sprintf("%.2f", avg)
	},
	"roles": func() []models.Role {
		return []models.Role{models.RoleClient, models.RoleEmployee, models.RoleManager}
	},
	"seq": func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
	"add":  func(a, b int) int { return a + b },
	"itoa": func(n int) string { return fmt.Sprint(n) },
}

// asTime accepts both time.Time and *time.Time so optional columns render.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}
