// Package flash carries one-shot notices across a redirect in a short-lived
// cookie. A notice is shown on the next rendered page and then cleared.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const CookieName = "flash"

type Kind string

const (
	Notice  Kind = "notice"
	Success Kind = "success"
	Error   Kind = "error"
)

// Messages groups notices by kind.
type Messages map[Kind][]string

func (m Messages) Empty() bool {
	for _, list := range m {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

// Set replaces any pending notices with messages of one kind.
func Set(w http.ResponseWriter, kind Kind, messages ...string) {
	if len(messages) == 0 {
		return
	}
	data, err := json.Marshal(Messages{kind: messages})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending notices and clears the cookie. A missing or
// corrupt cookie yields no messages.
func Pop(w http.ResponseWriter, r *http.Request) Messages {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
