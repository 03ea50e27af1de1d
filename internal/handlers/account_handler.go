package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
)

const MsgCheckCredentials = "Please check your credentials and try again."

type AccountHandler struct {
	*Base
	Accounts *services.AccountService
	TOTP     *services.TOTPService
	Messages *services.MessageService
	Reviews  *services.ReviewService
	Cookie   auth.CookieOptions
}

func NewAccountHandler(base *Base, accounts *services.AccountService, totp *services.TOTPService, messages *services.MessageService, reviews *services.ReviewService, cookie auth.CookieOptions) *AccountHandler {
	return &AccountHandler{
		Base:     base,
		Accounts: accounts,
		TOTP:     totp,
		Messages: messages,
		Reviews:  reviews,
		Cookie:   cookie,
	}
}

// AccountPage is the data of the account management page.
type AccountPage struct {
	Account *models.Account
	Unread  int
	Reviews []*models.Review
}

type TOTPPage struct {
	Account *models.Account
	Setup   *models.TOTPSetupResponse
	QRCode  template.URL
}

func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", views.Page{Title: "Login"})
}

// Login checks credentials and sets the identity cookie. Every credential
// failure renders the same notice.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := models.LoginRequest{
		Email:    r.FormValue("account_email"),
		Password: r.FormValue("account_password"),
		TOTPCode: r.FormValue("totp_code"),
	}

	resp, err := h.Accounts.Login(r.Context(), req)
	if err != nil {
		message := MsgCheckCredentials
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
		case errors.Is(err, services.ErrTOTPRequired), errors.Is(err, services.ErrInvalidTOTPCode):
			message = capitalize(err.Error()) + "."
		case len(services.ValidationMessages(err)) > 0:
			message = services.ValidationMessages(err)[0]
		default:
			h.serverError(w, r, err)
			return
		}
		h.render(w, r, http.StatusBadRequest, "login", views.Page{
			Title:  "Login",
			Errors: []string{message},
			Form:   map[string]string{"account_email": req.Email},
		})
		return
	}

	h.setToken(w, resp)
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.Cookie)
	flash.Set(w, flash.Notice, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AccountHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", views.Page{Title: "Register"})
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	req := models.RegisterRequest{
		FirstName: r.FormValue("account_firstname"),
		LastName:  r.FormValue("account_lastname"),
		Email:     r.FormValue("account_email"),
		Password:  r.FormValue("account_password"),
	}

	account, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		if messages := services.ValidationMessages(err); len(messages) > 0 {
			h.render(w, r, http.StatusBadRequest, "register", views.Page{
				Title:  "Register",
				Errors: messages,
				Form:   formValues(r, "account_firstname", "account_lastname", "account_email"),
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	flash.Set(w, flash.Success, "Congratulations, you're registered "+account.FirstName+". Please log in.")
	http.Redirect(w, r, "/account/login", http.StatusSeeOther)
}

// Management is the landing page after login.
func (h *AccountHandler) Management(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	account, err := h.Accounts.Get(r.Context(), who.AccountID)
	if err != nil {
		h.staleSession(w, r, err)
		return
	}

	page := AccountPage{Account: account}
	if page.Unread, err = h.Messages.UnreadCount(r.Context(), who); err != nil {
		h.serverError(w, r, err)
		return
	}
	if who.Role == models.RoleClient {
		if page.Reviews, err = h.Reviews.ListByAccount(r.Context(), who); err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	h.render(w, r, http.StatusOK, "account", views.Page{Title: "Account Management", Data: page})
}

func (h *AccountHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	id, ok := pathID(r, "id")
	if !ok || id != who.AccountID {
		h.fail(w, r, services.ErrForbidden, "/account/")
		return
	}
	account, err := h.Accounts.Get(r.Context(), id)
	if err != nil {
		h.staleSession(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "update", views.Page{Title: "Edit Account", Data: AccountPage{Account: account}})
}

// Update changes name and email and replaces the cookie with a token
// carrying the new details.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	id := atoi(r.FormValue("account_id"))
	req := models.UpdateAccountRequest{
		FirstName: r.FormValue("account_firstname"),
		LastName:  r.FormValue("account_lastname"),
		Email:     r.FormValue("account_email"),
	}

	resp, err := h.Accounts.UpdateInfo(r.Context(), who, id, req)
	if err != nil {
		if messages := services.ValidationMessages(err); len(messages) > 0 {
			h.render(w, r, http.StatusBadRequest, "update", views.Page{
				Title:  "Edit Account",
				Errors: messages,
				Data: AccountPage{Account: &models.Account{
					ID: who.AccountID, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email,
				}},
			})
			return
		}
		h.fail(w, r, err, "/account/")
		return
	}

	h.setToken(w, resp)
	flash.Set(w, flash.Success, "Your account information has been updated.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	id := atoi(r.FormValue("account_id"))
	err := h.Accounts.ChangePassword(r.Context(), who, id, models.ChangePasswordRequest{
		Password: r.FormValue("account_password"),
	})
	if err != nil {
		h.fail(w, r, err, "/account/update/"+itoa(who.AccountID))
		return
	}
	flash.Set(w, flash.Success, "Your password has been changed.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *AccountHandler) TOTPPage(w http.ResponseWriter, r *http.Request) {
	account, err := h.Accounts.Get(r.Context(), identity(r).AccountID)
	if err != nil {
		h.staleSession(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "totp", views.Page{Title: "Two-factor authentication", Data: TOTPPage{Account: account}})
}

// TOTPSetup stores a fresh secret and shows its QR code. Two-factor stays
// off until a code from it is confirmed.
func (h *AccountHandler) TOTPSetup(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	account, err := h.Accounts.Get(r.Context(), who.AccountID)
	if err != nil {
		h.staleSession(w, r, err)
		return
	}
	if account.TOTPEnabled {
		http.Redirect(w, r, "/account/totp", http.StatusSeeOther)
		return
	}
	setup, err := h.TOTP.GenerateSetup(r.Context(), who)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "totp", views.Page{
		Title: "Two-factor authentication",
		// The QR code is a data URL built server side.
		Data: TOTPPage{Account: account, Setup: setup, QRCode: template.URL(setup.QRCode)},
	})
}

func (h *AccountHandler) TOTPEnable(w http.ResponseWriter, r *http.Request) {
	if err := h.TOTP.Enable(r.Context(), identity(r).AccountID, r.FormValue("code")); err != nil {
		h.totpFailed(w, r, err)
		return
	}
	flash.Set(w, flash.Success, "Two-factor authentication is on.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *AccountHandler) TOTPDisable(w http.ResponseWriter, r *http.Request) {
	err := h.TOTP.Disable(r.Context(), identity(r).AccountID, r.FormValue("password"), r.FormValue("code"))
	if err != nil {
		h.totpFailed(w, r, err)
		return
	}
	flash.Set(w, flash.Success, "Two-factor authentication is off.")
	http.Redirect(w, r, "/account/", http.StatusSeeOther)
}

func (h *AccountHandler) totpFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTOTPCode), errors.Is(err, services.ErrTOTPRequired),
		errors.Is(err, services.ErrNoTOTPSecret), errors.Is(err, services.ErrTOTPNotEnabled):
		flash.Set(w, flash.Error, capitalize(err.Error())+".")
	case errors.Is(err, services.ErrInvalidCredentials):
		flash.Set(w, flash.Error, MsgCheckCredentials)
	default:
		h.fail(w, r, err, "/account/totp")
		return
	}
	http.Redirect(w, r, "/account/totp", http.StatusSeeOther)
}

// AccountsPage lists every account for a manager.
func (h *AccountHandler) AccountsPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.ListAccounts(r.Context(), identity(r))
	if err != nil {
		h.fail(w, r, err, "/account/")
		return
	}
	h.render(w, r, http.StatusOK, "accounts", views.Page{Title: "Accounts", Data: accounts})
}

func (h *AccountHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, services.ErrNotFound, "/account/accounts")
		return
	}
	if err := h.Accounts.ChangeRole(r.Context(), identity(r), id, r.FormValue("account_type")); err != nil {
		h.fail(w, r, err, "/account/accounts")
		return
	}
	flash.Set(w, flash.Success, "Account type updated. It applies from that account's next login.")
	http.Redirect(w, r, "/account/accounts", http.StatusSeeOther)
}

func (h *AccountHandler) setToken(w http.ResponseWriter, resp *models.AuthResponse) {
	ttl := time.Until(resp.ExpiresAt)
	if ttl <= 0 {
		ttl = auth.TokenTTL
	}
	auth.SetTokenCookie(w, h.Cookie, resp.Token, ttl)
}

// staleSession handles a valid token whose account no longer exists.
func (h *AccountHandler) staleSession(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotFound) {
		auth.ClearTokenCookie(w, h.Cookie)
		middleware.Unauthenticated(w, r)
		return
	}
	h.serverError(w, r, err)
}
