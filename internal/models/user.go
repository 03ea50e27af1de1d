package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles stored in account.account_type.
type Role string

const (
	RoleClient   Role = "Client"
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
)

// StaffRoles are the roles allowed into the inventory back office.
var StaffRoles = []Role{RoleEmployee, RoleManager}

// ParseRole maps free-form role text onto the enumeration. Matching is
// case-insensitive and "admin" is folded into Employee.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return RoleClient, nil
	case "employee", "admin":
		return RoleEmployee, nil
	case "manager":
		return RoleManager, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleEmployee || r == RoleManager
}

// IsStaff reports whether the role sits on the staff side of the client/staff boundary.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleManager
}

// Counterparts returns the roles this role may exchange messages with.
// Clients talk to staff, staff talk to clients; never peer-to-peer.
func (r Role) Counterparts() []Role {
	if r == RoleClient {
		return []Role{RoleEmployee, RoleManager}
	}
	return []Role{RoleClient}
}

// In reports whether r is a member of roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

type Account struct {
	ID           int        `json:"account_id"`
	FirstName    string     `json:"account_firstname"`
	LastName     string     `json:"account_lastname"`
	Email        string     `json:"account_email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         Role       `json:"account_type"`
	TOTPSecret   string     `json:"-"`
	TOTPEnabled  bool       `json:"totp_enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// FullName is used by the templates and the PDF spec sheet.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Recipient is the narrow projection used to populate compose pickers and to
// re-validate a recipient at send time.
type Recipient struct {
	ID        int    `json:"account_id"`
	FirstName string `json:"account_firstname"`
	LastName  string `json:"account_lastname"`
	Role      Role   `json:"account_type"`
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	FirstName string `json:"account_firstname" validate:"required"`
	LastName  string `json:"account_lastname" validate:"required,min=2"`
	Email     string `json:"account_email" validate:"required,email"`
	Password  string `json:"account_password" validate:"required,strongpassword"`
}

// LoginRequest represents the login form
type LoginRequest struct {
	Email    string `json:"account_email" validate:"required,email"`
	Password string `json:"account_password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

// UpdateAccountRequest represents the profile edit form
type UpdateAccountRequest struct {
	FirstName string `json:"account_firstname" validate:"required"`
	LastName  string `json:"account_lastname" validate:"required,min=2"`
	Email     string `json:"account_email" validate:"required,email"`
}

// ChangePasswordRequest represents the password change form
type ChangePasswordRequest struct {
	Password string `json:"account_password" validate:"required,strongpassword"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"account"`
}
