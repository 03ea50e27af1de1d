package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/models"
)

const (
	MsgEmailExists      = "Email exists. Please log in or use a different email."
	MsgCannotChangeSelf = "You cannot change your own account type."
)

type AccountService struct {
	accounts AccountStore
	tokens   *auth.TokenManager
	totp     *TOTPService
}

func NewAccountService(accounts AccountStore, tokens *auth.TokenManager, totp *TOTPService) *AccountService {
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		totp:     totp,
	}
}

// Register creates a Client account. Staff roles are only granted by a
// manager or through the admin CLI.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	return s.Create(ctx, req, models.RoleClient)
}

// Create validates the form and stores a new account with the given role.
func (s *AccountService) Create(ctx context.Context, req models.RegisterRequest, role models.Role) (*models.Account, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !role.Valid() {
		return nil, invalid("Unknown account type.")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.accounts.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid(MsgEmailExists)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(storeErr(err), ErrDuplicate) {
			return nil, invalid(MsgEmailExists)
		}
		return nil, err
	}
	return account, nil
}

// Login checks the password and, when enrolled, the TOTP code, then issues
// an identity token. Unknown email and wrong password fail the same way.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(storeErr(err), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(account.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if account.TOTPEnabled && s.totp != nil {
		if err := s.totp.Verify(ctx, account, req.TOTPCode); err != nil {
			return nil, err
		}
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		log.Printf("[Accounts] failed to record login for %d: %v", account.ID, err)
	}

	return s.issue(account)
}

func (s *AccountService) Get(ctx context.Context, id int) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	return account, storeErr(err)
}

// UpdateInfo edits the requester's own name and email and re-issues the
// token so the new snapshot takes effect immediately.
func (s *AccountService) UpdateInfo(ctx context.Context, requester auth.Identity, accountID int, req models.UpdateAccountRequest) (*models.AuthResponse, error) {
	if requester.AccountID != accountID {
		return nil, ErrForbidden
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if !strings.EqualFold(req.Email, requester.Email) {
		exists, err := s.accounts.EmailExists(ctx, req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, invalid(MsgEmailExists)
		}
	}

	account, err := s.accounts.UpdateInfo(ctx, accountID, req.FirstName, req.LastName, req.Email)
	if err != nil {
		if errors.Is(storeErr(err), ErrDuplicate) {
			return nil, invalid(MsgEmailExists)
		}
		return nil, storeErr(err)
	}
	return s.issue(account)
}

// ChangePassword replaces the requester's own password.
func (s *AccountService) ChangePassword(ctx context.Context, requester auth.Identity, accountID int, req models.ChangePasswordRequest) error {
	if requester.AccountID != accountID {
		return ErrForbidden
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	return storeErr(s.accounts.UpdatePassword(ctx, accountID, hash))
}

// ListAccounts backs the manager's staff page.
func (s *AccountService) ListAccounts(ctx context.Context, requester auth.Identity) ([]*models.Account, error) {
	if requester.Role != models.RoleManager {
		return nil, ErrForbidden
	}
	return s.accounts.ListAll(ctx)
}

// ChangeRole lets a manager move another account between roles.
func (s *AccountService) ChangeRole(ctx context.Context, requester auth.Identity, accountID int, role string) error {
	if requester.Role != models.RoleManager {
		return ErrForbidden
	}
	if requester.AccountID == accountID {
		return invalid(MsgCannotChangeSelf)
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return invalid("Unknown account type.")
	}
	return storeErr(s.accounts.SetRole(ctx, accountID, parsed))
}

// SetRole is the unchecked variant used by the admin CLI.
func (s *AccountService) SetRole(ctx context.Context, email string, role models.Role) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err)
	}
	if err := s.accounts.SetRole(ctx, account.ID, role); err != nil {
		return nil, storeErr(err)
	}
	account.Role = role
	return account, nil
}

// Refresh re-reads the account and issues a new token for it.
func (s *AccountService) Refresh(ctx context.Context, accountID int) (*models.AuthResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.issue(account)
}

func (s *AccountService) issue(account *models.Account) (*models.AuthResponse, error) {
	token, exp, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: exp, Account: account}, nil
}
