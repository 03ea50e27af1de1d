package services

import (
	"context"
	"testing"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/testutil"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Sup3r-Secret-Pass"

func newAccountService(t *testing.T) (*AccountService, *testutil.Accounts, *auth.TokenManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "account-test-secret"
	tokens := auth.NewTokenManager(cfg)
	accounts := testutil.NewAccounts()
	totpSvc := NewTOTPService(accounts, testutil.NewLimiter(), "CSE Motors")
	return NewAccountService(accounts, tokens, totpSvc), accounts, tokens
}

func registerReq(email string) models.RegisterRequest {
	return models.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: goodPassword}
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword(goodPassword))
	assert.False(t, StrongPassword("Short-1a"))
	assert.False(t, StrongPassword("alllowercase-123"))
	assert.False(t, StrongPassword("ALLUPPERCASE-123"))
	assert.False(t, StrongPassword("NoDigitsHere-abc"))
	assert.False(t, StrongPassword("NoSymbols12345abc"))

	// Length counts characters, not bytes.
	assert.False(t, StrongPassword("Éé1-Ééééé"))
	assert.True(t, StrongPassword("Éé1-Éééééééé"))
}

func TestRegister(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, registerReq("  Ada@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, account.Role)
	assert.Equal(t, "ada@example.com", account.Email)
	assert.NotEqual(t, goodPassword, account.PasswordHash)

	_, err = svc.Register(ctx, registerReq("ada@example.com"))
	assert.Equal(t, []string{MsgEmailExists}, ValidationMessages(err))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "bad", Password: "weak"})
	msgs := ValidationMessages(err)
	assert.Contains(t, msgs, "Please provide a first name.")
	assert.Contains(t, msgs, "A valid email is required.")
	assert.Contains(t, msgs, "Password does not meet requirements.")
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newAccountService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registerReq("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: goodPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ADA@example.com", Password: goodPassword})
	require.NoError(t, err)
	id, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Account.ID, id.AccountID)
	assert.Equal(t, models.RoleClient, id.Role)
}

func TestLoginWithTOTP(t *testing.T) {
	svc, accounts, _ := newAccountService(t)
	ctx := context.Background()
	account, err := svc.Register(ctx, registerReq("ada@example.com"))
	require.NoError(t, err)

	setup, err := svc.totp.GenerateSetup(ctx, auth.IdentityFor(account))
	require.NoError(t, err)
	assert.Contains(t, setup.QRCode, "data:image/png;base64,")

	code, err := totp.GenerateCode(setup.Secret, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, svc.totp.Enable(ctx, account.ID, code))

	stored, err := accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.TOTPEnabled)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: goodPassword})
	assert.ErrorIs(t, err, ErrTOTPRequired)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: goodPassword, TOTPCode: "000000"})
	assert.ErrorIs(t, err, ErrInvalidTOTPCode)

	code, err = totp.GenerateCode(setup.Secret, time.Now().UTC())
	require.NoError(t, err)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: goodPassword, TOTPCode: code})
	require.NoError(t, err)
}

func TestUpdateInfoReissuesToken(t *testing.T) {
	svc, _, tokens := newAccountService(t)
	ctx := context.Background()
	account, err := svc.Register(ctx, registerReq("ada@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("taken@example.com"))
	require.NoError(t, err)
	me := auth.IdentityFor(account)

	_, err = svc.UpdateInfo(ctx, me, account.ID+1, models.UpdateAccountRequest{FirstName: "A", LastName: "Bc", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateInfo(ctx, me, account.ID, models.UpdateAccountRequest{FirstName: "A", LastName: "Bc", Email: "taken@example.com"})
	assert.Equal(t, []string{MsgEmailExists}, ValidationMessages(err))

	resp, err := svc.UpdateInfo(ctx, me, account.ID, models.UpdateAccountRequest{FirstName: "Augusta", LastName: "King", Email: "augusta@example.com"})
	require.NoError(t, err)
	id, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", id.FirstName)
	assert.Equal(t, "augusta@example.com", id.Email)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()
	account, err := svc.Register(ctx, registerReq("ada@example.com"))
	require.NoError(t, err)
	me := auth.IdentityFor(account)

	err = svc.ChangePassword(ctx, me, account.ID, models.ChangePasswordRequest{Password: "weak"})
	assert.Equal(t, []string{"Password does not meet requirements."}, ValidationMessages(err))

	require.NoError(t, svc.ChangePassword(ctx, me, account.ID, models.ChangePasswordRequest{Password: "An0ther-Str0ng-One"}))
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "An0ther-Str0ng-One"})
	require.NoError(t, err)
}

func TestChangeRoleManagerOnly(t *testing.T) {
	svc, accounts, _ := newAccountService(t)
	ctx := context.Background()
	client := accounts.Add("Cal", "Client", "cal@example.com", models.RoleClient)
	employee := auth.IdentityFor(accounts.Add("Eve", "Staff", "eve@example.com", models.RoleEmployee))
	manager := auth.IdentityFor(accounts.Add("Max", "Boss", "max@example.com", models.RoleManager))

	assert.ErrorIs(t, svc.ChangeRole(ctx, employee, client.ID, "Employee"), ErrForbidden)
	assert.Equal(t, []string{MsgCannotChangeSelf}, ValidationMessages(svc.ChangeRole(ctx, manager, manager.AccountID, "Client")))
	assert.NotNil(t, ValidationMessages(svc.ChangeRole(ctx, manager, client.ID, "overlord")))

	require.NoError(t, svc.ChangeRole(ctx, manager, client.ID, "employee"))
	stored, err := accounts.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, stored.Role)
}
