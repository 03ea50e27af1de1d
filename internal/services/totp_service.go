package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/auth"
	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	maxFailedAttempts = 5
	rateLimitWindow   = 15 * time.Minute
)

var ErrTooManyAttempts = invalidf("Too many failed attempts, please try again later.")

// AttemptLimiter counts failed verifications per key inside a window.
type AttemptLimiter interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) error
	Reset(ctx context.Context, key string) error
}

type TOTPService struct {
	accounts AccountStore
	limiter  AttemptLimiter
	issuer   string
	now      func() time.Time
}

func NewTOTPService(accounts AccountStore, limiter AttemptLimiter, issuer string) *TOTPService {
	if issuer == "" {
		issuer = "CSE Motors"
	}
	return &TOTPService{
		accounts: accounts,
		limiter:  limiter,
		issuer:   issuer,
		now:      time.Now,
	}
}

// GenerateSetup creates a new secret and QR code. The secret is stored but
// stays inactive until Enable confirms a code.
func (s *TOTPService) GenerateSetup(ctx context.Context, who auth.Identity) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: who.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.accounts.SetTOTPSecret(ctx, who.AccountID, key.Secret()); err != nil {
		return nil, storeErr(err)
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      s.issuer,
		AccountName: who.Email,
	}, nil
}

// Enable verifies a code against the pending secret and turns 2FA on.
func (s *TOTPService) Enable(ctx context.Context, accountID int, code string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return storeErr(err)
	}
	if account.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if err := s.check(ctx, account, code); err != nil {
		return err
	}
	return storeErr(s.accounts.EnableTOTP(ctx, accountID))
}

// Verify checks a login code for an account that has 2FA enabled.
func (s *TOTPService) Verify(ctx context.Context, account *models.Account, code string) error {
	if !account.TOTPEnabled || account.TOTPSecret == "" {
		return ErrTOTPNotEnabled
	}
	if strings.TrimSpace(code) == "" {
		return ErrTOTPRequired
	}
	return s.check(ctx, account, code)
}

// Disable turns 2FA off after re-checking the password and a current code.
func (s *TOTPService) Disable(ctx context.Context, accountID int, password, code string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return storeErr(err)
	}
	if !auth.VerifyPassword(account.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	if err := s.Verify(ctx, account, code); err != nil {
		return err
	}
	return storeErr(s.accounts.DisableTOTP(ctx, accountID))
}

func (s *TOTPService) check(ctx context.Context, account *models.Account, code string) error {
	key := "totp:" + strconv.Itoa(account.ID)
	if s.limiter != nil {
		if n, err := s.limiter.Failures(ctx, key); err == nil && n >= maxFailedAttempts {
			return ErrTooManyAttempts
		}
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(code), account.TOTPSecret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		if s.limiter != nil {
			_ = s.limiter.RecordFailure(ctx, key, rateLimitWindow)
		}
		return ErrInvalidTOTPCode
	}

	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, key)
	}
	return nil
}
