package auth

import (
	"errors"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed identity token lifetime. The cookie MaxAge matches it.
const TokenTTL = time.Hour

// ErrInvalidToken covers every verification failure. Handlers respond to
// all of them the same way; the Kind on a VerifyError is for logs only.
var ErrInvalidToken = errors.New("invalid or expired token")

type FailureKind string

const (
	FailureMalformed FailureKind = "malformed"
	FailureSignature FailureKind = "signature"
	FailureExpired   FailureKind = "expired"
	FailureClaims    FailureKind = "claims"
)

// VerifyError tags a verification failure. It always matches ErrInvalidToken
// and prints the same text whatever the kind.
type VerifyError struct {
	Kind FailureKind
}

func (e *VerifyError) Error() string { return ErrInvalidToken.Error() }

func (e *VerifyError) Is(target error) bool { return target == ErrInvalidToken }

func failure(err error) *VerifyError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerifyError{Kind: FailureExpired}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &VerifyError{Kind: FailureSignature}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &VerifyError{Kind: FailureMalformed}
	}
	return &VerifyError{Kind: FailureClaims}
}

// Identity is the account snapshot carried inside a token. It is a copy
// taken at issue time and is never refreshed from storage.
type Identity struct {
	AccountID int         `json:"account_id"`
	FirstName string      `json:"account_firstname"`
	LastName  string      `json:"account_lastname"`
	Email     string      `json:"account_email"`
	Role      models.Role `json:"account_type"`
}

func IdentityFor(a *models.Account) Identity {
	return Identity{
		AccountID: a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
	}
}

// Recipient is the identity reduced to what the messaging picker shows.
func (i Identity) Recipient() models.Recipient {
	return models.Recipient{ID: i.AccountID, FirstName: i.FirstName, LastName: i.LastName, Role: i.Role}
}

type Claims struct {
	Identity
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		secret: []byte(cfg.JWT.Secret),
		issuer: cfg.JWT.Issuer,
		ttl:    TokenTTL,
		now:    timeutil.Now,
	}
}

// WithClock replaces the time source. Used by tests to move past expiry.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the account. The password hash and TOTP secret
// never enter the claims.
func (m *TokenManager) Issue(account *models.Account) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := &Claims{
		Identity: IdentityFor(account),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry and returns the embedded identity.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, &VerifyError{Kind: FailureMalformed}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, failure(err)
	}
	if !token.Valid || claims.AccountID <= 0 || !claims.Role.Valid() {
		return nil, &VerifyError{Kind: FailureClaims}
	}

	identity := claims.Identity
	return &identity, nil
}
