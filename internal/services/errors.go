package services

import (
	"errors"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/repositories"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you are not permitted to do that")
	ErrUnauthenticated    = errors.New("please log in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTOTPRequired       = errors.New("enter the code from your authenticator app")
	ErrInvalidTOTPCode    = errors.New("invalid authentication code")
	ErrNoTOTPSecret       = errors.New("two-factor setup has not been started")
	ErrTOTPNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrDuplicate          = errors.New("already exists")
)

// ValidationError carries user-facing messages for a rejected form.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func invalid(messages ...string) error {
	return &ValidationError{Messages: messages}
}

func invalidf(message string) *ValidationError {
	return &ValidationError{Messages: []string{message}}
}

// ValidationMessages returns the user-facing messages of a ValidationError
// and nil for any other error.
func ValidationMessages(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Messages
	}
	return nil
}

// storeErr maps repository sentinels onto service errors and passes
// everything else through untouched.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return ErrDuplicate
	}
	return err
}
