package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength matches the registration hint shown on the form.
const MinPasswordLength = 12

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// StrongPassword requires 12+ characters with at least one lowercase letter,
// one uppercase letter, one digit and one symbol.
func StrongPassword(pw string) bool {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// fieldMessages maps form field + failed tag to the message shown to users.
var fieldMessages = map[string]string{
	"FirstName.required":      "Please provide a first name.",
	"LastName.required":       "Please provide a last name.",
	"LastName.min":            "Last name must be at least 2 characters.",
	"Email.required":          "A valid email is required.",
	"Email.email":             "A valid email is required.",
	"Password.required":       "Password is required.",
	"Password.strongpassword": "Password does not meet requirements.",
}

// validateStruct runs the tag rules and converts failures to a ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Field() + "." + fe.Tag()
		if msg, ok := fieldMessages[key]; ok {
			messages = append(messages, msg)
			continue
		}
		messages = append(messages, fmt.Sprintf("%s is invalid.", fe.Field()))
	}
	return invalid(messages...)
}

// parseID accepts a positive integer id from form or JSON text.
func parseID(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// truncate caps s at max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
