package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidEmail    = "Invalid email address."
	msgInvalidPassword = "Invalid password. Must be at least 8 characters long and less than 30."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// The stock "email" tag is RFC 5322 and stricter than the login form.
	v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// credentialsForm holds the checked fields. Password is trimmed before
// validation; min and max count characters, not bytes.
type credentialsForm struct {
	Email    string `validate:"required,loose_email"`
	Password string `validate:"min=8,max=30"`
}

var fieldNames = map[string]string{
	"Email":    "email",
	"Password": "password",
}

var fieldMessages = map[string]string{
	"email":    msgInvalidEmail,
	"password": msgInvalidPassword,
}

// FieldErrors maps a form field name to a message that can be shown next to it.
type FieldErrors map[string]string

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// ValidateCredentials checks the shape of an email/password pair. It returns
// nil when both are acceptable.
func ValidateCredentials(email, password string) FieldErrors {
	err := validate.Struct(credentialsForm{
		Email:    email,
		Password: strings.TrimSpace(password),
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable with a broken struct definition.
		return FieldErrors{}.with("email", msgInvalidEmail).with("password", msgInvalidPassword)
	}

	var errs FieldErrors
	for _, fe := range verrs {
		field := fieldNames[fe.StructField()]
		errs = errs.with(field, fieldMessages[field])
	}
	return errs
}

func IsValidEmail(email string) bool {
	return validate.Var(email, "required,loose_email") == nil
}

// IsValidPassword counts characters, not bytes, after trimming surrounding whitespace.
func IsValidPassword(password string) bool {
	return validate.Var(strings.TrimSpace(password), "min=8,max=30") == nil
}

func (f FieldErrors) with(field, message string) FieldErrors {
	if f == nil {
		f = FieldErrors{}
	}
	f[field] = message
	return f
}
