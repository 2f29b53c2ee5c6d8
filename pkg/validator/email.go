package validator

import (
	"errors"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyEmail indicates the e-mail address is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates the e-mail address is malformed
	ErrInvalidEmail = errors.New("email address is not valid")
)

// EmailValidator checks e-mail syntax using the go-playground "email" rule
type EmailValidator struct {
	validate *playground.Validate
}

// NewEmailValidator creates a new e-mail validator instance
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{validate: playground.New()}
}

// Validate returns the trimmed, lower-cased address or an error
func (v *EmailValidator) Validate(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	if err := v.validate.Var(email, "email,max=255"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ContactValidator validates the optional contact fields of a booking
type ContactValidator struct {
	Phone *PhoneValidator
	Email *EmailValidator
}

// NewContactValidator creates a validator for customer contact details
func NewContactValidator() *ContactValidator {
	return &ContactValidator{Phone: NewPhoneValidator(), Email: NewEmailValidator()}
}
