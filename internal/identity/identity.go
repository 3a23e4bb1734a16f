// Package identity talks to the identity provider: sign-in, sign-up,
// token refresh, user lookup and sign-out.
package identity

import (
	"context"
	"regexp"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/models"
)

// Provider is the identity provider contract used by the session manager.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignUp(ctx context.Context, email, password string) (SignUpResult, error)
	Refresh(ctx context.Context, refreshToken string) (models.Session, error)
	GetUser(ctx context.Context, accessToken string) (models.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// SignUpResult carries the created user and, when the provider does not
// require email confirmation, an active session.
type SignUpResult struct {
	User    models.User
	Session *models.Session
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidPassword reports whether password has at least 6 characters with a
// lower-case letter, an upper-case letter and a digit.
func ValidPassword(password string) bool {
	if len([]rune(password)) < 6 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// ValidateSignIn checks credentials before any network call.
func ValidateSignIn(email, password string) error {
	if !ValidEmail(email) {
		return apperr.Validation(apperr.CodeInvalidEmail, "invalid email")
	}
	if !ValidPassword(password) {
		return apperr.Validation(apperr.CodeInvalidPasswordFormat, "invalid password format")
	}
	return nil
}

// ValidateSignUp checks credentials before any network call. A password
// that fails the format check is reported as weak.
func ValidateSignUp(email, password string) error {
	if !ValidEmail(email) {
		return apperr.Validation(apperr.CodeInvalidEmail, "invalid email")
	}
	if !ValidPassword(password) {
		return apperr.Validation(apperr.CodeWeakPassword, "weak password")
	}
	return nil
}

// signInCode maps a provider error code from a sign-in attempt.
func signInCode(code string) string {
	switch code {
	case "invalid_credentials", "invalid_grant":
		return apperr.CodeInvalidCredentials
	case "email_not_confirmed":
		return apperr.CodeEmailNotConfirmed
	default:
		return apperr.CodeUnexpected
	}
}

// signUpCode maps a provider error code from a sign-up attempt.
func signUpCode(code string) string {
	switch code {
	case "email_address_invalid", "validation_failed":
		return apperr.CodeInvalidEmail
	case "weak_password":
		return apperr.CodeWeakPassword
	case "signup_disabled":
		return apperr.CodeSignupDisabled
	default:
		return apperr.CodeUnexpected
	}
}
