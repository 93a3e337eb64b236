// Package identity authenticates requests and manages credentials. The
// Firebase provider verifies Firebase ID tokens; the local provider keeps
// bcrypt password hashes in the user profiles and issues its own JWTs.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go-phonestore/models"
)

// Auth error codes, named like the Firebase client SDK codes
const (
	CodeUserNotFound       = "auth/user-not-found"
	CodeEmailAlreadyInUse  = "auth/email-already-in-use"
	CodeWrongPassword      = "auth/wrong-password"
	CodeWeakPassword       = "auth/weak-password"
	CodeInvalidEmail       = "auth/invalid-email"
	CodeInvalidToken       = "auth/invalid-token"
	CodeOperationForbidden = "auth/operation-not-allowed"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var messages = map[string]string{
	CodeUserNotFound:      "No account found with this email address.",
	CodeEmailAlreadyInUse: "An account with this email address already exists.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeWeakPassword:      "Password should be at least 6 characters.",
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeInvalidToken:      "Your session has expired. Please sign in again.",
}

// GenericMessage is shown for every failure without a specific message
const GenericMessage = "Something went wrong. Please try again."

// ErrUnsupported is returned for operations the provider does not offer
var ErrUnsupported = errors.New("operation not supported by identity provider")

// AuthError is a credential failure with a user facing message
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// Message returns the text shown to the user
func (e *AuthError) Message() string {
	return Message(e.Code)
}

// Message maps an auth error code to its user facing text
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return GenericMessage
}

func authErr(code string, err error) error {
	return &AuthError{Code: code, Err: err}
}

// Principal is the authenticated caller
type Principal struct {
	UID   string
	Email string
	Name  string
	Admin bool
}

// Role returns the role name of the principal
func (p *Principal) Role() string {
	if p.Admin {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}

// Session is returned by a successful login
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Provider is implemented by Firebase and Local
type Provider interface {
	Verify(ctx context.Context, token string) (*Principal, error)
	Register(ctx context.Context, email, password, displayName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// PasswordResetLink returns a link that lets the user choose a new password
	PasswordResetLink(ctx context.Context, email string) (string, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) (*models.User, error)
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return authErr(CodeInvalidEmail, err)
	}
	if len(password) < MinPasswordLength {
		return authErr(CodeWeakPassword, nil)
	}
	return nil
}

func adminSet(emails []string) map[string]bool {
	out := map[string]bool{}
	for _, e := range emails {
		out[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return out
}
