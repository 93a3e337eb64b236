package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// resetRole marks tokens that may only be used to reset a password
const resetRole = "password-reset"

// Local keeps credentials in the user profiles. It is meant for local
// development without a Firebase project.
type Local struct {
	Users      *services.UserService
	TokenTTL   time.Duration
	BcryptCost int
	// BaseURL is the storefront URL password reset links point to
	BaseURL string
	admins  map[string]bool
}

// NewLocal creates a Local provider
func NewLocal(users *services.UserService, ttl time.Duration, cost int, baseURL string, adminEmails []string) *Local {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Local{Users: users, TokenTTL: ttl, BcryptCost: cost, BaseURL: baseURL, admins: adminSet(adminEmails)}
}

// Verify validates a token issued by Login
func (l *Local) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := utils.ParseJWT(token)
	if err != nil {
		return nil, authErr(CodeInvalidToken, err)
	}
	if claims.Role == resetRole || claims.UserID == "" {
		return nil, authErr(CodeInvalidToken, errors.New("not a session token"))
	}
	return &Principal{UID: claims.UserID, Email: claims.Email, Admin: claims.Role == models.RoleAdmin}, nil
}

// Register hashes the password and creates the profile
func (l *Local) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = services.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.BcryptCost)
	if err != nil {
		return nil, err
	}
	role := models.RoleCustomer
	if l.admins[email] {
		role = models.RoleAdmin
	}
	u, err := l.Users.Create(ctx, "", models.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		PasswordHash: string(hash),
	})
	if errors.Is(err, services.ErrConflict) {
		return nil, authErr(CodeEmailAlreadyInUse, err)
	}
	return u, err
}

// Login checks the password and issues a session token
func (l *Local) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := l.Users.FindByEmail(ctx, email)
	if errors.Is(err, services.ErrNotFound) {
		return nil, authErr(CodeUserNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, authErr(CodeWrongPassword, nil)
	}
	token, err := utils.GenerateJWT(u.ID, u.Email, u.Role, l.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// PasswordResetLink issues a one hour reset token for the user
func (l *Local) PasswordResetLink(ctx context.Context, email string) (string, error) {
	u, err := l.Users.FindByEmail(ctx, email)
	if errors.Is(err, services.ErrNotFound) {
		return "", authErr(CodeUserNotFound, err)
	}
	if err != nil {
		return "", err
	}
	token, err := utils.GenerateJWT(u.ID, u.Email, resetRole, time.Hour)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(l.BaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token), nil
}

// ResetPassword sets a new password using a token from PasswordResetLink
func (l *Local) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := utils.ParseJWT(token)
	if err != nil || claims.Role != resetRole {
		return authErr(CodeInvalidToken, err)
	}
	if len(password) < MinPasswordLength {
		return authErr(CodeWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.BcryptCost)
	if err != nil {
		return err
	}
	return l.Users.SetPasswordHash(ctx, claims.UserID, string(hash))
}

// UpdateDisplayName updates the profile
func (l *Local) UpdateDisplayName(ctx context.Context, uid, displayName string) (*models.User, error) {
	return l.Users.UpdateProfile(ctx, uid, displayName)
}
