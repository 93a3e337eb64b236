package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"go-phonestore/models"
	"go-phonestore/services"
)

// Firebase delegates credentials to Firebase Authentication. Users sign in
// with the Firebase client SDK and send their ID token as bearer token.
type Firebase struct {
	Client *auth.Client
	Users  *services.UserService
	admins map[string]bool
}

// NewFirebase initializes the Firebase app and its auth client
func NewFirebase(ctx context.Context, projectID, credentialsFile string, users *services.UserService, adminEmails []string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init failed: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init failed: %w", err)
	}
	return &Firebase{Client: client, Users: users, admins: adminSet(adminEmails)}, nil
}

func mapFirebaseErr(err error) error {
	switch {
	case err == nil:
		return nil
	case auth.IsEmailAlreadyExists(err):
		return authErr(CodeEmailAlreadyInUse, err)
	case auth.IsUserNotFound(err), auth.IsEmailNotFound(err):
		return authErr(CodeUserNotFound, err)
	case auth.IsIDTokenExpired(err), auth.IsIDTokenRevoked(err), auth.IsIDTokenInvalid(err):
		return authErr(CodeInvalidToken, err)
	}
	return err
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Verify checks a Firebase ID token. The caller is admin when the token
// carries the admin custom claim, the profile role is admin or the email is
// listed in ADMIN_EMAILS.
func (f *Firebase) Verify(ctx context.Context, idToken string) (*Principal, error) {
	token, err := f.Client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, authErr(CodeInvalidToken, err)
	}
	p := &Principal{
		UID:   strings.TrimSpace(token.UID),
		Email: claimString(token.Claims, "email"),
		Name:  claimString(token.Claims, "name"),
	}
	if p.UID == "" {
		return nil, authErr(CodeInvalidToken, fmt.Errorf("token without uid"))
	}
	if admin, ok := token.Claims["admin"].(bool); ok && admin {
		p.Admin = true
	}
	profile, err := f.Users.Ensure(ctx, p.UID, p.Email, p.Name)
	if err != nil {
		return nil, err
	}
	if profile.Role == models.RoleAdmin || f.admins[strings.ToLower(p.Email)] {
		p.Admin = true
	}
	return p, nil
}

// Register creates the Firebase user and its profile
func (f *Firebase) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = services.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	record, err := f.Client.CreateUser(ctx, params)
	if err != nil {
		return nil, mapFirebaseErr(err)
	}
	role := models.RoleCustomer
	if f.admins[email] {
		role = models.RoleAdmin
	}
	u, err := f.Users.Create(ctx, record.UID, models.User{Email: email, DisplayName: displayName, Role: role})
	if err != nil {
		_ = f.Client.DeleteUser(ctx, record.UID)
		return nil, err
	}
	return u, nil
}

// Login is done by the Firebase client SDK
func (f *Firebase) Login(context.Context, string, string) (*Session, error) {
	return nil, ErrUnsupported
}

// PasswordResetLink asks Firebase for a password reset link
func (f *Firebase) PasswordResetLink(ctx context.Context, email string) (string, error) {
	email = services.NormalizeEmail(email)
	if err := validateCredentials(email, strings.Repeat("x", MinPasswordLength)); err != nil {
		return "", err
	}
	link, err := f.Client.PasswordResetLink(ctx, email)
	if err != nil {
		return "", mapFirebaseErr(err)
	}
	return link, nil
}

// UpdateDisplayName updates Firebase and the profile
func (f *Firebase) UpdateDisplayName(ctx context.Context, uid, displayName string) (*models.User, error) {
	if _, err := f.Client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(displayName)); err != nil {
		return nil, mapFirebaseErr(err)
	}
	return f.Users.UpdateProfile(ctx, uid, displayName)
}
