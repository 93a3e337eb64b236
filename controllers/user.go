package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/identity"
	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// UserController handles user-related requests
type UserController struct {
	Identity identity.Provider
	Users    *services.UserService
	Mailer   services.Mailer
	Settings *services.SettingsProvider
}

// NewUserController creates a new UserController
func NewUserController(id identity.Provider, users *services.UserService, mailer services.Mailer, settings *services.SettingsProvider) *UserController {
	return &UserController{Identity: id, Users: users, Mailer: mailer, Settings: settings}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Identity.Register(ctx, creds.Email, creds.Password, creds.DisplayName)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, user.Public())
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	session, err := uc.Identity.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	public := session.User.Public()
	session.User = &public
	utils.RespondJSON(w, http.StatusOK, session)
}

// RequestPasswordReset emails a password reset link
func (uc *UserController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	link, err := uc.Identity.PasswordResetLink(ctx, body.Email)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	snap := uc.Settings.Current()
	subject, html := utils.PasswordResetEmail(snap.Store.StoreName, link)
	msg := utils.Message{To: body.Email, Subject: subject, HTML: html, FromName: snap.Email.FromName, FromEmail: snap.Email.FromEmail}
	if err := uc.Mailer.SendEmail(ctx, msg); err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent. Please check your inbox."})
}

// ConfirmPasswordReset sets a new password with a reset token (local auth)
func (uc *UserController) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	local, ok := uc.Identity.(*identity.Local)
	if !ok {
		respondErr(w, r, identity.ErrUnsupported)
		return
	}
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := local.ResetPassword(ctx, body.Token, body.Password); err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Password updated. You can now log in."})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.Ensure(ctx, p.UID, p.Email, p.Name)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user.Public())
}

// UpdateProfile changes the display name
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		DisplayName string `json:"displayName"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Identity.UpdateDisplayName(ctx, p.UID, body.DisplayName)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user.Public())
}

// ListUsers returns all profiles (Admin only)
func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	users, err := uc.Users.List(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

// SetRole changes a user's role (Admin only)
func (uc *UserController) SetRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	user, err := uc.Users.SetRole(ctx, mux.Vars(r)["id"], body.Role)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, user.Public())
}
