package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

const usersCollection = "users"

// UserService manages user profiles in users/{uid}
type UserService struct {
	Store store.Store
}

// NewUserService creates a UserService
func NewUserService(s store.Store) *UserService {
	return &UserService{Store: s}
}

func setUserID(u *models.User, id string) { u.ID = id }

// Get returns the profile of uid
func (us *UserService) Get(ctx context.Context, uid string) (*models.User, error) {
	doc, err := us.Store.Get(ctx, usersCollection, uid)
	if err != nil {
		return nil, notFound(err, "user "+uid)
	}
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, err
	}
	u.ID = doc.ID
	return &u, nil
}

// FindByEmail looks a profile up by its email address
func (us *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := store.Query{Limit: 1}.Where("email", store.OpEqual, NormalizeEmail(email))
	users, err := store.All(ctx, us.Store, usersCollection, q, setUserID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return &users[0], nil
}

// Create stores a new profile. An empty uid generates one.
func (us *UserService) Create(ctx context.Context, uid string, u models.User) (*models.User, error) {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, invalid("email is required")
	}
	if _, err := us.FindByEmail(ctx, u.Email); err == nil {
		return nil, conflict("email %s is already registered", u.Email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if u.Role == "" {
		u.Role = models.RoleCustomer
	}
	u.CreatedAt = time.Now().UTC()
	id, err := us.Store.Create(ctx, usersCollection, uid, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, conflict("user %s already exists", uid)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return &u, nil
}

// Ensure returns the profile of uid, creating a customer profile on first use
func (us *UserService) Ensure(ctx context.Context, uid, email, displayName string) (*models.User, error) {
	u, err := us.Get(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	nu := models.User{Email: NormalizeEmail(email), DisplayName: displayName, Role: models.RoleCustomer, CreatedAt: time.Now().UTC()}
	if _, err := us.Store.Create(ctx, usersCollection, uid, nu); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return us.Get(ctx, uid)
}

// UpdateProfile changes the display name
func (us *UserService) UpdateProfile(ctx context.Context, uid, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, invalid("displayName is required")
	}
	err := us.Store.Update(ctx, usersCollection, uid, map[string]any{
		"displayName": displayName,
		"updatedAt":   time.Now().UTC(),
	})
	if err != nil {
		return nil, notFound(err, "user "+uid)
	}
	return us.Get(ctx, uid)
}

// SetRole changes the role of a user
func (us *UserService) SetRole(ctx context.Context, uid, role string) (*models.User, error) {
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, invalid("unknown role %q", role)
	}
	err := us.Store.Update(ctx, usersCollection, uid, map[string]any{"role": role, "updatedAt": time.Now().UTC()})
	if err != nil {
		return nil, notFound(err, "user "+uid)
	}
	return us.Get(ctx, uid)
}

// SetPasswordHash replaces the stored password hash
func (us *UserService) SetPasswordHash(ctx context.Context, uid, hash string) error {
	err := us.Store.Update(ctx, usersCollection, uid, map[string]any{"passwordHash": hash, "updatedAt": time.Now().UTC()})
	return notFound(err, "user "+uid)
}

// List returns all profiles ordered by creation
func (us *UserService) List(ctx context.Context) ([]models.User, error) {
	return store.All(ctx, us.Store, usersCollection, store.Query{OrderBy: "createdAt", Direction: store.Desc}, setUserID)
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
