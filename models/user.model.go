package models

import "time"

// Roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Address represents a user's saved delivery address
type Address struct {
	ID         string    `json:"id" firestore:"-" bson:"-"`
	UserID     string    `json:"userId" firestore:"userId" bson:"userId"`
	FullName   string    `json:"fullName" firestore:"fullName" bson:"fullName"`
	Street     string    `json:"street" firestore:"street" bson:"street"`
	City       string    `json:"city" firestore:"city" bson:"city"`
	State      string    `json:"state" firestore:"state" bson:"state"`
	PostalCode string    `json:"postalCode" firestore:"postalCode" bson:"postalCode"`
	Country    string    `json:"country" firestore:"country" bson:"country"`
	Phone      string    `json:"phone,omitempty" firestore:"phone,omitempty" bson:"phone,omitempty"`
	IsDefault  bool      `json:"isDefault" firestore:"isDefault" bson:"isDefault"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// ShippingInfo copies the address into an order
func (a Address) ShippingInfo() ShippingInfo {
	return ShippingInfo{
		FullName:   a.FullName,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// User represents a user profile. PasswordHash is only set when the service
// authenticates users itself instead of delegating to Firebase.
type User struct {
	ID           string    `json:"id" firestore:"-" bson:"-"`
	Email        string    `json:"email" firestore:"email" bson:"email"`
	DisplayName  string    `json:"displayName" firestore:"displayName" bson:"displayName"`
	Role         string    `json:"role" firestore:"role" bson:"role"` // "customer" or "admin"
	PasswordHash string    `json:"passwordHash,omitempty" firestore:"passwordHash,omitempty" bson:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Public returns the profile without credentials, as sent to clients
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
