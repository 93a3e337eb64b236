package models

import "time"

// PaymentMethod is a saved card of a user. Only the last four digits of the
// card number are ever stored.
type PaymentMethod struct {
	ID          string    `json:"id" firestore:"-" bson:"-"`
	Type        string    `json:"type" firestore:"type" bson:"type"` // "card"
	Brand       string    `json:"brand" firestore:"brand" bson:"brand"`
	Last4       string    `json:"last4" firestore:"last4" bson:"last4"`
	ExpiryMonth int       `json:"expiryMonth" firestore:"expiryMonth" bson:"expiryMonth"`
	ExpiryYear  int       `json:"expiryYear" firestore:"expiryYear" bson:"expiryYear"`
	HolderName  string    `json:"holderName" firestore:"holderName" bson:"holderName"`
	IsDefault   bool      `json:"isDefault" firestore:"isDefault" bson:"isDefault"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
