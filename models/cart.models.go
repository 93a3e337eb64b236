package models

import "time"

// CartItem represents an item in the cart
type CartItem struct {
	ProductID string `json:"productId" firestore:"productId" bson:"productId"`
	Quantity  int    `json:"quantity" firestore:"quantity" bson:"quantity"`
}

// Cart represents a user's shopping cart, stored under the user's id
type Cart struct {
	UserID    string     `json:"userId" firestore:"-" bson:"-"`
	Items     []CartItem `json:"items" firestore:"items" bson:"items"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
