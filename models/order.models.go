package models

import "time"

// Order statuses
const (
	OrderPending    = "Pending"
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"
)

// OrderStatuses lists the accepted order statuses
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// ValidOrderStatus reports whether s is one of OrderStatuses
func ValidOrderStatus(s string) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a cart line taken at purchase time
type OrderItem struct {
	ProductID string  `json:"productId" firestore:"productId" bson:"productId"`
	Name      string  `json:"name" firestore:"name" bson:"name"`
	Price     float64 `json:"price" firestore:"price" bson:"price"`
	Quantity  int     `json:"quantity" firestore:"quantity" bson:"quantity"`
	Image     string  `json:"image" firestore:"image" bson:"image"`
}

// ShippingInfo is the delivery address copied into the order
type ShippingInfo struct {
	FullName   string `json:"fullName" firestore:"fullName" bson:"fullName"`
	Street     string `json:"street" firestore:"street" bson:"street"`
	City       string `json:"city" firestore:"city" bson:"city"`
	State      string `json:"state" firestore:"state" bson:"state"`
	PostalCode string `json:"postalCode" firestore:"postalCode" bson:"postalCode"`
	Country    string `json:"country" firestore:"country" bson:"country"`
	Phone      string `json:"phone,omitempty" firestore:"phone,omitempty" bson:"phone,omitempty"`
}

// PaymentInfo summarizes how the order was paid
type PaymentInfo struct {
	Method string `json:"method" firestore:"method" bson:"method"` // "card", "cash_on_delivery"
	Brand  string `json:"brand,omitempty" firestore:"brand,omitempty" bson:"brand,omitempty"`
	Last4  string `json:"last4,omitempty" firestore:"last4,omitempty" bson:"last4,omitempty"`
}

// Order represents a user's order
type Order struct {
	ID          string       `json:"id" firestore:"-" bson:"-"`
	UserID      string       `json:"userId" firestore:"userId" bson:"userId"`
	Email       string       `json:"email,omitempty" firestore:"email,omitempty" bson:"email,omitempty"`
	Items       []OrderItem  `json:"items" firestore:"items" bson:"items"`
	Shipping    ShippingInfo `json:"shipping" firestore:"shipping" bson:"shipping"`
	Payment     PaymentInfo  `json:"payment" firestore:"payment" bson:"payment"`
	Subtotal    float64      `json:"subtotal" firestore:"subtotal" bson:"subtotal"`
	ShippingFee float64      `json:"shippingFee" firestore:"shippingFee" bson:"shippingFee"`
	Tax         float64      `json:"tax" firestore:"tax" bson:"tax"`
	Total       float64      `json:"total" firestore:"total" bson:"total"`
	Status      string       `json:"status" firestore:"status" bson:"status"`
	OrderNumber string       `json:"orderNumber" firestore:"orderNumber" bson:"orderNumber"`
	CreatedAt   time.Time    `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}
