package models

import "time"

// StoreSettings is the singleton settings/store document
type StoreSettings struct {
	StoreName             string    `json:"storeName" firestore:"storeName" bson:"storeName"`
	ContactEmail          string    `json:"contactEmail" firestore:"contactEmail" bson:"contactEmail"`
	ContactPhone          string    `json:"contactPhone" firestore:"contactPhone" bson:"contactPhone"`
	Currency              string    `json:"currency" firestore:"currency" bson:"currency"`
	TaxRate               float64   `json:"taxRate" firestore:"taxRate" bson:"taxRate"` // percent
	ShippingFee           float64   `json:"shippingFee" firestore:"shippingFee" bson:"shippingFee"`
	FreeShippingThreshold float64   `json:"freeShippingThreshold" firestore:"freeShippingThreshold" bson:"freeShippingThreshold"`
	LowStockThreshold     int       `json:"lowStockThreshold" firestore:"lowStockThreshold" bson:"lowStockThreshold"`
	MaintenanceMode       bool      `json:"maintenanceMode" firestore:"maintenanceMode" bson:"maintenanceMode"`
	Version               int64     `json:"version" firestore:"version" bson:"version"`
	UpdatedAt             time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// EmailSettings is the singleton settings/email document
type EmailSettings struct {
	FromName          string    `json:"fromName" firestore:"fromName" bson:"fromName"`
	FromEmail         string    `json:"fromEmail" firestore:"fromEmail" bson:"fromEmail"`
	OrderConfirmation bool      `json:"orderConfirmation" firestore:"orderConfirmation" bson:"orderConfirmation"`
	StatusUpdates     bool      `json:"statusUpdates" firestore:"statusUpdates" bson:"statusUpdates"`
	AdminNotifyEmail  string    `json:"adminNotifyEmail,omitempty" firestore:"adminNotifyEmail,omitempty" bson:"adminNotifyEmail,omitempty"`
	Version           int64     `json:"version" firestore:"version" bson:"version"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
