package models

import (
	"math"
	"time"
)

// PlaceholderImage is served for products that have no image of their own
const PlaceholderImage = "/placeholder.svg"

// Product represents a phone or accessory listed in the store.
// Condition, Storage, Carrier and Color hold catalog entry names, BrandID and
// CategoryIDs hold catalog entry ids.
type Product struct {
	ID               string    `json:"id" firestore:"-" bson:"-"`
	Name             string    `json:"name" firestore:"name" bson:"name"`
	Description      string    `json:"description" firestore:"description" bson:"description"`
	Price            float64   `json:"price" firestore:"price" bson:"price"`
	Inventory        int       `json:"inventory" firestore:"inventory" bson:"inventory"`
	Brand            string    `json:"brand" firestore:"brand" bson:"brand"`
	BrandID          string    `json:"brandId" firestore:"brandId" bson:"brandId"`
	Model            string    `json:"model" firestore:"model" bson:"model"`
	Storage          string    `json:"storage" firestore:"storage" bson:"storage"`
	Condition        string    `json:"condition" firestore:"condition" bson:"condition"`
	Carrier          string    `json:"carrier" firestore:"carrier" bson:"carrier"`
	Color            string    `json:"color" firestore:"color" bson:"color"`
	IMEINumber       string    `json:"imeiNumber,omitempty" firestore:"imeiNumber,omitempty" bson:"imeiNumber,omitempty"`
	BatteryHealth    int       `json:"batteryHealth,omitempty" firestore:"batteryHealth,omitempty" bson:"batteryHealth,omitempty"`
	Accessories      []string  `json:"accessories" firestore:"accessories" bson:"accessories"`
	CategoryIDs      []string  `json:"categoryIds" firestore:"categoryIds" bson:"categoryIds"`
	Image            string    `json:"image" firestore:"image" bson:"image"`
	AdditionalImages []string  `json:"additionalImages" firestore:"additionalImages" bson:"additionalImages"`
	Rating           float64   `json:"rating" firestore:"rating" bson:"rating"`
	Featured         bool      `json:"featured" firestore:"featured" bson:"featured"`
	Features         []string  `json:"features" firestore:"features" bson:"features"`
	Discount         float64   `json:"discount" firestore:"discount" bson:"discount"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// DisplayImage returns the image to render for the product
func (p Product) DisplayImage() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}

// SalePrice is the price after the percentage discount, rounded to cents
func (p Product) SalePrice() float64 {
	if p.Discount <= 0 {
		return p.Price
	}
	return RoundCents(p.Price * (100 - p.Discount) / 100)
}

// ForDisplay fills the render-time defaults so clients never see empty
// images or null lists.
func (p Product) ForDisplay() Product {
	p.Image = p.DisplayImage()
	if p.Accessories == nil {
		p.Accessories = []string{}
	}
	if p.CategoryIDs == nil {
		p.CategoryIDs = []string{}
	}
	if p.AdditionalImages == nil {
		p.AdditionalImages = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return p
}

// RoundCents rounds an amount to two decimals
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
