package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

// PaymentMethodInput is what a client submits when saving a card. The card
// number is only used to derive Last4 and Brand.
type PaymentMethodInput struct {
	CardNumber  string `json:"cardNumber"`
	Last4       string `json:"last4"`
	Brand       string `json:"brand"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	HolderName  string `json:"holderName"`
	IsDefault   bool   `json:"isDefault"`
}

// PaymentMethodService manages saved cards in users/{uid}/paymentMethods
type PaymentMethodService struct {
	Store store.Store
	now   func() time.Time
}

// NewPaymentMethodService creates a PaymentMethodService
func NewPaymentMethodService(s store.Store) *PaymentMethodService {
	return &PaymentMethodService{Store: s, now: time.Now}
}

func paymentMethodsCollection(uid string) string {
	return "users/" + uid + "/paymentMethods"
}

func setPaymentMethodID(p *models.PaymentMethod, id string) { p.ID = id }

func (ps *PaymentMethodService) set(uid string) defaultSet {
	return defaultSet{store: ps.Store, collection: paymentMethodsCollection(uid)}
}

// List returns the user's payment methods, default first
func (ps *PaymentMethodService) List(ctx context.Context, uid string) []models.PaymentMethod {
	methods, err := store.All(ctx, ps.Store, paymentMethodsCollection(uid), store.Query{}, setPaymentMethodID)
	if err != nil {
		slog.ErrorContext(ctx, "list payment methods failed", "user", uid, "error", err)
		return []models.PaymentMethod{}
	}
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].IsDefault != methods[j].IsDefault {
			return methods[i].IsDefault
		}
		return methods[i].CreatedAt.After(methods[j].CreatedAt)
	})
	return methods
}

// Get returns one payment method of the user
func (ps *PaymentMethodService) Get(ctx context.Context, uid, id string) (*models.PaymentMethod, error) {
	doc, err := ps.Store.Get(ctx, paymentMethodsCollection(uid), id)
	if err != nil {
		return nil, notFound(err, "payment method "+id)
	}
	var m models.PaymentMethod
	if err := doc.DataTo(&m); err != nil {
		return nil, err
	}
	m.ID = doc.ID
	return &m, nil
}

// Add saves a card. The first card of a user becomes the default.
func (ps *PaymentMethodService) Add(ctx context.Context, uid string, in PaymentMethodInput) (*models.PaymentMethod, error) {
	m, err := ps.fromInput(in)
	if err != nil {
		return nil, err
	}
	id, err := ps.set(uid).add(ctx, in.IsDefault, func(_ string, isDefault bool) any {
		m.IsDefault = isDefault
		return m
	})
	if err != nil {
		return nil, fmt.Errorf("add payment method: %w", err)
	}
	m.ID = id
	return &m, nil
}

// Update changes expiry and holder name of a saved card
func (ps *PaymentMethodService) Update(ctx context.Context, uid, id string, in PaymentMethodInput) (*models.PaymentMethod, error) {
	col := paymentMethodsCollection(uid)
	var updated models.PaymentMethod
	err := ps.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(col, id)
		if err != nil {
			return notFound(err, "payment method "+id)
		}
		if err := doc.DataTo(&updated); err != nil {
			return err
		}
		if in.ExpiryMonth != 0 || in.ExpiryYear != 0 {
			if err := ps.checkExpiry(in.ExpiryMonth, in.ExpiryYear); err != nil {
				return err
			}
			updated.ExpiryMonth, updated.ExpiryYear = in.ExpiryMonth, in.ExpiryYear
		}
		if name := strings.TrimSpace(in.HolderName); name != "" {
			updated.HolderName = name
		}
		updated.UpdatedAt = ps.now().UTC()
		return tx.Set(col, id, updated)
	})
	if err != nil {
		return nil, err
	}
	updated.ID = id
	return &updated, nil
}

// SetDefault makes the card the user's only default
func (ps *PaymentMethodService) SetDefault(ctx context.Context, uid, id string) error {
	return ps.set(uid).setDefault(ctx, id)
}

// Delete removes the card. No other card is promoted to default.
func (ps *PaymentMethodService) Delete(ctx context.Context, uid, id string) error {
	if _, err := ps.Get(ctx, uid, id); err != nil {
		return err
	}
	return ps.Store.Delete(ctx, paymentMethodsCollection(uid), id)
}

func (ps *PaymentMethodService) fromInput(in PaymentMethodInput) (models.PaymentMethod, error) {
	m := models.PaymentMethod{
		Type:        "card",
		Brand:       strings.TrimSpace(in.Brand),
		Last4:       in.Last4,
		ExpiryMonth: in.ExpiryMonth,
		ExpiryYear:  in.ExpiryYear,
		HolderName:  strings.TrimSpace(in.HolderName),
		CreatedAt:   ps.now().UTC(),
	}
	if in.CardNumber != "" {
		digits := onlyDigits(in.CardNumber)
		if len(digits) < 12 || len(digits) > 19 {
			return m, invalid("card number must have 12 to 19 digits")
		}
		m.Last4 = digits[len(digits)-4:]
		if m.Brand == "" {
			m.Brand = CardBrand(digits)
		}
	}
	if len(m.Last4) != 4 || onlyDigits(m.Last4) != m.Last4 {
		return m, invalid("last4 must be four digits")
	}
	if m.HolderName == "" {
		return m, invalid("holderName is required")
	}
	if err := ps.checkExpiry(m.ExpiryMonth, m.ExpiryYear); err != nil {
		return m, err
	}
	return m, nil
}

func (ps *PaymentMethodService) checkExpiry(month, year int) error {
	if month < 1 || month > 12 {
		return invalid("expiryMonth must be between 1 and 12")
	}
	now := ps.now()
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return invalid("card is expired")
	}
	return nil
}

// CardBrand guesses the card network from the number prefix
func CardBrand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "4"):
		return "Visa"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "Amex"
	case strings.HasPrefix(digits, "6011"), strings.HasPrefix(digits, "65"):
		return "Discover"
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return "Mastercard"
	case len(digits) >= 4 && digits[:4] >= "2221" && digits[:4] <= "2720":
		return "Mastercard"
	}
	return "Card"
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
