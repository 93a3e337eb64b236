package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

const addressesCollection = "addresses"

// AddressService manages saved delivery addresses. Addresses live in one
// collection and are owned through their userId field.
type AddressService struct {
	Store store.Store
}

// NewAddressService creates an AddressService
func NewAddressService(s store.Store) *AddressService {
	return &AddressService{Store: s}
}

func setAddressID(a *models.Address, id string) { a.ID = id }

func (as *AddressService) set(uid string) defaultSet {
	return defaultSet{
		store:      as.Store,
		collection: addressesCollection,
		query:      store.Query{}.Where("userId", store.OpEqual, uid),
	}
}

// List returns the user's addresses, default first, then newest first
func (as *AddressService) List(ctx context.Context, uid string) []models.Address {
	q := store.Query{}.Where("userId", store.OpEqual, uid)
	addrs, err := store.All(ctx, as.Store, addressesCollection, q, setAddressID)
	if err != nil {
		slog.ErrorContext(ctx, "list addresses failed", "user", uid, "error", err)
		return []models.Address{}
	}
	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].IsDefault != addrs[j].IsDefault {
			return addrs[i].IsDefault
		}
		return addrs[i].CreatedAt.After(addrs[j].CreatedAt)
	})
	return addrs
}

// Get returns an address owned by uid
func (as *AddressService) Get(ctx context.Context, uid, id string) (*models.Address, error) {
	doc, err := as.Store.Get(ctx, addressesCollection, id)
	if err != nil {
		return nil, notFound(err, "address "+id)
	}
	var a models.Address
	if err := doc.DataTo(&a); err != nil {
		return nil, err
	}
	if a.UserID != uid {
		return nil, fmt.Errorf("address %s: %w", id, ErrNotFound)
	}
	a.ID = doc.ID
	return &a, nil
}

// GetDefault returns the user's default address
func (as *AddressService) GetDefault(ctx context.Context, uid string) (*models.Address, error) {
	for _, a := range as.List(ctx, uid) {
		if a.IsDefault {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("default address: %w", ErrNotFound)
}

// Add stores a new address. The first address of a user becomes the default.
func (as *AddressService) Add(ctx context.Context, uid string, a models.Address) (*models.Address, error) {
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.UserID = uid
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = time.Time{}
	id, err := as.set(uid).add(ctx, a.IsDefault, func(_ string, isDefault bool) any {
		a.IsDefault = isDefault
		return a
	})
	if err != nil {
		return nil, fmt.Errorf("add address: %w", err)
	}
	a.ID = id
	return &a, nil
}

// Update merges fields into the address. The default flag is changed with
// SetDefault only.
func (as *AddressService) Update(ctx context.Context, uid, id string, fields map[string]any) (*models.Address, error) {
	for _, k := range []string{"id", "userId", "isDefault", "createdAt"} {
		delete(fields, k)
	}
	var updated models.Address
	err := as.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(addressesCollection, id)
		if err != nil {
			return notFound(err, "address "+id)
		}
		if err := doc.DataTo(&updated); err != nil {
			return err
		}
		if updated.UserID != uid {
			return fmt.Errorf("address %s: %w", id, ErrNotFound)
		}
		b, err := json.Marshal(fields)
		if err != nil {
			return invalid("bad fields: %v", err)
		}
		if err := json.Unmarshal(b, &updated); err != nil {
			return invalid("bad fields: %v", err)
		}
		if err := validateAddress(updated); err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(addressesCollection, id, updated)
	})
	if err != nil {
		return nil, err
	}
	updated.ID = id
	return &updated, nil
}

// SetDefault makes the address the user's only default
func (as *AddressService) SetDefault(ctx context.Context, uid, id string) error {
	return as.set(uid).setDefault(ctx, id)
}

// Delete removes the address. No other address is promoted to default.
func (as *AddressService) Delete(ctx context.Context, uid, id string) error {
	if _, err := as.Get(ctx, uid, id); err != nil {
		return err
	}
	return as.Store.Delete(ctx, addressesCollection, id)
}

func validateAddress(a models.Address) error {
	for field, v := range map[string]string{
		"fullName":   a.FullName,
		"street":     a.Street,
		"city":       a.City,
		"postalCode": a.PostalCode,
		"country":    a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return invalid("%s is required", field)
		}
	}
	return nil
}
