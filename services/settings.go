package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

const (
	settingsCollection = "settings"
	storeSettingsID    = "store"
	emailSettingsID    = "email"
)

// DefaultStoreSettings are served until settings/store is written
func DefaultStoreSettings() models.StoreSettings {
	return models.StoreSettings{
		StoreName:             "Phone Store",
		Currency:              "USD",
		TaxRate:               0,
		ShippingFee:           9.99,
		FreeShippingThreshold: 100,
		LowStockThreshold:     5,
	}
}

// DefaultEmailSettings are served until settings/email is written
func DefaultEmailSettings() models.EmailSettings {
	return models.EmailSettings{
		FromName:          "Phone Store",
		OrderConfirmation: true,
		StatusUpdates:     true,
	}
}

// Snapshot is an immutable view of the settings documents
type Snapshot struct {
	Store    models.StoreSettings `json:"store"`
	Email    models.EmailSettings `json:"email"`
	LoadedAt time.Time            `json:"loadedAt"`
}

// SettingsProvider serves the current settings snapshot and writes updates
// with optimistic versioning. Readers never block.
type SettingsProvider struct {
	Store store.Store

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes publishing
}

// NewSettingsProvider creates a provider holding the defaults. Call Refresh
// to load the stored documents.
func NewSettingsProvider(s store.Store) *SettingsProvider {
	p := &SettingsProvider{Store: s}
	p.current.Store(&Snapshot{
		Store:    DefaultStoreSettings(),
		Email:    DefaultEmailSettings(),
		LoadedAt: time.Now().UTC(),
	})
	return p
}

// Current returns the latest snapshot
func (p *SettingsProvider) Current() *Snapshot {
	return p.current.Load()
}

// Refresh reloads both documents. On failure the previous snapshot stays.
func (p *SettingsProvider) Refresh(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Store: DefaultStoreSettings(), Email: DefaultEmailSettings()}
	if err := p.load(ctx, storeSettingsID, &snap.Store); err != nil {
		return nil, fmt.Errorf("load store settings: %w", err)
	}
	if err := p.load(ctx, emailSettingsID, &snap.Email); err != nil {
		return nil, fmt.Errorf("load email settings: %w", err)
	}
	snap.LoadedAt = time.Now().UTC()
	p.mu.Lock()
	p.current.Store(snap)
	p.mu.Unlock()
	return snap, nil
}

func (p *SettingsProvider) load(ctx context.Context, id string, dst any) error {
	doc, err := p.Store.Get(ctx, settingsCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return doc.DataTo(dst)
}

// UpdateStore writes store settings. s.Version must equal the stored
// version (0 before the first write), otherwise ErrConflict is returned.
func (p *SettingsProvider) UpdateStore(ctx context.Context, s models.StoreSettings) (*Snapshot, error) {
	if s.TaxRate < 0 || s.TaxRate > 100 {
		return nil, invalid("taxRate must be between 0 and 100")
	}
	if s.ShippingFee < 0 || s.FreeShippingThreshold < 0 || s.LowStockThreshold < 0 {
		return nil, invalid("fees and thresholds must not be negative")
	}
	var saved models.StoreSettings
	err := p.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var cur models.StoreSettings
		version, err := txVersion(tx, storeSettingsID, &cur, func() int64 { return cur.Version })
		if err != nil {
			return err
		}
		if s.Version != version {
			return conflict("store settings changed (version %d, got %d)", version, s.Version)
		}
		saved = s
		saved.Version = version + 1
		saved.UpdatedAt = time.Now().UTC()
		return tx.Set(settingsCollection, storeSettingsID, saved)
	})
	if err != nil {
		return nil, err
	}
	return p.publish(func(snap *Snapshot) { snap.Store = saved }), nil
}

// UpdateEmail writes email settings with the same version rule as UpdateStore
func (p *SettingsProvider) UpdateEmail(ctx context.Context, e models.EmailSettings) (*Snapshot, error) {
	var saved models.EmailSettings
	err := p.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var cur models.EmailSettings
		version, err := txVersion(tx, emailSettingsID, &cur, func() int64 { return cur.Version })
		if err != nil {
			return err
		}
		if e.Version != version {
			return conflict("email settings changed (version %d, got %d)", version, e.Version)
		}
		saved = e
		saved.Version = version + 1
		saved.UpdatedAt = time.Now().UTC()
		return tx.Set(settingsCollection, emailSettingsID, saved)
	})
	if err != nil {
		return nil, err
	}
	return p.publish(func(snap *Snapshot) { snap.Email = saved }), nil
}

// txVersion reads a settings document inside tx and returns its version,
// 0 when it does not exist.
func txVersion(tx store.Tx, id string, dst any, version func() int64) (int64, error) {
	doc, err := tx.Get(settingsCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := doc.DataTo(dst); err != nil {
		return 0, err
	}
	return version(), nil
}

func (p *SettingsProvider) publish(apply func(*Snapshot)) *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := *p.current.Load()
	apply(&next)
	next.LoadedAt = time.Now().UTC()
	p.current.Store(&next)
	return &next
}
