package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
	"go-phonestore/store"
)

func TestSettingsDefaultsAndRefresh(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	p := NewSettingsProvider(s)
	assert.Equal(t, DefaultStoreSettings(), p.Current().Store)

	snap, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Phone Store", snap.Store.StoreName)
	assert.True(t, snap.Email.OrderConfirmation)

	custom := DefaultStoreSettings()
	custom.StoreName = "Refurb Hub"
	custom.Version = 3
	require.NoError(t, s.Set(ctx, settingsCollection, storeSettingsID, custom))

	snap, err = p.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Refurb Hub", snap.Store.StoreName)
	assert.Equal(t, int64(3), p.Current().Store.Version)
}

func TestUpdateStoreSettingsVersioning(t *testing.T) {
	ctx := context.Background()
	p := NewSettingsProvider(store.NewMemory())

	next := DefaultStoreSettings()
	next.TaxRate = 8.25
	snap, err := p.UpdateStore(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Store.Version)
	assert.Equal(t, 8.25, p.Current().Store.TaxRate)

	// a second writer still holding version 0 loses
	stale := DefaultStoreSettings()
	stale.TaxRate = 5
	_, err = p.UpdateStore(ctx, stale)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, 8.25, p.Current().Store.TaxRate)

	stale.Version = 1
	snap, err = p.UpdateStore(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Store.Version)

	bad := p.Current().Store
	bad.TaxRate = 101
	_, err = p.UpdateStore(ctx, bad)
	assert.True(t, errors.Is(err, ErrInvalid))
	bad.TaxRate = 0
	bad.ShippingFee = -1
	_, err = p.UpdateStore(ctx, bad)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestUpdateEmailSettings(t *testing.T) {
	ctx := context.Background()
	p := NewSettingsProvider(store.NewMemory())

	e := DefaultEmailSettings()
	e.AdminNotifyEmail = "ops@example.com"
	snap, err := p.UpdateEmail(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", snap.Email.AdminNotifyEmail)
	assert.Equal(t, DefaultStoreSettings().StoreName, snap.Store.StoreName, "store half is untouched")

	_, err = p.UpdateEmail(ctx, models.EmailSettings{Version: 7})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestSettingsUpdateSurvivesTransactionRetry(t *testing.T) {
	ctx := context.Background()
	p := NewSettingsProvider(retryingStore{store.NewMemory()})

	next := DefaultStoreSettings()
	next.ShippingFee = 4.5
	snap, err := p.UpdateStore(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Store.Version)
	assert.Equal(t, int64(0), next.Version, "caller's value is not modified")

	e := DefaultEmailSettings()
	e.FromName = "Phone Store"
	snap, err = p.UpdateEmail(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Email.Version)

	next.Version = 1
	snap, err = p.UpdateStore(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Store.Version)
}
