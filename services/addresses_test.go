package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
	"go-phonestore/store"
)

func homeAddress(name string) models.Address {
	return models.Address{FullName: name, Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}
}

func countDefaults(addrs []models.Address) int {
	n := 0
	for _, a := range addrs {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestAddressDefaults(t *testing.T) {
	ctx := context.Background()
	as := NewAddressService(store.NewMemory())

	first, err := as.Add(ctx, "u1", homeAddress("Ann"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address becomes the default")

	second, err := as.Add(ctx, "u1", homeAddress("Ann at work"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	third := homeAddress("Ann at the lake")
	third.IsDefault = true
	created, err := as.Add(ctx, "u1", third)
	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	list := as.List(ctx, "u1")
	require.Len(t, list, 3)
	assert.Equal(t, 1, countDefaults(list))
	assert.Equal(t, created.ID, list[0].ID, "default is listed first")

	require.NoError(t, as.SetDefault(ctx, "u1", first.ID))
	def, err := as.GetDefault(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	// other users cannot see or touch the address
	assert.True(t, errors.Is(as.SetDefault(ctx, "u2", first.ID), ErrNotFound))
	_, err = as.Get(ctx, "u2", first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, as.List(ctx, "u2"))

	_, err = as.Add(ctx, "u1", models.Address{FullName: "No street"})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestAddressUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	as := NewAddressService(store.NewMemory())
	a, err := as.Add(ctx, "u1", homeAddress("Ann"))
	require.NoError(t, err)

	updated, err := as.Update(ctx, "u1", a.ID, map[string]any{"city": "Shelbyville", "isDefault": false, "userId": "u2"})
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", updated.City)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, "u1", updated.UserID)

	_, err = as.Update(ctx, "u1", a.ID, map[string]any{"street": ""})
	assert.True(t, errors.Is(err, ErrInvalid))

	require.NoError(t, as.Delete(ctx, "u1", a.ID))
	_, err = as.GetDefault(ctx, "u1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConcurrentSetDefaultLeavesOneDefault(t *testing.T) {
	ctx := context.Background()
	as := NewAddressService(store.NewMemory())
	var ids []string
	for i := 0; i < 8; i++ {
		a, err := as.Add(ctx, "u1", homeAddress("Ann"))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	var wg sync.WaitGroup
	for round := 0; round < 5; round++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				assert.NoError(t, as.SetDefault(ctx, "u1", id))
			}(id)
		}
	}
	wg.Wait()

	assert.Equal(t, 1, countDefaults(as.List(ctx, "u1")))
}

func TestPaymentMethods(t *testing.T) {
	ctx := context.Background()
	ps := NewPaymentMethodService(store.NewMemory())
	ps.now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }

	visa, err := ps.Add(ctx, "u1", PaymentMethodInput{CardNumber: "4111 1111 1111 1111", ExpiryMonth: 6, ExpiryYear: 2026, HolderName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "1111", visa.Last4)
	assert.Equal(t, "Visa", visa.Brand)
	assert.True(t, visa.IsDefault)

	mc, err := ps.Add(ctx, "u1", PaymentMethodInput{CardNumber: "5555-5555-5555-4444", ExpiryMonth: 1, ExpiryYear: 2030, HolderName: "Ann", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "Mastercard", mc.Brand)

	list := ps.List(ctx, "u1")
	require.Len(t, list, 2)
	defaults := 0
	for _, m := range list {
		if m.IsDefault {
			defaults++
			assert.Equal(t, mc.ID, m.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	_, err = ps.Add(ctx, "u1", PaymentMethodInput{CardNumber: "4111111111111111", ExpiryMonth: 5, ExpiryYear: 2026, HolderName: "Ann"})
	assert.True(t, errors.Is(err, ErrInvalid), "expired")
	_, err = ps.Add(ctx, "u1", PaymentMethodInput{CardNumber: "4111", ExpiryMonth: 5, ExpiryYear: 2027, HolderName: "Ann"})
	assert.True(t, errors.Is(err, ErrInvalid), "too short")
	_, err = ps.Add(ctx, "u1", PaymentMethodInput{Last4: "12a4", ExpiryMonth: 5, ExpiryYear: 2027, HolderName: "Ann"})
	assert.True(t, errors.Is(err, ErrInvalid), "bad last4")

	updated, err := ps.Update(ctx, "u1", visa.ID, PaymentMethodInput{ExpiryMonth: 12, ExpiryYear: 2028, HolderName: "Ann B"})
	require.NoError(t, err)
	assert.Equal(t, 2028, updated.ExpiryYear)
	assert.Equal(t, "1111", updated.Last4)

	require.NoError(t, ps.Delete(ctx, "u1", visa.ID))
	_, err = ps.Get(ctx, "u1", visa.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCardBrand(t *testing.T) {
	assert.Equal(t, "Visa", CardBrand("4242424242424242"))
	assert.Equal(t, "Amex", CardBrand("378282246310005"))
	assert.Equal(t, "Discover", CardBrand("6011111111111117"))
	assert.Equal(t, "Mastercard", CardBrand("2223003122003222"))
	assert.Equal(t, "Card", CardBrand("9999999999999999"))
}
