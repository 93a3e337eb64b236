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

func TestCart(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s,
		models.Product{ID: "phone", Name: "Pixel", Price: 100, Discount: 10, CreatedAt: baseTime},
		models.Product{ID: "case", Name: "Case", Price: 19.99, CreatedAt: baseTime},
	)
	cs := NewCartService(s, NewProductService(s))

	cart, err := cs.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = cs.AddItem(ctx, "u1", "phone", 1)
	require.NoError(t, err)
	_, err = cs.AddItem(ctx, "u1", "case", 2)
	require.NoError(t, err)
	cart, err = cs.AddItem(ctx, "u1", "phone", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = cs.AddItem(ctx, "u1", "ghost", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = cs.AddItem(ctx, "u1", "case", 0)
	assert.True(t, errors.Is(err, ErrInvalid))

	view, err := cs.View(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 270.0, view.Items[0].LineTotal)
	assert.Equal(t, 309.98, view.Subtotal)

	cart, err = cs.SetQuantity(ctx, "u1", "case", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[1].Quantity)

	_, err = cs.SetQuantity(ctx, "u1", "ghost", 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	cart, err = cs.RemoveItem(ctx, "u1", "phone")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	// products deleted after being carted are reported, not fatal
	require.NoError(t, s.Delete(ctx, productsCollection, "case"))
	view, err = cs.View(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, []string{"case"}, view.Missing)

	require.NoError(t, cs.Clear(ctx, "u1"))
	cart, err = cs.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
