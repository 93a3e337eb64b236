package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
	"go-phonestore/store"
)

func seedShop(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	putProducts(t, s, tenPhones()...)
	catalogs := NewCatalogServices(s)
	_, err := catalogs["brands"].Add(ctx, models.CatalogItem{Name: "Apple"})
	require.NoError(t, err)
	_, err = NewAddressService(s).Add(ctx, "u1", homeAddress("Ann"))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, cartsCollection, "u1", models.Cart{Items: []models.CartItem{{ProductID: "p1", Quantity: 2}}}))
}

func TestBackupRoundTripPreservingIDs(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	seedShop(t, s)
	bs := NewBackupService(s)

	before, err := bs.Export(ctx, nil)
	require.NoError(t, err)
	require.Len(t, before["products"], 10)

	// the backup travels as JSON
	raw, err := json.Marshal(before)
	require.NoError(t, err)
	var file Backup
	require.NoError(t, json.Unmarshal(raw, &file))

	res, err := bs.Import(ctx, file, ImportOptions{PreserveIDs: true, Clear: true})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Deleted["products"])
	assert.Equal(t, 10, res.Imported["products"])

	after, err := bs.Export(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBackupImportWithoutPreservingIDs(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemory()
	seedShop(t, src)
	backup, err := NewBackupService(src).Export(ctx, []string{"products", "carts"})
	require.NoError(t, err)
	assert.Len(t, backup, 2)

	dst := store.NewMemory()
	bs := NewBackupService(dst)
	_, err = bs.Import(ctx, backup, ImportOptions{})
	require.NoError(t, err)

	docs, err := dst.Find(ctx, "products", store.Query{})
	require.NoError(t, err)
	require.Len(t, docs, 10)
	for _, d := range docs {
		assert.NotRegexp(t, `^p\d$`, d.ID, "products get new ids")
	}
	_, err = dst.Get(ctx, cartsCollection, "u1")
	assert.NoError(t, err, "carts keep the user id as key")

	// importing twice without ids duplicates documents
	_, err = bs.Import(ctx, backup, ImportOptions{})
	require.NoError(t, err)
	docs, err = dst.Find(ctx, "products", store.Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}

func TestBackupRejectsUnknownCollections(t *testing.T) {
	ctx := context.Background()
	bs := NewBackupService(store.NewMemory())

	_, err := bs.Export(ctx, []string{"products", "secrets"})
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = bs.Import(ctx, Backup{"secrets": {}}, ImportOptions{})
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = bs.DeleteCollection(ctx, "secrets")
	assert.True(t, errors.Is(err, ErrInvalid))

	n, err := bs.DeleteCollection(ctx, "orders")
	require.NoError(t, err)
	assert.Zero(t, n)
}
