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

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Space Gray":       "space-gray",
		"  128 GB  ":       "128-gb",
		"AT&T":             "at-t",
		"Refurbished (A+)": "refurbished-a",
		"Crème Brûlée":     "crème-brûlée",
		"":                 "",
		"--Unlocked--":     "unlocked",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCatalogCRUD(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	colors := NewCatalogService(s, models.Colors)

	_, err := colors.Add(ctx, models.CatalogItem{Name: "   "})
	assert.True(t, errors.Is(err, ErrInvalid))

	for _, name := range []string{"Silver", "Black", "Midnight Blue"} {
		_, err := colors.Add(ctx, models.CatalogItem{Name: name})
		require.NoError(t, err)
	}
	items, err := colors.Find(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Black", items[0].Name)
	assert.Equal(t, "midnight-blue", items[1].Slug)

	updated, err := colors.Update(ctx, items[0].ID, map[string]any{"description": "Matte"})
	require.NoError(t, err)
	assert.Equal(t, "Matte", updated.Description)
	assert.Equal(t, "Black", updated.Name)
	assert.False(t, updated.UpdatedAt.IsZero())

	_, err = colors.Update(ctx, items[0].ID, map[string]any{"name": ""})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = colors.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalogDeleteRefusesReferencedEntries(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	catalogs := NewCatalogServices(s)

	brand, err := catalogs["brands"].Add(ctx, models.CatalogItem{Name: "Apple"})
	require.NoError(t, err)
	category, err := catalogs["categories"].Add(ctx, models.CatalogItem{Name: "Phones", Featured: true})
	require.NoError(t, err)
	color, err := catalogs["colors"].Add(ctx, models.CatalogItem{Name: "Black"})
	require.NoError(t, err)
	unused, err := catalogs["colors"].Add(ctx, models.CatalogItem{Name: "Gold"})
	require.NoError(t, err)

	putProducts(t, s, models.Product{
		ID: "p", Name: "iPhone", BrandID: brand.ID, CategoryIDs: []string{category.ID}, Color: "Black", CreatedAt: baseTime,
	})

	assert.True(t, errors.Is(catalogs["brands"].Delete(ctx, brand.ID), ErrConflict))
	assert.True(t, errors.Is(catalogs["categories"].Delete(ctx, category.ID), ErrConflict))
	assert.True(t, errors.Is(catalogs["colors"].Delete(ctx, color.ID), ErrConflict))
	assert.NoError(t, catalogs["colors"].Delete(ctx, unused.ID))
	assert.True(t, errors.Is(catalogs["colors"].Delete(ctx, unused.ID), ErrNotFound))

	featured := catalogs["categories"].ListFeatured(ctx)
	require.Len(t, featured, 1)
	assert.Equal(t, "Phones", featured[0].Name)
}

func TestCatalogRenameRewritesProducts(t *testing.T) {
	ctx := context.Background()
	s := retryingStore{store.NewMemory()}
	conds := NewCatalogService(s, models.Conditions)
	ps := NewProductService(s)

	fresh, err := conds.Add(ctx, models.CatalogItem{Name: "New"})
	require.NoError(t, err)
	_, err = conds.Add(ctx, models.CatalogItem{Name: "Used"})
	require.NoError(t, err)
	a, err := ps.AddProduct(ctx, models.Product{Name: "Galaxy S24", Price: 100, Condition: "New"})
	require.NoError(t, err)
	b, err := ps.AddProduct(ctx, models.Product{Name: "Pixel 7", Price: 80, Condition: "Used"})
	require.NoError(t, err)

	renamed, err := conds.Update(ctx, fresh.ID, map[string]any{"name": " Brand New "})
	require.NoError(t, err)
	assert.Equal(t, "Brand New", renamed.Name)

	got, err := ps.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brand New", got.Condition)
	got, err = ps.GetProduct(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Used", got.Condition)

	_, err = ps.UpdateProduct(ctx, a.ID, map[string]any{"price": 120})
	require.NoError(t, err, "product stays writable after the rename")

	list, err := ps.FindProducts(ctx, ProductQuery{Conditions: []string{"Brand New"}})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, productIDs(list))

	// the renamed entry is still protected against deletion
	err = conds.Delete(ctx, fresh.ID)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestCatalogDeleteRunsInTransaction(t *testing.T) {
	ctx := context.Background()
	s := retryingStore{store.NewMemory()}
	colors := NewCatalogService(s, models.Colors)

	blue, err := colors.Add(ctx, models.CatalogItem{Name: "Blue"})
	require.NoError(t, err)
	require.NoError(t, colors.Delete(ctx, blue.ID))

	_, err = colors.Get(ctx, blue.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(colors.Delete(ctx, blue.ID), ErrNotFound))
}

func TestCatalogListFailureYieldsEmptyList(t *testing.T) {
	ctx := context.Background()
	brands := NewCatalogService(failingFind{store.NewMemory()}, models.Brands)

	list := brands.List(ctx)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Empty(t, brands.ListFeatured(ctx))

	_, err := brands.Find(ctx)
	assert.True(t, errors.Is(err, errStoreDown))
}
