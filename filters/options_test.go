package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
)

type fakeSource struct {
	items []models.CatalogItem
	err   error
}

func (f fakeSource) Find(context.Context) ([]models.CatalogItem, error) {
	return f.items, f.err
}

func TestLoadOptions(t *testing.T) {
	catalogs := map[string]CatalogSource{
		models.Brands.Name: fakeSource{items: []models.CatalogItem{{ID: "apple", Name: "Apple"}}},
		models.Colors.Name: fakeSource{items: []models.CatalogItem{{Name: "Black"}, {Name: "Blue"}}},
	}
	selected := State{Brands: []string{"apple"}}

	opts, err := LoadOptions(context.Background(), catalogs, selected, Bounds{Max: 2000})
	require.NoError(t, err)
	assert.Len(t, opts.Brands, 1)
	assert.Len(t, opts.Colors, 2)
	assert.NotNil(t, opts.Carriers, "missing catalogs render as empty lists")
	assert.Empty(t, opts.Carriers)
	assert.Equal(t, selected, opts.Selected)
	assert.Equal(t, 2000.0, opts.Price.Max)
}

func TestLoadOptionsFailsAsAWhole(t *testing.T) {
	boom := errors.New("firestore unavailable")
	catalogs := map[string]CatalogSource{
		models.Brands.Name:     fakeSource{items: []models.CatalogItem{{Name: "Apple"}}},
		models.Conditions.Name: fakeSource{err: boom},
	}
	opts, err := LoadOptions(context.Background(), catalogs, State{}, Bounds{})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, opts)
}
