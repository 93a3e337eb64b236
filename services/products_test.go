package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
	"go-phonestore/store"
)

// tenPhones has exactly three New phones priced within [100, 500]: p2, p5, p9
func tenPhones() []models.Product {
	phones := []struct {
		id        string
		price     float64
		condition string
		rating    float64
	}{
		{"p0", 90, "New", 4.1},
		{"p1", 250, "Used", 3.2},
		{"p2", 100, "New", 4.9},
		{"p3", 700, "New", 4.5},
		{"p4", 300, "Refurbished", 3.9},
		{"p5", 499.99, "New", 2.5},
		{"p6", 501, "New", 4.0},
		{"p7", 150, "Used", 4.8},
		{"p8", 50, "Used", 1.0},
		{"p9", 500, "New", 3.3},
	}
	out := make([]models.Product, 0, len(phones))
	for i, s := range phones {
		out = append(out, models.Product{
			ID:        s.id,
			Name:      fmt.Sprintf("Phone %c", 'J'-rune(i)),
			Price:     s.price,
			Condition: s.condition,
			Rating:    s.rating,
			Inventory: i,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestFindProductsIgnoresSortForMembership(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s, tenPhones()...)
	ps := NewProductService(s)

	for _, sortBy := range []string{"", "createdAt", "price", "name", "rating", "inventory", "bogus"} {
		for _, dir := range []string{"asc", "desc"} {
			t.Run(sortBy+"/"+dir, func(t *testing.T) {
				got, err := ps.FindProducts(ctx, ProductQuery{
					Conditions:    []string{"New"},
					MinPrice:      price(100),
					MaxPrice:      price(500),
					SortBy:        sortBy,
					SortDirection: dir,
				})
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"p2", "p5", "p9"}, productIDs(got))
			})
		}
	}
}

func TestFindProductsSortOrder(t *testing.T) {
	s := store.NewMemory()
	putProducts(t, s, tenPhones()...)
	ps := NewProductService(s)

	got, err := ps.FindProducts(context.Background(), ProductQuery{
		Conditions: []string{"New"}, MinPrice: price(100), MaxPrice: price(500),
		SortBy: "price", SortDirection: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p9", "p5", "p2"}, productIDs(got))

	got, err = ps.FindProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "p9", got[0].ID, "newest first by default")
}

func TestFindProductsLimitAppliesAfterFiltering(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	// 120 newer non-matching products push the matches past the first pages
	for i := 0; i < 120; i++ {
		putProducts(t, s, models.Product{
			ID:        fmt.Sprintf("noise-%03d", i),
			Name:      "Noise",
			Price:     10,
			Color:     "Red",
			CreatedAt: baseTime.Add(time.Hour + time.Duration(i)*time.Second),
		})
	}
	putProducts(t, s,
		models.Product{ID: "m1", Name: "Match", Price: 10, Color: "Black", CreatedAt: baseTime},
		models.Product{ID: "m2", Name: "Match", Price: 10, Color: "Blue", CreatedAt: baseTime.Add(time.Second)},
		models.Product{ID: "m3", Name: "Match", Price: 10, Color: "Black", CreatedAt: baseTime.Add(2 * time.Second)},
	)
	ps := NewProductService(s)

	got, err := ps.FindProducts(ctx, ProductQuery{Colors: []string{"Black", "Blue"}, Limit: 3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, productIDs(got))

	got, err = ps.FindProducts(ctx, ProductQuery{Colors: []string{"Black", "Blue"}, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, p := range got {
		assert.Contains(t, []string{"Black", "Blue"}, p.Color)
	}
}

func TestFindProductsEmptyFilters(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s, tenPhones()...)
	ps := NewProductService(s)

	got, err := ps.FindProducts(ctx, ProductQuery{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, got, 4)

	// the out-of-stock product is still listed
	got, err = ps.FindProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	assert.Contains(t, productIDs(got), "p0")

	ps.MaxLimit = 5
	got, err = ps.FindProducts(ctx, ProductQuery{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestFindProductsMultiValueFilters(t *testing.T) {
	s := store.NewMemory()
	putProducts(t, s,
		models.Product{ID: "a", Name: "A", BrandID: "apple", Storage: "128GB", Carrier: "Unlocked", CategoryIDs: []string{"phones"}, CreatedAt: baseTime},
		models.Product{ID: "b", Name: "B", BrandID: "samsung", Storage: "256GB", Carrier: "Verizon", CategoryIDs: []string{"phones", "deals"}, CreatedAt: baseTime},
		models.Product{ID: "c", Name: "C", BrandID: "google", Storage: "128GB", Carrier: "AT&T", CategoryIDs: []string{"tablets"}, CreatedAt: baseTime},
	)
	ps := NewProductService(s)

	tests := []struct {
		name string
		q    ProductQuery
		want []string
	}{
		{"no filters", ProductQuery{}, []string{"a", "b", "c"}},
		{"one brand", ProductQuery{BrandIDs: []string{"apple"}}, []string{"a"}},
		{"two brands", ProductQuery{BrandIDs: []string{"apple", "google"}}, []string{"a", "c"}},
		{"storage", ProductQuery{Storage: []string{"128GB"}}, []string{"a", "c"}},
		{"carriers", ProductQuery{Carriers: []string{"Verizon", "AT&T"}}, []string{"b", "c"}},
		{"category any", ProductQuery{CategoryIDs: []string{"deals", "tablets"}}, []string{"b", "c"}},
		{"single category", ProductQuery{CategoryID: "phones"}, []string{"a", "b"}},
		{"search brand-less", ProductQuery{Search: "  b "}, []string{"b"}},
		{"no match", ProductQuery{Storage: []string{"1TB"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ps.FindProducts(context.Background(), tt.q)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, productIDs(got))
		})
	}
}

func TestProductWithoutImageShowsPlaceholder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s, models.Product{ID: "x", Name: "Bare", CreatedAt: baseTime})
	ps := NewProductService(s)

	p, err := ps.GetProduct(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderImage, p.Image)
	assert.NotNil(t, p.AdditionalImages)

	list := ps.GetProducts(ctx, ProductQuery{})
	require.Len(t, list, 1)
	assert.Equal(t, "/placeholder.svg", list[0].Image)
}

func TestAddProductResolvesReferences(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	catalogs := NewCatalogServices(s)
	brand, err := catalogs["brands"].Add(ctx, models.CatalogItem{Name: "Apple"})
	require.NoError(t, err)
	_, err = catalogs["conditions"].Add(ctx, models.CatalogItem{Name: "New"})
	require.NoError(t, err)
	ps := NewProductService(s)

	p, err := ps.AddProduct(ctx, models.Product{Name: "iPhone 15", Price: 799, BrandID: brand.ID, Condition: "New"})
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Brand)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = ps.AddProduct(ctx, models.Product{Name: "Ghost", BrandID: "nope"})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = ps.AddProduct(ctx, models.Product{Name: "Odd", Condition: "Broken"})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = ps.AddProduct(ctx, models.Product{Name: "Cheap", Price: -1})
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s, models.Product{ID: "x", Name: "Old", Price: 100, CreatedAt: baseTime})
	ps := NewProductService(s)

	p, err := ps.UpdateProduct(ctx, "x", map[string]any{"price": 120.5, "name": "New", "createdAt": "2020-01-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 120.5, p.Price)
	assert.Equal(t, "New", p.Name)
	assert.True(t, baseTime.Equal(p.CreatedAt))

	_, err = ps.UpdateProduct(ctx, "x", map[string]any{"discount": 150})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = ps.UpdateProduct(ctx, "missing", map[string]any{"price": 1})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSetImageKeepsPreviousImage(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	putProducts(t, s, models.Product{ID: "x", Name: "Cam", Image: "/uploads/a.jpg", CreatedAt: baseTime})
	ps := NewProductService(s)

	p, err := ps.SetImage(ctx, "x", "/uploads/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/b.jpg", p.Image)
	assert.Equal(t, []string{"/uploads/a.jpg"}, p.AdditionalImages)

	require.NoError(t, ps.DeleteProduct(ctx, "x"))
	assert.True(t, errors.Is(ps.DeleteProduct(ctx, "x"), ErrNotFound))
}

func TestGetProductsFailureYieldsEmptyList(t *testing.T) {
	ctx := context.Background()
	ps := NewProductService(failingFind{store.NewMemory()})

	for _, q := range []ProductQuery{{}, {Conditions: []string{"New"}, MinPrice: price(100)}} {
		list := ps.GetProducts(ctx, q)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		_, err := ps.FindProducts(ctx, q)
		assert.True(t, errors.Is(err, errStoreDown))
	}
}
