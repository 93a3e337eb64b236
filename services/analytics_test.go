package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-phonestore/models"
	"go-phonestore/store"
)

func putOrder(t *testing.T, s store.Store, id, status string, at time.Time, total float64, items ...models.OrderItem) {
	t.Helper()
	o := models.Order{UserID: "u1", Status: status, Total: total, Items: items, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, s.Set(context.Background(), ordersCollection, id, o))
}

func TestAnalyticsSummary(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	day1 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	putOrder(t, s, "o1", models.OrderDelivered, day1, 100, models.OrderItem{ProductID: "a", Name: "A", Price: 50, Quantity: 2})
	putOrder(t, s, "o2", models.OrderPending, day2, 50.5, models.OrderItem{ProductID: "b", Name: "B", Price: 50.5, Quantity: 1})
	putOrder(t, s, "o3", models.OrderCancelled, day2, 999, models.OrderItem{ProductID: "c", Name: "C", Price: 999, Quantity: 5})
	putOrder(t, s, "o4", models.OrderShipped, day2.Add(48*time.Hour), 10, models.OrderItem{ProductID: "a", Name: "A", Price: 10, Quantity: 1})
	putProducts(t, s,
		models.Product{ID: "a", Name: "A", Inventory: 2, CreatedAt: baseTime},
		models.Product{ID: "b", Name: "B", Inventory: 50, CreatedAt: baseTime},
		models.Product{ID: "c", Name: "C", Inventory: 0, CreatedAt: baseTime},
	)
	as := NewAnalyticsService(s, NewSettingsProvider(s))

	sum, err := as.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.OrderCount)
	assert.Equal(t, 160.5, sum.Revenue, "cancelled orders are excluded")
	assert.Equal(t, 53.5, sum.AverageOrderValue)
	assert.Equal(t, map[string]int{
		models.OrderDelivered: 1, models.OrderPending: 1, models.OrderCancelled: 1, models.OrderShipped: 1,
	}, sum.OrdersByStatus)
	require.Len(t, sum.RevenueByDay, 3)
	assert.Equal(t, DayRevenue{Date: "2026-05-02", Orders: 1, Revenue: 50.5}, sum.RevenueByDay[1])
	require.NotEmpty(t, sum.TopProducts)
	assert.Equal(t, ProductSales{ProductID: "a", Name: "A", Quantity: 3, Revenue: 110}, sum.TopProducts[0])
	assert.Equal(t, 3, sum.ProductCount)
	require.Len(t, sum.LowStock, 2)
	assert.Equal(t, "c", sum.LowStock[0].ID)

	sum, err = as.Summary(ctx, day2, day2.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.OrderCount)
	assert.Equal(t, 50.5, sum.Revenue)
	require.NotNil(t, sum.From)
	assert.True(t, day2.Equal(*sum.From))
}
