package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"go-phonestore/models"
	"go-phonestore/store"
)

// DayRevenue is the revenue of one calendar day (UTC)
type DayRevenue struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// ProductSales aggregates order lines of one product
type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// Summary is the dashboard overview for a period
type Summary struct {
	From              *time.Time       `json:"from,omitempty"`
	To                *time.Time       `json:"to,omitempty"`
	OrderCount        int              `json:"orderCount"`
	Revenue           float64          `json:"revenue"`
	AverageOrderValue float64          `json:"averageOrderValue"`
	OrdersByStatus    map[string]int   `json:"ordersByStatus"`
	RevenueByDay      []DayRevenue     `json:"revenueByDay"`
	TopProducts       []ProductSales   `json:"topProducts"`
	LowStock          []models.Product `json:"lowStock"`
	ProductCount      int              `json:"productCount"`
}

// AnalyticsService computes sales figures
type AnalyticsService struct {
	Store    store.Store
	Settings *SettingsProvider
	// TopN limits TopProducts
	TopN int
}

// NewAnalyticsService creates an AnalyticsService
func NewAnalyticsService(s store.Store, settings *SettingsProvider) *AnalyticsService {
	return &AnalyticsService{Store: s, Settings: settings, TopN: 5}
}

// Summary aggregates the orders created in [from, to). Zero bounds are open.
// Cancelled orders are counted by status but excluded from revenue.
func (as *AnalyticsService) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	q := store.Query{OrderBy: "createdAt", Direction: store.Asc}
	if !from.IsZero() {
		q = q.Where("createdAt", store.OpGreaterEqual, from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("createdAt", store.OpLess, to.UTC())
	}

	var (
		orders   []models.Order
		products []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = store.All(gctx, as.Store, ordersCollection, q, setOrderID)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = store.All(gctx, as.Store, productsCollection, store.Query{}, setProductID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	s := &Summary{
		OrdersByStatus: map[string]int{},
		RevenueByDay:   []DayRevenue{},
		TopProducts:    []ProductSales{},
		LowStock:       []models.Product{},
		ProductCount:   len(products),
	}
	if !from.IsZero() {
		f := from.UTC()
		s.From = &f
	}
	if !to.IsZero() {
		t := to.UTC()
		s.To = &t
	}

	days := map[string]*DayRevenue{}
	sales := map[string]*ProductSales{}
	paid := 0
	for _, o := range orders {
		s.OrderCount++
		s.OrdersByStatus[o.Status]++
		if o.Status == models.OrderCancelled {
			continue
		}
		paid++
		s.Revenue += o.Total
		day := o.CreatedAt.UTC().Format("2006-01-02")
		d, ok := days[day]
		if !ok {
			d = &DayRevenue{Date: day}
			days[day] = d
		}
		d.Orders++
		d.Revenue += o.Total
		for _, it := range o.Items {
			ps, ok := sales[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID, Name: it.Name}
				sales[it.ProductID] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue += it.Price * float64(it.Quantity)
		}
	}
	s.Revenue = models.RoundCents(s.Revenue)
	if paid > 0 {
		s.AverageOrderValue = models.RoundCents(s.Revenue / float64(paid))
	}

	for _, d := range days {
		d.Revenue = models.RoundCents(d.Revenue)
		s.RevenueByDay = append(s.RevenueByDay, *d)
	}
	sort.Slice(s.RevenueByDay, func(i, j int) bool { return s.RevenueByDay[i].Date < s.RevenueByDay[j].Date })

	for _, ps := range sales {
		ps.Revenue = models.RoundCents(ps.Revenue)
		s.TopProducts = append(s.TopProducts, *ps)
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		a, b := s.TopProducts[i], s.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductID < b.ProductID
	})
	if n := as.TopN; n > 0 && len(s.TopProducts) > n {
		s.TopProducts = s.TopProducts[:n]
	}

	threshold := as.Settings.Current().Store.LowStockThreshold
	for _, p := range products {
		if p.Inventory <= threshold {
			s.LowStock = append(s.LowStock, p.ForDisplay())
		}
	}
	sort.SliceStable(s.LowStock, func(i, j int) bool { return s.LowStock[i].Inventory < s.LowStock[j].Inventory })
	return s, nil
}
