package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-phonestore/events"
	"go-phonestore/models"
	"go-phonestore/store"
)

const ordersCollection = "orders"

// Payment methods accepted at checkout
const (
	PaymentCard           = "card"
	PaymentCashOnDelivery = "cash_on_delivery"
)

// CheckoutRequest describes an order. Without Items the user's cart is
// ordered and cleared. The delivery address is AddressID, else Shipping,
// else the user's default address.
type CheckoutRequest struct {
	Items           []models.CartItem    `json:"items,omitempty"`
	AddressID       string               `json:"addressId,omitempty"`
	Shipping        *models.ShippingInfo `json:"shipping,omitempty"`
	PaymentMethodID string               `json:"paymentMethodId,omitempty"`
	PaymentMethod   string               `json:"paymentMethod,omitempty"`
}

// OrderService places and manages orders
type OrderService struct {
	Store          store.Store
	Settings       *SettingsProvider
	Addresses      *AddressService
	PaymentMethods *PaymentMethodService
	Events         events.Publisher
}

// NewOrderService creates an OrderService
func NewOrderService(s store.Store, settings *SettingsProvider, addresses *AddressService, payments *PaymentMethodService, pub events.Publisher) *OrderService {
	if pub == nil {
		pub = events.Discard{}
	}
	return &OrderService{Store: s, Settings: settings, Addresses: addresses, PaymentMethods: payments, Events: pub}
}

func setOrderID(o *models.Order, id string) { o.ID = id }

// Totals is the price breakdown of an order
type Totals struct {
	Subtotal    float64
	ShippingFee float64
	Tax         float64
	Total       float64
}

// ComputeTotals applies the shipping and tax rules of the store settings
func ComputeTotals(subtotal float64, s models.StoreSettings) Totals {
	t := Totals{Subtotal: models.RoundCents(subtotal)}
	if t.Subtotal > 0 && (s.FreeShippingThreshold <= 0 || t.Subtotal < s.FreeShippingThreshold) {
		t.ShippingFee = models.RoundCents(s.ShippingFee)
	}
	t.Tax = models.RoundCents(t.Subtotal * s.TaxRate / 100)
	t.Total = models.RoundCents(t.Subtotal + t.ShippingFee + t.Tax)
	return t
}

// NewOrderNumber returns a human readable order reference
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}

// Checkout places an order in one transaction: it snapshots the products
// at their sale price, decrements inventory and clears the cart.
func (svc *OrderService) Checkout(ctx context.Context, uid, email string, req CheckoutRequest) (*models.Order, error) {
	shipping, err := svc.resolveShipping(ctx, uid, req)
	if err != nil {
		return nil, err
	}
	payment, err := svc.resolvePayment(ctx, uid, req)
	if err != nil {
		return nil, err
	}
	settings := svc.Settings.Current().Store

	now := time.Now().UTC()
	order := models.Order{
		UserID:      uid,
		Email:       email,
		Shipping:    shipping,
		Payment:     payment,
		Status:      models.OrderPending,
		OrderNumber: NewOrderNumber(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	orderID := uuid.NewString()

	err = svc.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		fromCart := len(req.Items) == 0
		lines := req.Items
		if fromCart {
			doc, err := tx.Get(cartsCollection, uid)
			cart, err := readCart(doc, err, uid)
			if err != nil {
				return err
			}
			lines = cart.Items
		}
		lines = mergeLines(lines)
		if len(lines) == 0 {
			return invalid("cart is empty")
		}

		products := make([]models.Product, len(lines))
		for i, line := range lines {
			if line.Quantity < 1 {
				return invalid("quantity of %s must be at least 1", line.ProductID)
			}
			doc, err := tx.Get(productsCollection, line.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return invalid("product %s is no longer available", line.ProductID)
			}
			if err != nil {
				return err
			}
			if err := doc.DataTo(&products[i]); err != nil {
				return err
			}
			if products[i].Inventory < line.Quantity {
				return invalid("only %d of %q left in stock", products[i].Inventory, products[i].Name)
			}
		}

		// reset in case the transaction is retried
		order.Items = make([]models.OrderItem, 0, len(lines))
		subtotal := 0.0
		for i, line := range lines {
			p := products[i]
			price := p.SalePrice()
			order.Items = append(order.Items, models.OrderItem{
				ProductID: line.ProductID,
				Name:      p.Name,
				Price:     price,
				Quantity:  line.Quantity,
				Image:     p.DisplayImage(),
			})
			subtotal += price * float64(line.Quantity)
		}
		t := ComputeTotals(subtotal, settings)
		order.Subtotal, order.ShippingFee, order.Tax, order.Total = t.Subtotal, t.ShippingFee, t.Tax, t.Total

		for i, line := range lines {
			if err := tx.Update(productsCollection, line.ProductID, map[string]any{
				"inventory": products[i].Inventory - line.Quantity,
				"updatedAt": now,
			}); err != nil {
				return err
			}
		}
		if err := tx.Set(ordersCollection, orderID, order); err != nil {
			return err
		}
		if fromCart {
			return tx.Delete(cartsCollection, uid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.ID = orderID

	if err := svc.Events.Publish(ctx, events.NewOrderEvent(events.OrderPlaced, order, "")); err != nil {
		slog.ErrorContext(ctx, "publish order placed failed", "order", order.ID, "error", err)
	}
	return &order, nil
}

func mergeLines(lines []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(lines))
	index := map[string]int{}
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (svc *OrderService) resolveShipping(ctx context.Context, uid string, req CheckoutRequest) (models.ShippingInfo, error) {
	switch {
	case req.AddressID != "":
		a, err := svc.Addresses.Get(ctx, uid, req.AddressID)
		if err != nil {
			return models.ShippingInfo{}, err
		}
		return a.ShippingInfo(), nil
	case req.Shipping != nil:
		s := *req.Shipping
		err := validateAddress(models.Address{FullName: s.FullName, Street: s.Street, City: s.City, PostalCode: s.PostalCode, Country: s.Country})
		return s, err
	}
	a, err := svc.Addresses.GetDefault(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return models.ShippingInfo{}, invalid("a shipping address is required")
	}
	if err != nil {
		return models.ShippingInfo{}, err
	}
	return a.ShippingInfo(), nil
}

func (svc *OrderService) resolvePayment(ctx context.Context, uid string, req CheckoutRequest) (models.PaymentInfo, error) {
	if req.PaymentMethodID != "" {
		m, err := svc.PaymentMethods.Get(ctx, uid, req.PaymentMethodID)
		if err != nil {
			return models.PaymentInfo{}, err
		}
		return models.PaymentInfo{Method: PaymentCard, Brand: m.Brand, Last4: m.Last4}, nil
	}
	switch req.PaymentMethod {
	case "", PaymentCashOnDelivery:
		return models.PaymentInfo{Method: PaymentCashOnDelivery}, nil
	case PaymentCard:
		return models.PaymentInfo{}, invalid("paymentMethodId is required to pay by card")
	}
	return models.PaymentInfo{}, invalid("unknown payment method %q", req.PaymentMethod)
}

// ListOrders returns the user's orders, newest first
func (svc *OrderService) ListOrders(ctx context.Context, uid string) []models.Order {
	q := store.Query{OrderBy: "createdAt", Direction: store.Desc}.Where("userId", store.OpEqual, uid)
	orders, err := store.All(ctx, svc.Store, ordersCollection, q, setOrderID)
	if err != nil {
		slog.ErrorContext(ctx, "list orders failed", "user", uid, "error", err)
		return []models.Order{}
	}
	return orders
}

// ListAllOrders returns every order, optionally with one status, newest first
func (svc *OrderService) ListAllOrders(ctx context.Context, status string, limit int) ([]models.Order, error) {
	q := store.Query{OrderBy: "createdAt", Direction: store.Desc, Limit: limit}
	if status != "" {
		if !models.ValidOrderStatus(status) {
			return nil, invalid("unknown status %q", status)
		}
		q = q.Where("status", store.OpEqual, status)
	}
	orders, err := store.All(ctx, svc.Store, ordersCollection, q, setOrderID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns an order. Non-admin callers only see their own orders.
func (svc *OrderService) GetOrder(ctx context.Context, uid, id string, admin bool) (*models.Order, error) {
	doc, err := svc.Store.Get(ctx, ordersCollection, id)
	if err != nil {
		return nil, notFound(err, "order "+id)
	}
	var o models.Order
	if err := doc.DataTo(&o); err != nil {
		return nil, err
	}
	if !admin && o.UserID != uid {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o.ID = doc.ID
	return &o, nil
}

// UpdateStatus moves an order to status. Cancelling returns the items to
// stock in the same transaction; a cancelled order cannot change again.
func (svc *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	return svc.changeStatus(ctx, id, status, nil)
}

// CancelOrder lets the owner cancel an order that is still pending
func (svc *OrderService) CancelOrder(ctx context.Context, uid, id string) (*models.Order, error) {
	return svc.changeStatus(ctx, id, models.OrderCancelled, func(o models.Order) error {
		if o.UserID != uid {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		if o.Status != models.OrderPending {
			return conflict("only pending orders can be cancelled")
		}
		return nil
	})
}

func (svc *OrderService) changeStatus(ctx context.Context, id, status string, check func(models.Order) error) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	var (
		order    models.Order
		previous string
	)
	err := svc.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(ordersCollection, id)
		if err != nil {
			return notFound(err, "order "+id)
		}
		order = models.Order{}
		if err := doc.DataTo(&order); err != nil {
			return err
		}
		if check != nil {
			if err := check(order); err != nil {
				return err
			}
		}
		previous = order.Status
		if previous == status {
			return nil
		}
		if previous == models.OrderCancelled {
			return conflict("order %s is cancelled", order.OrderNumber)
		}

		type restock struct {
			id        string
			inventory int
		}
		var restocks []restock
		if status == models.OrderCancelled {
			for _, it := range order.Items {
				pdoc, err := tx.Get(productsCollection, it.ProductID)
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				var p models.Product
				if err := pdoc.DataTo(&p); err != nil {
					return err
				}
				restocks = append(restocks, restock{it.ProductID, p.Inventory + it.Quantity})
			}
		}

		now := time.Now().UTC()
		for _, r := range restocks {
			if err := tx.Update(productsCollection, r.id, map[string]any{"inventory": r.inventory, "updatedAt": now}); err != nil {
				return err
			}
		}
		order.Status = status
		order.UpdatedAt = now
		return tx.Update(ordersCollection, id, map[string]any{"status": status, "updatedAt": now})
	})
	if err != nil {
		return nil, err
	}
	order.ID = id
	if previous != status {
		if err := svc.Events.Publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, order, previous)); err != nil {
			slog.ErrorContext(ctx, "publish status change failed", "order", id, "error", err)
		}
	}
	return &order, nil
}
