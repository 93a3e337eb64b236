package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

const cartsCollection = "carts"

// CartService manages carts stored under carts/{uid}
type CartService struct {
	Store    store.Store
	Products *ProductService
}

// NewCartService creates a CartService
func NewCartService(s store.Store, products *ProductService) *CartService {
	return &CartService{Store: s, Products: products}
}

// CartLine is a cart item joined with its product
type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal float64        `json:"lineTotal"`
}

// CartView is the cart as shown to the shopper
type CartView struct {
	Items    []CartLine `json:"items"`
	Subtotal float64    `json:"subtotal"`
	// Missing lists products that no longer exist
	Missing []string `json:"missing,omitempty"`
}

func readCart(doc store.Document, err error, uid string) (models.Cart, error) {
	cart := models.Cart{UserID: uid, Items: []models.CartItem{}}
	if errors.Is(err, store.ErrNotFound) {
		return cart, nil
	}
	if err != nil {
		return cart, err
	}
	if err := doc.DataTo(&cart); err != nil {
		return cart, err
	}
	cart.UserID = uid
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

// Get returns the user's cart, empty when none was saved yet
func (cs *CartService) Get(ctx context.Context, uid string) (models.Cart, error) {
	doc, err := cs.Store.Get(ctx, cartsCollection, uid)
	return readCart(doc, err, uid)
}

// View returns the cart with product details and sale prices
func (cs *CartService) View(ctx context.Context, uid string) (*CartView, error) {
	cart, err := cs.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: []CartLine{}}
	for _, it := range cart.Items {
		p, err := cs.Products.GetProduct(ctx, it.ProductID)
		if errors.Is(err, ErrNotFound) {
			view.Missing = append(view.Missing, it.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		line := CartLine{Product: *p, Quantity: it.Quantity, LineTotal: models.RoundCents(p.SalePrice() * float64(it.Quantity))}
		view.Items = append(view.Items, line)
		view.Subtotal += line.LineTotal
	}
	view.Subtotal = models.RoundCents(view.Subtotal)
	return view, nil
}

// AddItem adds quantity of a product, merging with an existing line
func (cs *CartService) AddItem(ctx context.Context, uid, productID string, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, invalid("quantity must be at least 1")
	}
	if _, err := cs.Products.GetProduct(ctx, productID); err != nil {
		return models.Cart{}, err
	}
	return cs.modify(ctx, uid, func(cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items[i].Quantity += quantity
				return nil
			}
		}
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
		return nil
	})
}

// SetQuantity sets the quantity of a line; zero removes it
func (cs *CartService) SetQuantity(ctx context.Context, uid, productID string, quantity int) (models.Cart, error) {
	if quantity < 0 {
		return models.Cart{}, invalid("quantity must not be negative")
	}
	return cs.modify(ctx, uid, func(cart *models.Cart) error {
		for i := range cart.Items {
			if cart.Items[i].ProductID != productID {
				continue
			}
			if quantity == 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			return nil
		}
		return fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	})
}

// RemoveItem drops a product from the cart
func (cs *CartService) RemoveItem(ctx context.Context, uid, productID string) (models.Cart, error) {
	return cs.SetQuantity(ctx, uid, productID, 0)
}

// Clear empties the cart
func (cs *CartService) Clear(ctx context.Context, uid string) error {
	return cs.Store.Delete(ctx, cartsCollection, uid)
}

func (cs *CartService) modify(ctx context.Context, uid string, fn func(*models.Cart) error) (models.Cart, error) {
	var cart models.Cart
	err := cs.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(cartsCollection, uid)
		cart, err = readCart(doc, err, uid)
		if err != nil {
			return err
		}
		if err := fn(&cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()
		return tx.Set(cartsCollection, uid, cart)
	})
	return cart, err
}
