package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/services"
	"go-phonestore/utils"
)

// CartController handles cart-related requests
type CartController struct {
	Carts *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCart returns the cart with product details
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	view, err := cc.Carts.View(ctx, p.UID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view)
}

// AddToCart adds a product to the cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var item cartItemRequest
	if !decodeJSON(w, r, &item) {
		return
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.AddItem(ctx, p.UID, item.ProductID, item.Quantity)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, cart)
}

// UpdateCartItem sets the quantity of a cart line
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var item cartItemRequest
	if !decodeJSON(w, r, &item) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.SetQuantity(ctx, p.UID, mux.Vars(r)["productId"], item.Quantity)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, cart)
}

// RemoveFromCart removes a product from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.RemoveItem(ctx, p.UID, mux.Vars(r)["productId"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, cart)
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := cc.Carts.Clear(ctx, p.UID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
