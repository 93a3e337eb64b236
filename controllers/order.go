package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/services"
	"go-phonestore/utils"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder places an order from the cart or the posted items
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req services.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.Checkout(ctx, p.UID, p.Email, req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, order)
}

// GetOrders lists the caller's orders
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	utils.RespondJSON(w, http.StatusOK, oc.Orders.ListOrders(ctx, p.UID))
}

// GetOrder returns one order of the caller; admins see every order
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.GetOrder(ctx, p.UID, mux.Vars(r)["id"], p.Admin)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, order)
}

// CancelOrder cancels a pending order of the caller
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.CancelOrder(ctx, p.UID, mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, order)
}

// ListAllOrders lists every order, filtered by ?status= (Admin only)
func (oc *OrderController) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := oc.Orders.ListAllOrders(ctx, r.URL.Query().Get("status"), queryInt(r, "limit", 0))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus changes the status of an order (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.UpdateStatus(ctx, mux.Vars(r)["id"], body.Status)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, order)
}
