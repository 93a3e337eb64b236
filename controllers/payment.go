package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/services"
	"go-phonestore/utils"
)

// PaymentController handles saved payment methods of the caller
type PaymentController struct {
	Methods *services.PaymentMethodService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(methods *services.PaymentMethodService) *PaymentController {
	return &PaymentController{Methods: methods}
}

// List returns the caller's payment methods
func (pc *PaymentController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	utils.RespondJSON(w, http.StatusOK, pc.Methods.List(ctx, p.UID))
}

// Create saves a card; only its last four digits are kept
func (pc *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.PaymentMethodInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := pc.Methods.Add(ctx, p.UID, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// Update changes expiry or holder name
func (pc *PaymentController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.PaymentMethodInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := pc.Methods.Update(ctx, p.UID, mux.Vars(r)["id"], in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// SetDefault makes a payment method the default one
func (pc *PaymentController) SetDefault(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := pc.Methods.SetDefault(ctx, p.UID, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, pc.Methods.List(ctx, p.UID))
}

// Delete removes a payment method
func (pc *PaymentController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := pc.Methods.Delete(ctx, p.UID, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
