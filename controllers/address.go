package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// AddressController handles saved addresses of the caller
type AddressController struct {
	Addresses *services.AddressService
}

// NewAddressController creates a new AddressController
func NewAddressController(addresses *services.AddressService) *AddressController {
	return &AddressController{Addresses: addresses}
}

// List returns the caller's addresses
func (ac *AddressController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	utils.RespondJSON(w, http.StatusOK, ac.Addresses.List(ctx, p.UID))
}

// Create saves a new address
func (ac *AddressController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var a models.Address
	if !decodeJSON(w, r, &a) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := ac.Addresses.Add(ctx, p.UID, a)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// Update merges fields into an address
func (ac *AddressController) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := ac.Addresses.Update(ctx, p.UID, mux.Vars(r)["id"], fields)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// SetDefault makes an address the default one
func (ac *AddressController) SetDefault(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := ac.Addresses.SetDefault(ctx, p.UID, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ac.Addresses.List(ctx, p.UID))
}

// Delete removes an address
func (ac *AddressController) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := ac.Addresses.Delete(ctx, p.UID, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
