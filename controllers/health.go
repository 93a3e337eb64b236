package controllers

import (
	"context"
	"net/http"
	"time"

	"go-phonestore/store"
	"go-phonestore/utils"
)

// HealthController reports whether the document store is reachable
type HealthController struct {
	Store store.Store
}

// NewHealthController creates a new HealthController
func NewHealthController(s store.Store) *HealthController {
	return &HealthController{Store: s}
}

// Health answers 200 when the store responds
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := hc.Store.Ping(ctx); err != nil {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
