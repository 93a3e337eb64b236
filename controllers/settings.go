package controllers

import (
	"net/http"

	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// SettingsController serves and updates the store settings
type SettingsController struct {
	Settings *services.SettingsProvider
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(settings *services.SettingsProvider) *SettingsController {
	return &SettingsController{Settings: settings}
}

// GetStoreSettings returns the public store settings
func (sc *SettingsController) GetStoreSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, sc.Settings.Current().Store)
}

// GetSettings returns the full snapshot (Admin only)
func (sc *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, sc.Settings.Current())
}

// UpdateStoreSettings writes store settings; the body must carry the
// version it was based on (Admin only)
func (sc *SettingsController) UpdateStoreSettings(w http.ResponseWriter, r *http.Request) {
	var s models.StoreSettings
	if !decodeJSON(w, r, &s) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	snap, err := sc.Settings.UpdateStore(ctx, s)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

// UpdateEmailSettings writes email settings (Admin only)
func (sc *SettingsController) UpdateEmailSettings(w http.ResponseWriter, r *http.Request) {
	var e models.EmailSettings
	if !decodeJSON(w, r, &e) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	snap, err := sc.Settings.UpdateEmail(ctx, e)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

// RefreshSettings reloads the settings documents (Admin only)
func (sc *SettingsController) RefreshSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	snap, err := sc.Settings.Refresh(ctx)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}
