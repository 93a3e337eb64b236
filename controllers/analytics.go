package controllers

import (
	"net/http"
	"time"

	"go-phonestore/services"
	"go-phonestore/utils"
)

// AnalyticsController serves the admin dashboard figures
type AnalyticsController struct {
	Analytics *services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(a *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Analytics: a}
}

// parseDay accepts a date (2006-01-02) or an RFC 3339 timestamp
func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Summary returns sales figures for ?from= and ?to= (Admin only)
func (ac *AnalyticsController) Summary(w http.ResponseWriter, r *http.Request) {
	from, ok := parseDay(r.URL.Query().Get("from"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "from must be a date")
		return
	}
	to, ok := parseDay(r.URL.Query().Get("to"))
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "to must be a date")
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	summary, err := ac.Analytics.Summary(ctx, from, to)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}
