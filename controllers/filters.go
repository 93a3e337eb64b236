package controllers

import (
	"net/http"
	"strconv"

	"go-phonestore/filters"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// ListingPath is the storefront listing the filter redirects point to
const ListingPath = "/products"

// FiltersController keeps the filter selection and the listing URL in sync
type FiltersController struct {
	Catalogs map[string]filters.CatalogSource
	Bounds   filters.Bounds
}

// NewFiltersController creates a new FiltersController
func NewFiltersController(catalogs map[string]*services.CatalogService, bounds filters.Bounds) *FiltersController {
	sources := make(map[string]filters.CatalogSource, len(catalogs))
	for name, c := range catalogs {
		sources[name] = c
	}
	return &FiltersController{Catalogs: sources, Bounds: bounds}
}

// GetFilters returns the current selection with every available option
func (fc *FiltersController) GetFilters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	state := filters.Parse(r.URL.Query())
	opts, err := filters.LoadOptions(ctx, fc.Catalogs, state, fc.Bounds)
	if err != nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "Failed to load filter options: "+err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, opts)
}

// Toggle flips one value of a filter dimension and redirects to the new URL
func (fc *FiltersController) Toggle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	next, err := filters.Parse(q).Toggle(q.Get("dimension"), q.Get("value"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, next.URL(ListingPath), http.StatusSeeOther)
}

// SetPrice commits a price range and redirects to the new URL
func (fc *FiltersController) SetPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lo, err := strconv.ParseFloat(q.Get("min"), 64)
	if err != nil || !filters.ValidPrice(lo) {
		utils.RespondError(w, http.StatusBadRequest, "min must be a non-negative number")
		return
	}
	hi, err := strconv.ParseFloat(q.Get("max"), 64)
	if err != nil || !filters.ValidPrice(hi) {
		utils.RespondError(w, http.StatusBadRequest, "max must be a non-negative number")
		return
	}
	next := filters.Parse(q).WithPriceRange(lo, hi, fc.Bounds)
	http.Redirect(w, r, next.URL(ListingPath), http.StatusSeeOther)
}
