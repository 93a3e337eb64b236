package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/utils"
)

// CatalogPattern matches the catalog URL segments
var CatalogPattern = func() string {
	names := make([]string, 0, len(models.CatalogKinds))
	for _, k := range models.CatalogKinds {
		names = append(names, k.Name)
	}
	return strings.Join(names, "|")
}()

// CatalogController serves categories, brands and the attribute catalogs
type CatalogController struct {
	Catalogs map[string]*services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogs map[string]*services.CatalogService) *CatalogController {
	return &CatalogController{Catalogs: catalogs}
}

func (cc *CatalogController) service(w http.ResponseWriter, r *http.Request) (*services.CatalogService, bool) {
	svc, ok := cc.Catalogs[mux.Vars(r)["catalog"]]
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown catalog")
	}
	return svc, ok
}

// List returns the entries of a catalog. ?featured=true lists featured
// entries only.
func (cc *CatalogController) List(w http.ResponseWriter, r *http.Request) {
	svc, ok := cc.service(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if f := queryBool(r, "featured"); f != nil && *f {
		utils.RespondJSON(w, http.StatusOK, svc.ListFeatured(ctx))
		return
	}
	utils.RespondJSON(w, http.StatusOK, svc.List(ctx))
}

// Get returns one entry
func (cc *CatalogController) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := cc.service(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	item, err := svc.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

// Create adds an entry (Admin only)
func (cc *CatalogController) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := cc.service(w, r)
	if !ok {
		return
	}
	var item models.CatalogItem
	if !decodeJSON(w, r, &item) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := svc.Add(ctx, item)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// Update merges fields into an entry (Admin only)
func (cc *CatalogController) Update(w http.ResponseWriter, r *http.Request) {
	svc, ok := cc.service(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := svc.Update(ctx, mux.Vars(r)["id"], fields)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// Delete removes an entry that no product uses (Admin only)
func (cc *CatalogController) Delete(w http.ResponseWriter, r *http.Request) {
	svc, ok := cc.service(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := svc.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
