package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-phonestore/filters"
	"go-phonestore/models"
	"go-phonestore/services"
	"go-phonestore/uploads"
	"go-phonestore/utils"
)

const maxImageBytes = 10 << 20

// ProductController handles product-related requests
type ProductController struct {
	Products *services.ProductService
	Uploader uploads.Uploader
}

// NewProductController creates a new ProductController
func NewProductController(products *services.ProductService, uploader uploads.Uploader) *ProductController {
	return &ProductController{Products: products, Uploader: uploader}
}

// productQuery reads the listing options from the URL. The multi-select
// parameters follow the filter URL format; categoryId, brandId, featured
// and limit are accepted as well.
func productQuery(r *http.Request) services.ProductQuery {
	q := filters.Parse(r.URL.Query()).Query()
	v := r.URL.Query()
	q.CategoryID = v.Get("categoryId")
	q.BrandID = v.Get("brandId")
	q.Featured = queryBool(r, "featured")
	q.Limit = queryInt(r, "limit", 0)
	return q
}

// GetProducts lists products matching the query parameters
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := pc.Products.FindProducts(ctx, productQuery(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

// GetFeaturedProducts lists featured products for the home page
func (pc *ProductController) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	featured := true
	products := pc.Products.GetProducts(ctx, services.ProductQuery{Featured: &featured, Limit: queryInt(r, "limit", 8)})
	utils.RespondJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Products.GetProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if !decodeJSON(w, r, &product) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	created, err := pc.Products.AddProduct(ctx, product)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// UpdateProduct merges the posted fields into a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	updated, err := pc.Products.UpdateProduct(ctx, mux.Vars(r)["id"], fields)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := pc.Products.DeleteProduct(ctx, mux.Vars(r)["id"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage stores the "image" form file and makes it the main product
// image (Admin only)
func (pc *ProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	file, handler, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Failed to retrieve file")
		return
	}
	defer file.Close()

	contentType := handler.Header.Get("Content-Type")
	name, err := uploads.ObjectName("products/"+id, handler.Filename, contentType)
	if err != nil {
		utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if _, err := pc.Products.GetProduct(ctx, id); err != nil {
		respondErr(w, r, err)
		return
	}
	url, err := pc.Uploader.Upload(ctx, name, contentType, file)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	product, err := pc.Products.SetImage(ctx, id, url)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}
