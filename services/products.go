package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-phonestore/models"
	"go-phonestore/store"
)

const productsCollection = "products"

// Limits applied to product listings
const (
	DefaultProductLimit = 100
	MaxProductLimit     = 500
)

var productSortFields = map[string]bool{
	"createdAt": true,
	"price":     true,
	"name":      true,
	"rating":    true,
	"inventory": true,
	"discount":  true,
}

// ProductQuery holds the listing options. Empty slices and nil pointers
// place no constraint.
type ProductQuery struct {
	Search        string
	CategoryID    string
	CategoryIDs   []string
	BrandID       string
	BrandIDs      []string
	MinPrice      *float64
	MaxPrice      *float64
	Conditions    []string
	Storage       []string
	Carriers      []string
	Colors        []string
	SortBy        string
	SortDirection string // "asc" or "desc"
	Limit         int
	Featured      *bool
}

// ProductService reads and writes products
type ProductService struct {
	Store store.Store
	// Limits; zero values fall back to DefaultProductLimit and MaxProductLimit
	DefaultLimit int
	MaxLimit     int
}

// NewProductService creates a ProductService
func NewProductService(s store.Store) *ProductService {
	return &ProductService{Store: s, DefaultLimit: DefaultProductLimit, MaxLimit: MaxProductLimit}
}

func setProductID(p *models.Product, id string) { p.ID = id }

func (ps *ProductService) limit(requested int) int {
	def, max := ps.DefaultLimit, ps.MaxLimit
	if def <= 0 {
		def = DefaultProductLimit
	}
	if max <= 0 {
		max = MaxProductLimit
	}
	switch {
	case requested <= 0:
		return def
	case requested > max:
		return max
	}
	return requested
}

// serverQuery is the part of the listing the document store evaluates: the
// ordering plus brand and featured equality.
func serverQuery(opts ProductQuery) store.Query {
	q := store.Query{OrderBy: "createdAt", Direction: store.Desc}
	if productSortFields[opts.SortBy] {
		q.OrderBy = opts.SortBy
		q.Direction = store.Asc
		if strings.EqualFold(opts.SortDirection, "desc") {
			q.Direction = store.Desc
		}
	}
	if brand := singleBrand(opts); brand != "" {
		q = q.Where("brandId", store.OpEqual, brand)
	}
	if opts.Featured != nil {
		q = q.Where("featured", store.OpEqual, *opts.Featured)
	}
	return q
}

// singleBrand returns the brand that can be pushed to the server
func singleBrand(opts ProductQuery) string {
	if opts.BrandID != "" {
		return opts.BrandID
	}
	if len(opts.BrandIDs) == 1 {
		return opts.BrandIDs[0]
	}
	return ""
}

// hasClientFilters reports whether any predicate is evaluated in memory
func hasClientFilters(opts ProductQuery) bool {
	return strings.TrimSpace(opts.Search) != "" ||
		opts.CategoryID != "" || len(opts.CategoryIDs) > 0 ||
		(opts.BrandID == "" && len(opts.BrandIDs) > 1) ||
		opts.MinPrice != nil || opts.MaxPrice != nil ||
		len(opts.Conditions) > 0 || len(opts.Storage) > 0 ||
		len(opts.Carriers) > 0 || len(opts.Colors) > 0
}

// Matches evaluates the in-memory predicates of opts against p
func (opts ProductQuery) Matches(p models.Product) bool {
	if term := strings.ToLower(strings.TrimSpace(opts.Search)); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.Model), term) &&
			!strings.Contains(strings.ToLower(p.Brand), term) {
			return false
		}
	}
	if opts.CategoryID != "" && !contains(p.CategoryIDs, opts.CategoryID) {
		return false
	}
	if len(opts.CategoryIDs) > 0 && !containsAny(p.CategoryIDs, opts.CategoryIDs) {
		return false
	}
	if opts.BrandID != "" && p.BrandID != opts.BrandID {
		return false
	}
	if opts.BrandID == "" && len(opts.BrandIDs) > 0 && !contains(opts.BrandIDs, p.BrandID) {
		return false
	}
	if opts.MinPrice != nil && p.Price < *opts.MinPrice {
		return false
	}
	if opts.MaxPrice != nil && p.Price > *opts.MaxPrice {
		return false
	}
	if len(opts.Conditions) > 0 && !contains(opts.Conditions, p.Condition) {
		return false
	}
	if len(opts.Storage) > 0 && !contains(opts.Storage, p.Storage) {
		return false
	}
	if len(opts.Carriers) > 0 && !contains(opts.Carriers, p.Carrier) {
		return false
	}
	if len(opts.Colors) > 0 && !contains(opts.Colors, p.Color) {
		return false
	}
	if opts.Featured != nil && p.Featured != *opts.Featured {
		return false
	}
	return true
}

// FindProducts runs the listing query. Ordering and brand/featured equality
// are evaluated by the store; the remaining predicates in memory. The limit
// is applied to the filtered result, so a page is only short when the
// collection has no further matches.
func (ps *ProductService) FindProducts(ctx context.Context, opts ProductQuery) ([]models.Product, error) {
	limit := ps.limit(opts.Limit)
	q := serverQuery(opts)

	if !hasClientFilters(opts) {
		q.Limit = limit
		products, err := store.All(ctx, ps.Store, productsCollection, q, setProductID)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return forDisplay(products), nil
	}

	out := make([]models.Product, 0)
	chunk := limit * 2
	if chunk < 50 {
		chunk = 50
	}
	for offset := 0; ; offset += chunk {
		page := q
		page.Offset = offset
		page.Limit = chunk
		products, err := store.All(ctx, ps.Store, productsCollection, page, setProductID)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			if !opts.Matches(p) {
				continue
			}
			out = append(out, p.ForDisplay())
			if len(out) == limit {
				return out, nil
			}
		}
		if len(products) < chunk {
			return out, nil
		}
	}
}

// GetProducts is FindProducts for callers that render whatever is
// available: failures are logged and yield an empty list.
func (ps *ProductService) GetProducts(ctx context.Context, opts ProductQuery) []models.Product {
	products, err := ps.FindProducts(ctx, opts)
	if err != nil {
		slog.ErrorContext(ctx, "get products failed", "error", err)
		return []models.Product{}
	}
	return products
}

// GetProduct returns a single product
func (ps *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	doc, err := ps.Store.Get(ctx, productsCollection, id)
	if err != nil {
		return nil, notFound(err, "product "+id)
	}
	var p models.Product
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = doc.ID
	p = p.ForDisplay()
	return &p, nil
}

// AddProduct validates and stores a new product
func (ps *ProductService) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := ps.resolveRefs(ctx, &p); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	id, err := ps.Store.Create(ctx, productsCollection, "", p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	p.ID = id
	p = p.ForDisplay()
	return &p, nil
}

// UpdateProduct merges the given fields into the product. Field names are
// the JSON names of models.Product; id and createdAt cannot be changed.
func (ps *ProductService) UpdateProduct(ctx context.Context, id string, fields map[string]any) (*models.Product, error) {
	delete(fields, "id")
	delete(fields, "createdAt")
	if len(fields) == 0 {
		return nil, invalid("no fields to update")
	}
	refs, err := ps.loadRefs(ctx)
	if err != nil {
		return nil, err
	}
	var updated models.Product
	err = ps.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(productsCollection, id)
		if err != nil {
			return notFound(err, "product "+id)
		}
		var cur models.Product
		if err := doc.DataTo(&cur); err != nil {
			return err
		}
		next, err := mergeProduct(cur, fields)
		if err != nil {
			return err
		}
		if err := validateProduct(next); err != nil {
			return err
		}
		if err := refs.check(&next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()
		next.CreatedAt = cur.CreatedAt
		updated = next
		updated.ID = id
		return tx.Set(productsCollection, id, next)
	})
	if err != nil {
		return nil, err
	}
	updated = updated.ForDisplay()
	return &updated, nil
}

// SetImage records an uploaded image as the main product image. The previous
// main image moves to the front of the additional images.
func (ps *ProductService) SetImage(ctx context.Context, id, url string) (*models.Product, error) {
	var updated models.Product
	err := ps.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(productsCollection, id)
		if err != nil {
			return notFound(err, "product "+id)
		}
		if err := doc.DataTo(&updated); err != nil {
			return err
		}
		if updated.Image != "" && updated.Image != url {
			updated.AdditionalImages = append([]string{updated.Image}, updated.AdditionalImages...)
		}
		updated.Image = url
		updated.UpdatedAt = time.Now().UTC()
		return tx.Update(productsCollection, id, map[string]any{
			"image":            updated.Image,
			"additionalImages": updated.AdditionalImages,
			"updatedAt":        updated.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	updated.ID = id
	updated = updated.ForDisplay()
	return &updated, nil
}

// DeleteProduct removes a product
func (ps *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := ps.Store.Get(ctx, productsCollection, id); err != nil {
		return notFound(err, "product "+id)
	}
	return ps.Store.Delete(ctx, productsCollection, id)
}

func validateProduct(p models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return invalid("name is required")
	case p.Price < 0:
		return invalid("price must not be negative")
	case p.Inventory < 0:
		return invalid("inventory must not be negative")
	case p.Discount < 0 || p.Discount > 100:
		return invalid("discount must be between 0 and 100")
	case p.BatteryHealth < 0 || p.BatteryHealth > 100:
		return invalid("batteryHealth must be between 0 and 100")
	}
	return nil
}

// mergeProduct applies a JSON-shaped patch to p
func mergeProduct(p models.Product, fields map[string]any) (models.Product, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return p, invalid("bad fields: %v", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, invalid("bad fields: %v", err)
	}
	return p, nil
}

// catalogRefs holds the catalog entries products may point at
type catalogRefs struct {
	brands     map[string]string // id -> name
	categories map[string]bool
	names      map[string]map[string]bool // product field -> entry names
}

func (ps *ProductService) loadRefs(ctx context.Context) (*catalogRefs, error) {
	refs := &catalogRefs{
		brands:     map[string]string{},
		categories: map[string]bool{},
		names:      map[string]map[string]bool{},
	}
	for _, kind := range models.CatalogKinds {
		items, err := store.All(ctx, ps.Store, kind.Collection, store.Query{}, setCatalogID)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind.Name, err)
		}
		set := map[string]bool{}
		for _, it := range items {
			switch kind.Collection {
			case models.Brands.Collection:
				refs.brands[it.ID] = it.Name
			case models.Categories.Collection:
				refs.categories[it.ID] = true
			default:
				set[it.Name] = true
			}
		}
		if !kind.ByID {
			refs.names[kind.ProductField] = set
		}
	}
	return refs, nil
}

// check verifies the catalog references of p and fills the denormalized
// brand name from brandId.
func (r *catalogRefs) check(p *models.Product) error {
	if p.BrandID != "" {
		name, ok := r.brands[p.BrandID]
		if !ok {
			return invalid("unknown brand %q", p.BrandID)
		}
		p.Brand = name
	}
	for _, id := range p.CategoryIDs {
		if !r.categories[id] {
			return invalid("unknown category %q", id)
		}
	}
	for field, value := range map[string]string{
		models.Conditions.ProductField:     p.Condition,
		models.StorageOptions.ProductField: p.Storage,
		models.Carriers.ProductField:       p.Carrier,
		models.Colors.ProductField:         p.Color,
	} {
		if value != "" && !r.names[field][value] {
			return invalid("unknown %s %q", field, value)
		}
	}
	return nil
}

func (ps *ProductService) resolveRefs(ctx context.Context, p *models.Product) error {
	refs, err := ps.loadRefs(ctx)
	if err != nil {
		return err
	}
	return refs.check(p)
}

func forDisplay(products []models.Product) []models.Product {
	for i := range products {
		products[i] = products[i].ForDisplay()
	}
	return products
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsAny(list, wanted []string) bool {
	for _, w := range wanted {
		if contains(list, w) {
			return true
		}
	}
	return false
}
