package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"go-phonestore/models"
	"go-phonestore/store"
)

// CatalogService manages the entries of one catalog collection
type CatalogService struct {
	Store store.Store
	Kind  models.CatalogKind
}

// NewCatalogService creates a CatalogService for kind
func NewCatalogService(s store.Store, kind models.CatalogKind) *CatalogService {
	return &CatalogService{Store: s, Kind: kind}
}

// NewCatalogServices creates a service per catalog, keyed by URL segment
func NewCatalogServices(s store.Store) map[string]*CatalogService {
	out := make(map[string]*CatalogService, len(models.CatalogKinds))
	for _, k := range models.CatalogKinds {
		out[k.Name] = NewCatalogService(s, k)
	}
	return out
}

func setCatalogID(c *models.CatalogItem, id string) { c.ID = id }

// Find lists the entries ordered by name
func (cs *CatalogService) Find(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := store.All(ctx, cs.Store, cs.Kind.Collection, store.Query{OrderBy: "name"}, setCatalogID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cs.Kind.Name, err)
	}
	return items, nil
}

// List is Find that logs failures and returns an empty list
func (cs *CatalogService) List(ctx context.Context) []models.CatalogItem {
	items, err := cs.Find(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "list catalog failed", "catalog", cs.Kind.Name, "error", err)
		return []models.CatalogItem{}
	}
	return items
}

// ListFeatured returns the featured entries, used for category navigation
func (cs *CatalogService) ListFeatured(ctx context.Context) []models.CatalogItem {
	q := store.Query{}.Where("featured", store.OpEqual, true)
	items, err := store.All(ctx, cs.Store, cs.Kind.Collection, q, setCatalogID)
	if err != nil {
		slog.ErrorContext(ctx, "list featured failed", "catalog", cs.Kind.Name, "error", err)
		return []models.CatalogItem{}
	}
	sortByName(items)
	return items
}

// Get returns one entry
func (cs *CatalogService) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	doc, err := cs.Store.Get(ctx, cs.Kind.Collection, id)
	if err != nil {
		return nil, notFound(err, cs.Kind.Name+" "+id)
	}
	var item models.CatalogItem
	if err := doc.DataTo(&item); err != nil {
		return nil, err
	}
	item.ID = doc.ID
	return &item, nil
}

// Add stores a new entry. The slug is derived from the name when empty.
func (cs *CatalogService) Add(ctx context.Context, item models.CatalogItem) (*models.CatalogItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, invalid("name is required")
	}
	if item.Slug == "" {
		item.Slug = Slugify(item.Name)
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = time.Time{}
	id, err := cs.Store.Create(ctx, cs.Kind.Collection, "", item)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", cs.Kind.Name, err)
	}
	item.ID = id
	return &item, nil
}

// Update merges fields into the entry and stamps updatedAt. Renaming an
// entry that products reference by name rewrites those products in the
// same transaction.
func (cs *CatalogService) Update(ctx context.Context, id string, fields map[string]any) (*models.CatalogItem, error) {
	delete(fields, "id")
	delete(fields, "createdAt")
	if name, ok := fields["name"].(string); ok {
		if strings.TrimSpace(name) == "" {
			return nil, invalid("name must not be empty")
		}
		fields["name"] = strings.TrimSpace(name)
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, invalid("bad fields: %v", err)
	}
	var updated models.CatalogItem
	err = cs.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		updated = models.CatalogItem{}
		doc, err := tx.Get(cs.Kind.Collection, id)
		if err != nil {
			return notFound(err, cs.Kind.Name+" "+id)
		}
		if err := doc.DataTo(&updated); err != nil {
			return err
		}
		oldName, createdAt := updated.Name, updated.CreatedAt
		if err := json.Unmarshal(b, &updated); err != nil {
			return invalid("bad fields: %v", err)
		}
		updated.CreatedAt = createdAt
		updated.UpdatedAt = time.Now().UTC()

		var refs []store.Document
		if !cs.Kind.ByID && updated.Name != oldName {
			q := store.Query{}.Where(cs.Kind.ProductField, store.OpEqual, oldName)
			refs, err = tx.Find(productsCollection, q)
			if err != nil {
				return fmt.Errorf("find %s references: %w", cs.Kind.Name, err)
			}
			if len(refs)+1 > store.MaxBatchSize {
				return conflict("%s %q is used by %d products, too many to rename at once", cs.Kind.Name, oldName, len(refs))
			}
		}
		if err := tx.Set(cs.Kind.Collection, id, updated); err != nil {
			return err
		}
		for _, ref := range refs {
			err := tx.Update(productsCollection, ref.ID, map[string]any{
				cs.Kind.ProductField: updated.Name,
				"updatedAt":          updated.UpdatedAt,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated.ID = id
	return &updated, nil
}

// Delete removes the entry unless products still reference it. The check
// and the delete share one transaction.
func (cs *CatalogService) Delete(ctx context.Context, id string) error {
	return cs.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.Get(cs.Kind.Collection, id)
		if err != nil {
			return notFound(err, cs.Kind.Name+" "+id)
		}
		var item models.CatalogItem
		if err := doc.DataTo(&item); err != nil {
			return err
		}
		ref := item.Name
		if cs.Kind.ByID {
			ref = id
		}
		op := store.OpEqual
		if cs.Kind.Multi {
			op = store.OpArrayContains
		}
		q := store.Query{Limit: 1}.Where(cs.Kind.ProductField, op, ref)
		docs, err := tx.Find(productsCollection, q)
		if err != nil {
			return fmt.Errorf("check %s references: %w", cs.Kind.Name, err)
		}
		if len(docs) > 0 {
			return conflict("%s %q is still used by products", cs.Kind.Name, item.Name)
		}
		return tx.Delete(cs.Kind.Collection, id)
	})
}

// Slugify lowercases s and joins its letters and digits with dashes
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

func sortByName(items []models.CatalogItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
}
