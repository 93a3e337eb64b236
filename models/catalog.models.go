package models

import "time"

// CatalogItem is an entry of one of the store catalogs: categories, brands,
// conditions, storage options, carriers and colors. Featured and Image are
// only used by categories.
type CatalogItem struct {
	ID          string    `json:"id" firestore:"-" bson:"-"`
	Name        string    `json:"name" firestore:"name" bson:"name"`
	Slug        string    `json:"slug" firestore:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty" bson:"description,omitempty"`
	Featured    bool      `json:"featured,omitempty" firestore:"featured,omitempty" bson:"featured,omitempty"`
	Image       string    `json:"image,omitempty" firestore:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// CatalogKind describes one catalog collection and how products point at it
type CatalogKind struct {
	Name       string // URL segment, e.g. "storage-options"
	Collection string // document collection
	// ProductField is the product field referencing entries of this catalog
	ProductField string
	// ByID is true when products reference entries by id rather than by name
	ByID bool
	// Multi is true when the product field is an array
	Multi bool
}

var (
	Categories     = CatalogKind{Name: "categories", Collection: "categories", ProductField: "categoryIds", ByID: true, Multi: true}
	Brands         = CatalogKind{Name: "brands", Collection: "brands", ProductField: "brandId", ByID: true}
	Conditions     = CatalogKind{Name: "conditions", Collection: "conditions", ProductField: "condition"}
	StorageOptions = CatalogKind{Name: "storage-options", Collection: "storageOptions", ProductField: "storage"}
	Carriers       = CatalogKind{Name: "carriers", Collection: "carriers", ProductField: "carrier"}
	Colors         = CatalogKind{Name: "colors", Collection: "colors", ProductField: "color"}
)

// CatalogKinds lists every catalog in display order
var CatalogKinds = []CatalogKind{Categories, Brands, Conditions, StorageOptions, Carriers, Colors}

// CatalogKindByName finds a catalog by its URL segment
func CatalogKindByName(name string) (CatalogKind, bool) {
	for _, k := range CatalogKinds {
		if k.Name == name {
			return k, true
		}
	}
	return CatalogKind{}, false
}
