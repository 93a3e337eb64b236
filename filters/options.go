package filters

import (
	"context"

	"golang.org/x/sync/errgroup"

	"go-phonestore/models"
)

// CatalogSource lists the entries of one catalog
type CatalogSource interface {
	Find(ctx context.Context) ([]models.CatalogItem, error)
}

// Options is everything the filter sidebar renders
type Options struct {
	Selected       State                `json:"selected"`
	Categories     []models.CatalogItem `json:"categories"`
	Brands         []models.CatalogItem `json:"brands"`
	Conditions     []models.CatalogItem `json:"conditions"`
	StorageOptions []models.CatalogItem `json:"storageOptions"`
	Carriers       []models.CatalogItem `json:"carriers"`
	Colors         []models.CatalogItem `json:"colors"`
	Price          Bounds               `json:"price"`
}

// LoadOptions fetches all catalogs concurrently. Any failure fails the whole
// load; the caller reports it without retrying.
func LoadOptions(ctx context.Context, catalogs map[string]CatalogSource, selected State, bounds Bounds) (*Options, error) {
	opts := &Options{Selected: selected, Price: bounds}
	targets := map[string]*[]models.CatalogItem{
		models.Categories.Name:     &opts.Categories,
		models.Brands.Name:         &opts.Brands,
		models.Conditions.Name:     &opts.Conditions,
		models.StorageOptions.Name: &opts.StorageOptions,
		models.Carriers.Name:       &opts.Carriers,
		models.Colors.Name:         &opts.Colors,
	}
	g, gctx := errgroup.WithContext(ctx)
	for name, dst := range targets {
		src, ok := catalogs[name]
		if !ok {
			*dst = []models.CatalogItem{}
			continue
		}
		g.Go(func() error {
			items, err := src.Find(gctx)
			if err != nil {
				return err
			}
			*dst = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return opts, nil
}
