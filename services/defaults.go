package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-phonestore/store"
)

// defaultSet is a per-user collection whose entries carry an isDefault flag.
// Every change to the flags runs inside one transaction, so concurrent
// callers always leave exactly one default behind.
type defaultSet struct {
	store      store.Store
	collection string
	query      store.Query // selects the user's entries
}

func isDefaultDoc(d store.Document) bool {
	data, err := d.Data()
	if err != nil {
		return false
	}
	v, _ := data["isDefault"].(bool)
	return v
}

// add stores a new entry. build receives the generated id and whether the
// entry must be the default, and returns the document to write.
func (ds defaultSet) add(ctx context.Context, wantDefault bool, build func(id string, isDefault bool) any) (string, error) {
	id := uuid.NewString()
	err := ds.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		docs, err := tx.Find(ds.collection, ds.query)
		if err != nil {
			return err
		}
		isDefault := wantDefault || len(docs) == 0
		var unset []string
		if isDefault {
			for _, d := range docs {
				if isDefaultDoc(d) {
					unset = append(unset, d.ID)
				}
			}
		}
		now := time.Now().UTC()
		for _, other := range unset {
			if err := tx.Update(ds.collection, other, map[string]any{"isDefault": false, "updatedAt": now}); err != nil {
				return err
			}
		}
		return tx.Set(ds.collection, id, build(id, isDefault))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// setDefault makes id the only default entry
func (ds defaultSet) setDefault(ctx context.Context, id string) error {
	return ds.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		docs, err := tx.Find(ds.collection, ds.query)
		if err != nil {
			return err
		}
		found := false
		var unset []string
		for _, d := range docs {
			if d.ID == id {
				found = true
				continue
			}
			if isDefaultDoc(d) {
				unset = append(unset, d.ID)
			}
		}
		if !found {
			return notFound(store.ErrNotFound, ds.collection+" "+id)
		}
		now := time.Now().UTC()
		for _, other := range unset {
			if err := tx.Update(ds.collection, other, map[string]any{"isDefault": false, "updatedAt": now}); err != nil {
				return err
			}
		}
		return tx.Update(ds.collection, id, map[string]any{"isDefault": true, "updatedAt": now})
	})
}
