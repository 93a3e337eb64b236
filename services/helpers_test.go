package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-phonestore/events"
	"go-phonestore/models"
	"go-phonestore/store"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func price(v float64) *float64 { return &v }

// putProducts writes products as-is, skipping reference checks
func putProducts(t *testing.T, s store.Store, products ...models.Product) {
	t.Helper()
	for _, p := range products {
		require.NoError(t, s.Set(context.Background(), productsCollection, p.ID, p))
	}
}

func productIDs(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

type recordedEvents struct {
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) publisher() events.Publisher {
	return &events.Direct{Handler: r.handle, Sync: true}
}

var errStoreDown = errors.New("store down")

// failingFind is a store whose queries fail
type failingFind struct {
	store.Store
}

func (failingFind) Find(context.Context, string, store.Query) ([]store.Document, error) {
	return nil, errStoreDown
}

// retryingStore runs every transaction function twice, the first time
// with its writes dropped, the way Firestore retries after contention.
type retryingStore struct {
	store.Store
}

func (r retryingStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return r.Store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := fn(ctx, droppedWrites{tx}); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

type droppedWrites struct {
	store.Tx
}

func (droppedWrites) Set(string, string, any) error               { return nil }
func (droppedWrites) Update(string, string, map[string]any) error { return nil }
func (droppedWrites) Delete(string, string) error                 { return nil }
