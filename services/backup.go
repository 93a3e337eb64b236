package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"go-phonestore/store"
)

// BackupCollections are the collections included in a full export
var BackupCollections = []string{
	"products", "categories", "brands", "conditions", "storageOptions", "carriers", "colors",
	"orders", "addresses", "users", "carts", "settings",
}

// keyedCollections use meaningful document ids that are kept on import
// even without PreserveIDs.
var keyedCollections = map[string]bool{"carts": true, "settings": true, "users": true}

// Backup is the interchange format: collection name to documents. Every
// document carries its id under "id" and timestamps as RFC 3339 UTC strings.
type Backup map[string][]map[string]any

// ImportOptions control Import
type ImportOptions struct {
	PreserveIDs bool `json:"preserveIds"`
	Clear       bool `json:"clear"`
}

// ImportResult reports the number of documents written per collection
type ImportResult struct {
	Deleted  map[string]int `json:"deleted,omitempty"`
	Imported map[string]int `json:"imported"`
}

// BackupService exports and restores collections
type BackupService struct {
	Store store.Store
}

// NewBackupService creates a BackupService
func NewBackupService(s store.Store) *BackupService {
	return &BackupService{Store: s}
}

func checkCollections(names []string) error {
	known := map[string]bool{}
	for _, c := range BackupCollections {
		known[c] = true
	}
	for _, n := range names {
		if !known[n] {
			return invalid("unknown collection %q", n)
		}
	}
	return nil
}

// Export reads the given collections, all of BackupCollections when empty
func (bs *BackupService) Export(ctx context.Context, collections []string) (Backup, error) {
	if len(collections) == 0 {
		collections = BackupCollections
	}
	if err := checkCollections(collections); err != nil {
		return nil, err
	}
	out := Backup{}
	for _, col := range collections {
		docs, err := bs.Store.Find(ctx, col, store.Query{})
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", col, err)
		}
		items := make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			data, err := d.Data()
			if err != nil {
				return nil, fmt.Errorf("export %s/%s: %w", col, d.ID, err)
			}
			item := store.EncodeTimestamps(data).(map[string]any)
			item["id"] = d.ID
			items = append(items, item)
		}
		out[col] = items
	}
	return out, nil
}

// Import writes a backup with batched writes. With Clear the target
// collections are emptied first.
func (bs *BackupService) Import(ctx context.Context, backup Backup, opts ImportOptions) (*ImportResult, error) {
	names := make([]string, 0, len(backup))
	for col := range backup {
		names = append(names, col)
	}
	if err := checkCollections(names); err != nil {
		return nil, err
	}

	res := &ImportResult{Imported: map[string]int{}}
	if opts.Clear {
		res.Deleted = map[string]int{}
		for _, col := range names {
			n, err := bs.DeleteCollection(ctx, col)
			if err != nil {
				return nil, err
			}
			res.Deleted[col] = n
		}
	}

	var writes []store.Write
	for col, docs := range backup {
		for _, doc := range docs {
			id, _ := doc["id"].(string)
			if id == "" || (!opts.PreserveIDs && !keyedCollections[col]) {
				id = uuid.NewString()
			}
			data := make(map[string]any, len(doc))
			for k, v := range doc {
				if k != "id" {
					data[k] = v
				}
			}
			writes = append(writes, store.Write{Collection: col, ID: id, Data: store.RestoreTimestamps(data)})
		}
		res.Imported[col] = len(docs)
	}
	if err := bs.Store.Batch(ctx, writes); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	slog.InfoContext(ctx, "backup imported", "documents", len(writes), "preserve_ids", opts.PreserveIDs, "clear", opts.Clear)
	return res, nil
}

// DeleteCollection removes every document of a collection in batches and
// returns how many were deleted.
func (bs *BackupService) DeleteCollection(ctx context.Context, col string) (int, error) {
	if err := checkCollections([]string{col}); err != nil {
		return 0, err
	}
	docs, err := bs.Store.Find(ctx, col, store.Query{})
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", col, err)
	}
	writes := make([]store.Write, 0, len(docs))
	for _, d := range docs {
		writes = append(writes, store.Write{Collection: col, ID: d.ID, Delete: true})
	}
	if err := bs.Store.Batch(ctx, writes); err != nil {
		return 0, fmt.Errorf("delete %s: %w", col, err)
	}
	return len(docs), nil
}
