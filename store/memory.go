package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// errReadAfterWrite mirrors Firestore, which rejects reads issued after a
// write in the same transaction.
var errReadAfterWrite = errors.New("store: read after write in transaction")

// Memory is an in-process Store. Transactions hold the store lock, so they
// are serializable.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{cols: map[string]map[string]map[string]any{}}
}

var _ Store = (*Memory)(nil)

func memDocument(id string, data map[string]any) (Document, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID: id,
		decode: func(dst any) error {
			return json.Unmarshal(b, dst)
		},
		raw: func() (map[string]any, error) {
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return nil, err
			}
			return RestoreTimestamps(m), nil
		},
	}, nil
}

func (m *Memory) get(collection, id string) (Document, error) {
	data, ok := m.cols[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return memDocument(id, data)
}

func (m *Memory) find(collection string, q Query) ([]Document, error) {
	col := m.cols[collection]
	ids := make([]string, 0, len(col))
	for id, data := range col {
		keep := true
		for _, f := range q.Filters {
			if !matchFilter(data, f) {
				keep = false
				break
			}
		}
		if keep && q.OrderBy != "" {
			// documents without the ordering field are not returned
			if _, ok := lookup(data, q.OrderBy); !ok {
				keep = false
			}
		}
		if keep {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if q.OrderBy != "" {
		sort.SliceStable(ids, func(i, j int) bool {
			a, _ := lookup(col[ids[i]], q.OrderBy)
			b, _ := lookup(col[ids[j]], q.OrderBy)
			c, _ := compareValues(a, b)
			if q.Direction == Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[q.Offset:]
		}
	}
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		d, err := memDocument(id, col[id])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *Memory) put(collection, id string, data map[string]any) {
	col, ok := m.cols[collection]
	if !ok {
		col = map[string]map[string]any{}
		m.cols[collection] = col
	}
	col[id] = data
}

func (m *Memory) merge(collection, id string, fields map[string]any) error {
	cur, ok := m.cols[collection][id]
	if !ok {
		return ErrNotFound
	}
	patch, err := toMap(fields)
	if err != nil {
		return err
	}
	next := make(map[string]any, len(cur)+len(patch))
	for k, v := range cur {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = v
	}
	m.cols[collection][id] = next
	return nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(collection, id)
}

func (m *Memory) Find(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(collection, q)
}

func (m *Memory) Create(_ context.Context, collection, id string, data any) (string, error) {
	doc, err := toMap(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := m.cols[collection][id]; exists {
		return "", ErrAlreadyExists
	}
	m.put(collection, id, doc)
	return id, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data any) error {
	doc, err := toMap(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, doc)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.merge(collection, id, fields)
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cols[collection], id)
	return nil
}

type memWrite struct {
	collection, id string
	data           map[string]any
	fields         map[string]any
	del            bool
}

type memTx struct {
	m      *Memory
	writes []memWrite
}

func (t *memTx) Get(collection, id string) (Document, error) {
	if len(t.writes) > 0 {
		return Document{}, errReadAfterWrite
	}
	return t.m.get(collection, id)
}

func (t *memTx) Find(collection string, q Query) ([]Document, error) {
	if len(t.writes) > 0 {
		return nil, errReadAfterWrite
	}
	return t.m.find(collection, q)
}

func (t *memTx) Set(collection, id string, data any) error {
	doc, err := toMap(data)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, memWrite{collection: collection, id: id, data: doc})
	return nil
}

func (t *memTx) Update(collection, id string, fields map[string]any) error {
	if _, ok := t.m.cols[collection][id]; !ok {
		return ErrNotFound
	}
	t.writes = append(t.writes, memWrite{collection: collection, id: id, fields: fields})
	return nil
}

func (t *memTx) Delete(collection, id string) error {
	t.writes = append(t.writes, memWrite{collection: collection, id: id, del: true})
	return nil
}

func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{m: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, w := range tx.writes {
		switch {
		case w.del:
			delete(m.cols[w.collection], w.id)
		case w.fields != nil:
			if err := m.merge(w.collection, w.id, w.fields); err != nil {
				return err
			}
		default:
			m.put(w.collection, w.id, w.data)
		}
	}
	return nil
}

func (m *Memory) Batch(_ context.Context, writes []Write) error {
	prepared := make([]memWrite, 0, len(writes))
	for _, w := range writes {
		if w.Delete {
			prepared = append(prepared, memWrite{collection: w.Collection, id: w.ID, del: true})
			continue
		}
		doc, err := toMap(w.Data)
		if err != nil {
			return err
		}
		prepared = append(prepared, memWrite{collection: w.Collection, id: w.ID, data: doc})
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range prepared {
		if w.del {
			delete(m.cols[w.collection], w.id)
			continue
		}
		m.put(w.collection, w.id, w.data)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
