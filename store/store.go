// Package store is the document storage layer. Collections hold schemaless
// documents addressed by id; a path such as "users/u1/paymentMethods" names
// a subcollection. Backends: Firestore (production), MongoDB, and an
// in-memory store used by tests and local runs.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Create when the id is taken
	ErrAlreadyExists = errors.New("document already exists")
)

// MaxBatchSize is the largest number of writes committed together
const MaxBatchSize = 500

// Filter operators
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
	OpIn            = "in"
	OpGreaterEqual  = ">="
	OpGreater       = ">"
	OpLessEqual     = "<="
	OpLess          = "<"
)

// Direction of an ordering
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is a single server-side constraint
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query describes a server-side collection query. Zero Limit means no limit.
type Query struct {
	Filters   []Filter
	OrderBy   string
	Direction Direction
	Offset    int
	Limit     int
}

// Where returns a copy of q with an extra filter
func (q Query) Where(field, op string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Document is a fetched document
type Document struct {
	ID     string
	decode func(dst any) error
	raw    func() (map[string]any, error)
}

// DataTo decodes the document into a tagged struct
func (d Document) DataTo(dst any) error {
	return d.decode(dst)
}

// Data returns the document fields with timestamps as time.Time and nested
// values as plain maps and slices.
func (d Document) Data() (map[string]any, error) {
	return d.raw()
}

// Write is one operation of a batch
type Write struct {
	Collection string
	ID         string
	Data       any // nil with Delete
	Delete     bool
}

// Tx is the view of the store inside a transaction. All reads must happen
// before the first write.
type Tx interface {
	Get(collection, id string) (Document, error)
	Find(collection string, q Query) ([]Document, error)
	Set(collection, id string, data any) error
	Update(collection, id string, fields map[string]any) error
	Delete(collection, id string) error
}

// Store is implemented by every backend
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	// Create stores data under a new generated id, or under id when given
	Create(ctx context.Context, collection, id string, data any) (string, error)
	Set(ctx context.Context, collection, id string, data any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Batch commits writes in chunks of MaxBatchSize
	Batch(ctx context.Context, writes []Write) error
	Ping(ctx context.Context) error
	Close() error
}

// All decodes every document matching q
func All[T any](ctx context.Context, s Store, collection string, q Query, setID func(*T, string)) ([]T, error) {
	docs, err := s.Find(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	return DecodeAll(docs, setID)
}

// DecodeAll decodes documents into values of T
func DecodeAll[T any](docs []Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.DataTo(&v); err != nil {
			return nil, err
		}
		if setID != nil {
			setID(&v, d.ID)
		}
		out = append(out, v)
	}
	return out, nil
}

func chunks(writes []Write) [][]Write {
	var out [][]Write
	for start := 0; start < len(writes); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(writes) {
			end = len(writes)
		}
		out = append(out, writes[start:end])
	}
	return out
}
