package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the Cloud Firestore backend
type Firestore struct {
	Client    *firestore.Client
	ProjectID string
}

var _ Store = (*Firestore)(nil)

// NewFirestore connects to Firestore. An empty credentialsFile uses
// Application Default Credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	slog.Info("firestore connected", "project", projectID)
	return &Firestore{Client: client, ProjectID: projectID}, nil
}

func (s *Firestore) col(collection string) *firestore.CollectionRef {
	return s.Client.Collection(collection)
}

func fsDocument(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:     snap.Ref.ID,
		decode: snap.DataTo,
		raw: func() (map[string]any, error) {
			return normalizeFirestore(snap.Data()), nil
		},
	}
}

func normalizeFirestore(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeFirestoreValue(v)
	}
	return out
}

func normalizeFirestoreValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case map[string]any:
		return normalizeFirestore(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalizeFirestoreValue(el)
		}
		return out
	default:
		return v
	}
}

func mapFirestoreErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	}
	return err
}

func (s *Firestore) query(collection string, q Query) firestore.Query {
	fq := s.col(collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, f.Op, f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func toUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return updates
}

func (s *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrNotFound
	}
	snap, err := s.col(collection).Doc(id).Get(ctx)
	if err != nil {
		return Document{}, mapFirestoreErr(err)
	}
	return fsDocument(snap), nil
}

func (s *Firestore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	snaps, err := s.query(collection, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, fsDocument(snap))
	}
	return out, nil
}

func (s *Firestore) Create(ctx context.Context, collection, id string, data any) (string, error) {
	var ref *firestore.DocumentRef
	if strings.TrimSpace(id) == "" {
		ref = s.col(collection).NewDoc()
	} else {
		ref = s.col(collection).Doc(id)
	}
	if _, err := ref.Create(ctx, data); err != nil {
		return "", mapFirestoreErr(err)
	}
	return ref.ID, nil
}

func (s *Firestore) Set(ctx context.Context, collection, id string, data any) error {
	_, err := s.col(collection).Doc(id).Set(ctx, data)
	return mapFirestoreErr(err)
}

func (s *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.col(collection).Doc(id).Update(ctx, toUpdates(fields))
	return mapFirestoreErr(err)
}

func (s *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.col(collection).Doc(id).Delete(ctx)
	return mapFirestoreErr(err)
}

type fsTx struct {
	s  *Firestore
	tx *firestore.Transaction
}

func (t fsTx) Get(collection, id string) (Document, error) {
	snap, err := t.tx.Get(t.s.col(collection).Doc(id))
	if err != nil {
		return Document{}, mapFirestoreErr(err)
	}
	return fsDocument(snap), nil
}

func (t fsTx) Find(collection string, q Query) ([]Document, error) {
	snaps, err := t.tx.Documents(t.s.query(collection, q)).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, fsDocument(snap))
	}
	return out, nil
}

func (t fsTx) Set(collection, id string, data any) error {
	return t.tx.Set(t.s.col(collection).Doc(id), data)
}

func (t fsTx) Update(collection, id string, fields map[string]any) error {
	return t.tx.Update(t.s.col(collection).Doc(id), toUpdates(fields))
}

func (t fsTx) Delete(collection, id string) error {
	return t.tx.Delete(t.s.col(collection).Doc(id))
}

func (s *Firestore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, fsTx{s: s, tx: tx})
	})
	return mapFirestoreErr(err)
}

func (s *Firestore) Batch(ctx context.Context, writes []Write) error {
	for _, chunk := range chunks(writes) {
		batch := s.Client.Batch()
		for _, w := range chunk {
			ref := s.col(w.Collection).Doc(w.ID)
			if w.Delete {
				batch.Delete(ref)
			} else {
				batch.Set(ref, w.Data)
			}
		}
		if _, err := batch.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping lists root collections since Firestore has no ping call
func (s *Firestore) Ping(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	if _, err := s.Client.Collections(ctx).GetAll(); err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (s *Firestore) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
