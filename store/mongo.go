package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the MongoDB backend. Subcollection paths are flattened into
// dotted collection names ("users/u1/paymentMethods" becomes
// "users.u1.paymentMethods"). Transactions need a replica set.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

var _ Store = (*Mongo)(nil)

// NewMongo connects to MongoDB and verifies the connection
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	slog.Info("mongodb connected", "database", database)
	return &Mongo{Client: client, DB: client.Database(database)}, nil
}

func (s *Mongo) col(collection string) *mongo.Collection {
	return s.DB.Collection(strings.ReplaceAll(collection, "/", "."))
}

func rawID(raw bson.Raw) string {
	v := raw.Lookup("_id")
	if str, ok := v.StringValueOK(); ok {
		return str
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.String()
}

func mongoDocument(raw bson.Raw) Document {
	raw = append(bson.Raw(nil), raw...)
	return Document{
		ID: rawID(raw),
		decode: func(dst any) error {
			return bson.Unmarshal(raw, dst)
		},
		raw: func() (map[string]any, error) {
			var m bson.M
			if err := bson.Unmarshal(raw, &m); err != nil {
				return nil, err
			}
			delete(m, "_id")
			return normalizeBSON(m), nil
		},
	}
}

func normalizeBSON(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeBSONValue(v)
	}
	return out
}

func normalizeBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case bson.M:
		return normalizeBSON(t)
	case map[string]any:
		return normalizeBSON(t)
	case bson.D:
		return normalizeBSON(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalizeBSONValue(el)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalizeBSONValue(el)
		}
		return out
	case int32:
		return int64(t)
	default:
		return v
	}
}

// toBSON converts data to a document carrying the given _id
func toBSON(id string, data any) (bson.M, error) {
	b, err := bson.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	delete(m, "id")
	m["_id"] = id
	return m, nil
}

func mongoFilter(q Query) bson.M {
	var conds []bson.M
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpArrayContains:
			conds = append(conds, bson.M{f.Field: f.Value})
		case OpIn:
			conds = append(conds, bson.M{f.Field: bson.M{"$in": f.Value}})
		case OpGreaterEqual:
			conds = append(conds, bson.M{f.Field: bson.M{"$gte": f.Value}})
		case OpGreater:
			conds = append(conds, bson.M{f.Field: bson.M{"$gt": f.Value}})
		case OpLessEqual:
			conds = append(conds, bson.M{f.Field: bson.M{"$lte": f.Value}})
		case OpLess:
			conds = append(conds, bson.M{f.Field: bson.M{"$lt": f.Value}})
		}
	}
	if q.OrderBy != "" {
		// match Firestore, which skips documents without the ordering field
		conds = append(conds, bson.M{q.OrderBy: bson.M{"$exists": true}})
	}
	if len(conds) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": conds}
}

func mongoFindOptions(q Query) *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Direction == Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func (s *Mongo) get(ctx context.Context, collection, id string) (Document, error) {
	raw, err := s.col(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return mongoDocument(raw), nil
}

func (s *Mongo) find(ctx context.Context, collection string, q Query) ([]Document, error) {
	cursor, err := s.col(collection).Find(ctx, mongoFilter(q), mongoFindOptions(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Document
	for cursor.Next(ctx) {
		out = append(out, mongoDocument(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) set(ctx context.Context, collection, id string, data any) error {
	doc, err := toBSON(id, data)
	if err != nil {
		return err
	}
	_, err = s.col(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res, err := s.col(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) delete(ctx context.Context, collection, id string) error {
	_, err := s.col(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.get(ctx, collection, id)
}

func (s *Mongo) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	return s.find(ctx, collection, q)
}

func (s *Mongo) Create(ctx context.Context, collection, id string, data any) (string, error) {
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc, err := toBSON(id, data)
	if err != nil {
		return "", err
	}
	if _, err := s.col(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrAlreadyExists
		}
		return "", err
	}
	return id, nil
}

func (s *Mongo) Set(ctx context.Context, collection, id string, data any) error {
	return s.set(ctx, collection, id, data)
}

func (s *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.update(ctx, collection, id, fields)
}

func (s *Mongo) Delete(ctx context.Context, collection, id string) error {
	return s.delete(ctx, collection, id)
}

type mongoTx struct {
	s   *Mongo
	ctx mongo.SessionContext
}

func (t mongoTx) Get(collection, id string) (Document, error) {
	return t.s.get(t.ctx, collection, id)
}

func (t mongoTx) Find(collection string, q Query) ([]Document, error) {
	return t.s.find(t.ctx, collection, q)
}

func (t mongoTx) Set(collection, id string, data any) error {
	return t.s.set(t.ctx, collection, id, data)
}

func (t mongoTx) Update(collection, id string, fields map[string]any) error {
	return t.s.update(t.ctx, collection, id, fields)
}

func (t mongoTx) Delete(collection, id string) error {
	return t.s.delete(t.ctx, collection, id)
}

func (s *Mongo) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sess, err := s.Client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, mongoTx{s: s, ctx: sc})
	})
	return err
}

func (s *Mongo) Batch(ctx context.Context, writes []Write) error {
	for _, chunk := range chunks(writes) {
		byCol := map[string][]mongo.WriteModel{}
		var order []string
		for _, w := range chunk {
			if _, seen := byCol[w.Collection]; !seen {
				order = append(order, w.Collection)
			}
			if w.Delete {
				byCol[w.Collection] = append(byCol[w.Collection], mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": w.ID}))
				continue
			}
			doc, err := toBSON(w.ID, w.Data)
			if err != nil {
				return err
			}
			byCol[w.Collection] = append(byCol[w.Collection],
				mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": w.ID}).SetReplacement(doc).SetUpsert(true))
		}
		for _, name := range order {
			if _, err := s.col(name).BulkWrite(ctx, byCol[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Mongo) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}
