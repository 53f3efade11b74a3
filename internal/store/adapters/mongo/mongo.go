// Package mongo implementa el backend de documentos sobre MongoDB.
//
// Todas las colecciones lógicas (incluidas las sub-colecciones) viven en una
// única colección física "documents":
//
//	{_id: "users/abc", docId: "abc", collection: "users", parent: "", data: {...}}
//	{_id: "users/abc/authentication/x1", docId: "x1", collection: "users/abc/authentication", parent: "users/abc", data: {...}}
//
// Los filtros y el orden se aplican sobre data.<campo>.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	physicalCollection = "documents"
	connectTimeout     = 10 * time.Second
)

func init() {
	store.RegisterAdapter(&mongoAdapter{})
}

type mongoAdapter struct{}

func (a *mongoAdapter) Name() string { return "mongo" }

func (a *mongoAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: empty URI")
	}
	client, err := connect(ctx, cfg.URI, connectTimeout)
	if err != nil {
		return nil, err
	}
	db := cfg.Database
	if db == "" {
		db = "hellousers"
	}
	conn := &Conn{client: client, col: client.Database(db).Collection(physicalCollection)}
	if err := conn.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return conn, nil
}

func connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// record es la forma física de un documento.
type record struct {
	Key        string `bson:"_id"`
	DocID      string `bson:"docId"`
	Collection string `bson:"collection"`
	Parent     string `bson:"parent"`
	Data       bson.M `bson:"data"`
}

// Conn implementa store.Connection.
type Conn struct {
	client *mongo.Client
	col    *mongo.Collection
}

func (c *Conn) Name() string { return "mongo" }

func (c *Conn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Conn) ensureIndexes(ctx context.Context) error {
	_, err := c.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "collection", Value: 1}, {Key: "docId", Value: 1}}},
		{Keys: bson.D{{Key: "parent", Value: 1}, {Key: "collection", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (c *Conn) Get(ctx context.Context, collection, id string) (*store.Snapshot, error) {
	var rec record
	err := c.col.FindOne(ctx, bson.M{"_id": store.DocPath(collection, id)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store.Snapshot{ID: rec.DocID, Data: normalizeMap(rec.Data)}, nil
}

func (c *Conn) Find(ctx context.Context, collection string, q store.Query) ([]store.Snapshot, error) {
	filter, err := buildFilter(collection, q)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(sortSpec(q.Order))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []store.Snapshot
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, store.Snapshot{ID: rec.DocID, Data: normalizeMap(rec.Data)})
	}
	return out, cur.Err()
}

func (c *Conn) Count(ctx context.Context, collection string, q store.Query) (int64, error) {
	q.After = nil
	filter, err := buildFilter(collection, q)
	if err != nil {
		return 0, err
	}
	return c.col.CountDocuments(ctx, filter)
}

func (c *Conn) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := primitive.NewObjectID().Hex()
	if _, err := c.col.InsertOne(ctx, newRecord(collection, id, data)); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Conn) Set(ctx context.Context, collection, id string, data map[string]any) error {
	rec := newRecord(collection, id, data)
	_, err := c.col.ReplaceOne(ctx, bson.M{"_id": rec.Key}, rec, options.Replace().SetUpsert(true))
	return err
}

func (c *Conn) Merge(ctx context.Context, collection, id string, data map[string]any) error {
	update, err := mergeUpdate(data)
	if err != nil {
		return err
	}
	res, err := c.col.UpdateOne(ctx, bson.M{"_id": store.DocPath(collection, id)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// mergeUpdate arma {$set: data.k, $unset: data.k} a partir del patch.
func mergeUpdate(data map[string]any) (bson.M, error) {
	set, unset := bson.M{}, bson.M{}
	for k, v := range data {
		if err := store.ValidateFieldName(k); err != nil {
			return nil, err
		}
		if store.IsUnset(v) {
			unset["data."+k] = ""
			continue
		}
		set["data."+k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

func (c *Conn) Delete(ctx context.Context, collection, id string) error {
	_, err := c.col.DeleteOne(ctx, bson.M{"_id": store.DocPath(collection, id)})
	return err
}

func (c *Conn) Collections(ctx context.Context, collection, id string) ([]string, error) {
	values, err := c.col.Distinct(ctx, "collection", bson.M{"parent": store.DocPath(collection, id)})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			names = append(names, path.Base(s))
		}
	}
	sort.Strings(names)
	return names, nil
}

func newRecord(collection, id string, data map[string]any) record {
	parent := ""
	if i := strings.LastIndex(collection, "/"); i > 0 {
		parent = collection[:i]
	}
	return record{
		Key:        store.DocPath(collection, id),
		DocID:      id,
		Collection: collection,
		Parent:     parent,
		Data:       bson.M(data),
	}
}
