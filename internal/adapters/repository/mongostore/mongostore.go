// Package mongostore implements the row store on MongoDB. Tables are
// collections and the id column maps to _id.
package mongostore

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/brandboard/internal/adapters/repository"
)

// Store reads documents from one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri and selects database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	const op = "mongostore.Open"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) All(ctx context.Context, table string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table); err != nil {
		return nil, err
	}
	return s.find(ctx, "mongostore.All", table, bson.M{}, 0)
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	return s.find(ctx, "mongostore.WhereEq", table, EqFilter(column, value), 0)
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []repository.Row{}, nil
	}
	return s.find(ctx, "mongostore.WhereIn", table, InFilter(column, values), 0)
}

func (s *Store) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	rows, err := s.find(ctx, "mongostore.Single", table, EqFilter(column, value), 2)
	if err != nil {
		return nil, err
	}
	return repository.One(rows)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) find(ctx context.Context, op, collection string, filter bson.M, limit int64) ([]repository.Row, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]repository.Row, len(docs))
	for i, d := range docs {
		out[i] = FromDocument(d)
	}
	return out, nil
}

// field maps the relational id column onto _id.
func field(column string) string {
	if column == "id" {
		return "_id"
	}
	return column
}

// candidates lists the typed forms a text value may be stored as.
func candidates(value string) bson.A {
	out := bson.A{value}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		out = append(out, n)
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			out = append(out, int32(n))
		}
	}
	if oid, err := primitive.ObjectIDFromHex(value); err == nil {
		out = append(out, oid)
	}
	return out
}

// EqFilter matches column against value in any of its stored forms.
func EqFilter(column, value string) bson.M {
	return bson.M{field(column): bson.M{"$in": candidates(value)}}
}

// InFilter matches column against any of values in any stored form.
func InFilter(column string, values []string) bson.M {
	all := bson.A{}
	for _, v := range values {
		all = append(all, candidates(v)...)
	}
	return bson.M{field(column): bson.M{"$in": all}}
}

// FromDocument converts a document to a row, exposing _id as id.
func FromDocument(d bson.M) repository.Row {
	row := make(repository.Row, len(d))
	for k, v := range d {
		if k == "_id" {
			k = "id"
		}
		switch x := v.(type) {
		case primitive.ObjectID:
			row[k] = x.Hex()
		case primitive.DateTime:
			row[k] = x.Time().UTC()
		case primitive.A:
			row[k] = []any(x)
		default:
			row[k] = v
		}
	}
	return row
}
