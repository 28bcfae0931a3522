package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/bookstore/internal/database"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// record is one idempotency key document. StatusCode zero marks a claim
// whose request has not completed yet.
type record struct {
	Key        string    `bson:"_id"`
	StatusCode int       `bson:"status_code"`
	Body       []byte    `bson:"body"`
	OrderID    string    `bson:"order_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

type Store struct {
	collection *mongo.Collection
}

func NewStore(client *mongo.Client, db string) *Store {
	return &Store{
		collection: client.Database(db).Collection(database.IdempotencyCollection),
	}
}

// Reserve claims the key with a unique-id insert. Exactly one concurrent
// caller wins the insert; everyone else observes the claim.
func (s *Store) Reserve(ctx context.Context, key string) (*ports.StoredResponse, bool, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	claim := record{Key: key, CreatedAt: time.Now().UTC()}
	if _, err := s.collection.InsertOne(ctx, claim); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, database.WrapOpError("reserve idempotency key", err)
		}
		stored, err := s.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		return stored, false, nil
	}

	return nil, true, nil
}

// Save fills in the response for a claimed key.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status_code": response.StatusCode,
		"body":        response.Body,
		"order_id":    response.OrderID,
	}, "$setOnInsert": bson.M{
		"created_at": time.Now().UTC(),
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return database.WrapOpError("save idempotency response", err)
	}
	return nil
}

// Delete drops the claim so a failed request can be retried.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return database.WrapOpError("delete idempotency key", err)
	}
	return nil
}

// Get returns the stored response for a key. An in-flight claim reads as not
// stored.
func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var rec record
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, database.WrapOpError("find idempotency key", err)
	}
	if rec.StatusCode == 0 {
		return nil, nil
	}

	return &ports.StoredResponse{
		StatusCode: rec.StatusCode,
		Body:       rec.Body,
		OrderID:    rec.OrderID,
	}, nil
}
