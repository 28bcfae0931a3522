package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the service.
const (
	BooksCollection       = "books"
	OrdersCollection      = "orders"
	CustomersCollection   = "customers"
	IdempotencyCollection = "idempotency_keys"
)

// OpTimeout bounds every individual store call.
const OpTimeout = 5 * time.Second

// ErrTimeout is surfaced when a store call exceeds OpTimeout, so callers can
// match one error kind regardless of how the driver reports the expiry.
var ErrTimeout = errors.New("store operation timed out")

// WithOpTimeout derives a per-call context for a store operation.
func WithOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, OpTimeout)
}

// WrapOpError annotates a store failure with the operation name, converting
// deadline expiry into ErrTimeout.
func WrapOpError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Connect establishes a MongoDB client and verifies connectivity with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

// CheckHealth verifies the database connection is alive.
func CheckHealth(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique and query indexes the service relies on.
// Uniqueness of book titles, ISBNs and customer emails is enforced here
// rather than by application-level checks alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	bookIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "isbn", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "genre", Value: 1}, {Key: "author", Value: 1}},
		},
	}
	if _, err := db.Collection(BooksCollection).Indexes().CreateMany(ctx, bookIndexes); err != nil {
		return fmt.Errorf("create book indexes: %w", err)
	}

	orderIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "order_date", Value: -1}},
		},
	}
	if _, err := db.Collection(OrdersCollection).Indexes().CreateMany(ctx, orderIndexes); err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}

	customerIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection(CustomersCollection).Indexes().CreateMany(ctx, customerIndexes); err != nil {
		return fmt.Errorf("create customer indexes: %w", err)
	}

	idemIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(24 * 60 * 60),
		},
	}
	if _, err := db.Collection(IdempotencyCollection).Indexes().CreateMany(ctx, idemIndexes); err != nil {
		return fmt.Errorf("create idempotency indexes: %w", err)
	}

	return nil
}
