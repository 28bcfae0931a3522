package mongo

import (
	"context"
	"errors"

	"github.com/dejobratic/bookstore/internal/auth/domain"
	"github.com/dejobratic/bookstore/internal/auth/ports"
	"github.com/dejobratic/bookstore/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *mongo.Client, db string) *Repository {
	return &Repository{
		collection: client.Database(db).Collection(database.CustomersCollection),
	}
}

func (r *Repository) Insert(ctx context.Context, customer domain.Customer) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, customer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ports.ErrEmailTaken
		}
		return database.WrapOpError("insert customer", err)
	}
	return nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var customer domain.Customer
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, database.WrapOpError("find customer by email", err)
	}
	return &customer, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var customer domain.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, database.WrapOpError("find customer", err)
	}
	return &customer, nil
}
