package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/bookstore/internal/database"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(client *mongo.Client, db string) *Repository {
	return &Repository{
		collection: client.Database(db).Collection(database.OrdersCollection),
	}
}

func (r *Repository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return database.WrapOpError("insert order", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, database.WrapOpError("find order", err)
	}
	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, int64, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	query := bson.M{}
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.From != nil || filter.To != nil {
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lte"] = *filter.To
		}
		query["order_date"] = dateRange
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, database.WrapOpError("count orders", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "order_date", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, database.WrapOpError("find orders", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, database.WrapOpError("decode orders", err)
	}

	return orders, total, nil
}

func (r *Repository) Update(ctx context.Context, order domain.Order) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return database.WrapOpError("update order", err)
	}
	if result.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return database.WrapOpError("update order status", err)
	}
	if result.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return database.WrapOpError("delete order", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}
