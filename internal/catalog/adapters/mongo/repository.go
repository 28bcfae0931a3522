package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewRepository(client *mongo.Client, db string) *Repository {
	return &Repository{
		client:     client,
		collection: client.Database(db).Collection(database.BooksCollection),
	}
}

func (r *Repository) Insert(ctx context.Context, book domain.Book) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return database.WrapOpError("insert book", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var book domain.Book
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, database.WrapOpError("find book", err)
	}
	return &book, nil
}

func (r *Repository) GetByTitle(ctx context.Context, title string) (*domain.Book, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	var book domain.Book
	err := r.collection.FindOne(ctx, bson.M{"title": title}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, database.WrapOpError("find book by title", err)
	}
	return &book, nil
}

func (r *Repository) GetManyByIDs(ctx context.Context, ids []string) (map[string]domain.Book, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, database.WrapOpError("find books", err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]domain.Book, len(ids))
	for cursor.Next(ctx) {
		var book domain.Book
		if err := cursor.Decode(&book); err != nil {
			return nil, database.WrapOpError("decode book", err)
		}
		result[book.ID] = book
	}
	if err := cursor.Err(); err != nil {
		return nil, database.WrapOpError("iterate books", err)
	}

	return result, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Book, int64, error) {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	query := bson.M{}
	if filter.Genre != nil {
		query["genre"] = *filter.Genre
	}
	if filter.Author != nil {
		query["author"] = *filter.Author
	}
	if filter.MinPriceCents != nil || filter.MaxPriceCents != nil {
		price := bson.M{}
		if filter.MinPriceCents != nil {
			price["$gte"] = *filter.MinPriceCents
		}
		if filter.MaxPriceCents != nil {
			price["$lte"] = *filter.MaxPriceCents
		}
		query["price_cents"] = price
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, database.WrapOpError("query books", err)
	}
	defer cursor.Close(ctx)

	var books []domain.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, 0, database.WrapOpError("decode books", err)
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, database.WrapOpError("count books", err)
	}

	return books, total, nil
}

func (r *Repository) Update(ctx context.Context, book domain.Book) error {
	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	book.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": book.ID}, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateKeyError(err)
		}
		return database.WrapOpError("update book", err)
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
		return database.WrapOpError("delete book", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// AdjustStock runs every delta inside one transaction. Decrements are
// conditional updates of the form "stock >= need", so a concurrent
// reservation can never drive stock negative; any unmatched update aborts
// the whole batch.
func (r *Repository) AdjustStock(ctx context.Context, adjustments []ports.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	ctx, cancel := database.WithOpTimeout(ctx)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return database.WrapOpError("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		ids := make([]string, 0, len(adjustments))
		for _, adj := range adjustments {
			ids = append(ids, adj.BookID)
		}

		existing, err := r.stocksByID(sc, ids)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		for _, adj := range adjustments {
			stock, ok := existing[adj.BookID]
			if !ok {
				return nil, &ports.UnknownBookError{BookID: adj.BookID}
			}

			filter := bson.M{"_id": adj.BookID}
			if adj.Delta < 0 {
				filter["stock"] = bson.M{"$gte": -adj.Delta}
			}

			update := bson.M{
				"$inc": bson.M{"stock": adj.Delta},
				"$set": bson.M{"updated_at": now},
			}

			result, err := r.collection.UpdateOne(sc, filter, update)
			if err != nil {
				return nil, database.WrapOpError("adjust stock for "+adj.BookID, err)
			}
			if result.MatchedCount == 0 {
				// Existence was verified in this transaction, so the
				// only way to miss is the stock guard.
				return nil, &ports.InsufficientStockError{
					BookID:    adj.BookID,
					Requested: -adj.Delta,
					Available: stock,
				}
			}
		}

		return nil, nil
	})

	return err
}

func (r *Repository) stocksByID(ctx context.Context, ids []string) (map[string]int, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "stock": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, database.WrapOpError("find stock levels", err)
	}
	defer cursor.Close(ctx)

	stocks := make(map[string]int, len(ids))
	for cursor.Next(ctx) {
		var doc struct {
			ID    string `bson:"_id"`
			Stock int    `bson:"stock"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, database.WrapOpError("decode stock level", err)
		}
		stocks[doc.ID] = doc.Stock
	}
	if err := cursor.Err(); err != nil {
		return nil, database.WrapOpError("iterate stock levels", err)
	}

	return stocks, nil
}

func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "title"):
		return ports.ErrDuplicateTitle
	case strings.Contains(msg, "isbn"):
		return ports.ErrDuplicateISBN
	default:
		return ports.ErrDuplicateTitle
	}
}
