//go:build integration

package mongo_test

import (
	"context"
	"testing"
	"time"

	catalogmongo "github.com/dejobratic/bookstore/internal/catalog/adapters/mongo"
	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	testmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// AdjustStock runs in a transaction, which needs a replica set.
func setupTestDB(t *testing.T) *mongo.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testmongo.Run(ctx, "mongo:7", testmongo.WithReplicaSet("rs0"))
	require.NoError(t, err, "failed to start mongo container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	client, err := database.Connect(ctx, uri)
	require.NoError(t, err, "failed to connect")

	t.Cleanup(func() {
		_ = client.Disconnect(ctx)
	})

	require.NoError(t, database.EnsureIndexes(ctx, client.Database("test")))

	return client
}

func seedBook(t *testing.T, repo *catalogmongo.Repository, id string, stock int) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Insert(context.Background(), domain.Book{
		ID:         id,
		Title:      "Title " + id,
		Author:     "Author " + id,
		Genre:      domain.GenreFiction,
		ISBN:       "isbn-" + id,
		PriceCents: 1500,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err, "failed to seed book %s", id)
}

func stockOf(t *testing.T, repo *catalogmongo.Repository, id string) int {
	t.Helper()
	book, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return book.Stock
}

func TestRepositoryInsert(t *testing.T) {
	repo := catalogmongo.NewRepository(setupTestDB(t), "test")
	seedBook(t, repo, "b1", 5)

	t.Run("rejects a duplicate title", func(t *testing.T) {
		now := time.Now().UTC()
		err := repo.Insert(context.Background(), domain.Book{
			ID: "b2", Title: "Title b1", Author: "Someone", Genre: domain.GenreFiction,
			ISBN: "isbn-other", PriceCents: 900, CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, ports.ErrDuplicateTitle)
	})

	t.Run("rejects a duplicate isbn", func(t *testing.T) {
		now := time.Now().UTC()
		err := repo.Insert(context.Background(), domain.Book{
			ID: "b3", Title: "Another Title", Author: "Someone", Genre: domain.GenreFiction,
			ISBN: "isbn-b1", PriceCents: 900, CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, ports.ErrDuplicateISBN)
	})
}

func TestRepositoryList(t *testing.T) {
	repo := catalogmongo.NewRepository(setupTestDB(t), "test")
	ctx := context.Background()
	now := time.Now().UTC()

	books := []domain.Book{
		{ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: domain.GenreFiction, ISBN: "i1", PriceCents: 1500, Stock: 5, CreatedAt: now, UpdatedAt: now},
		{ID: "b2", Title: "Cosmos", Author: "Carl Sagan", Genre: domain.GenreScience, ISBN: "i2", PriceCents: 2200, Stock: 3, CreatedAt: now, UpdatedAt: now},
		{ID: "b3", Title: "Contact", Author: "Carl Sagan", Genre: domain.GenreFiction, ISBN: "i3", PriceCents: 1100, Stock: 2, CreatedAt: now, UpdatedAt: now},
	}
	for _, book := range books {
		require.NoError(t, repo.Insert(ctx, book))
	}

	t.Run("sorts by title", func(t *testing.T) {
		result, total, err := repo.List(ctx, ports.ListFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, result, 3)
		assert.Equal(t, "Contact", result[0].Title)
		assert.Equal(t, "Dune", result[2].Title)
	})

	t.Run("filters by genre", func(t *testing.T) {
		genre := domain.GenreScience
		result, total, err := repo.List(ctx, ports.ListFilter{Genre: &genre})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, result, 1)
		assert.Equal(t, "Cosmos", result[0].Title)
	})

	t.Run("filters by price range", func(t *testing.T) {
		minPrice, maxPrice := int64(1000), int64(1600)
		result, _, err := repo.List(ctx, ports.ListFilter{MinPriceCents: &minPrice, MaxPriceCents: &maxPrice})
		require.NoError(t, err)
		assert.Len(t, result, 2)
	})

	t.Run("paginates", func(t *testing.T) {
		result, total, err := repo.List(ctx, ports.ListFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, result, 1)
		assert.Equal(t, "Dune", result[0].Title)
	})
}

func TestRepositoryAdjustStock(t *testing.T) {
	t.Run("applies all adjustments", func(t *testing.T) {
		repo := catalogmongo.NewRepository(setupTestDB(t), "test")
		seedBook(t, repo, "b1", 10)
		seedBook(t, repo, "b2", 5)

		err := repo.AdjustStock(context.Background(), []ports.StockAdjustment{
			{BookID: "b1", Delta: -3},
			{BookID: "b2", Delta: 2},
		})

		require.NoError(t, err)
		assert.Equal(t, 7, stockOf(t, repo, "b1"))
		assert.Equal(t, 7, stockOf(t, repo, "b2"))
	})

	t.Run("aborts the whole batch when stock would go negative", func(t *testing.T) {
		repo := catalogmongo.NewRepository(setupTestDB(t), "test")
		seedBook(t, repo, "b1", 10)
		seedBook(t, repo, "b2", 1)

		err := repo.AdjustStock(context.Background(), []ports.StockAdjustment{
			{BookID: "b1", Delta: -3},
			{BookID: "b2", Delta: -2},
		})

		var insufficient *ports.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "b2", insufficient.BookID)
		assert.Equal(t, 10, stockOf(t, repo, "b1"), "expected no partial decrement")
		assert.Equal(t, 1, stockOf(t, repo, "b2"))
	})

	t.Run("aborts the whole batch on an unknown book", func(t *testing.T) {
		repo := catalogmongo.NewRepository(setupTestDB(t), "test")
		seedBook(t, repo, "b1", 10)

		err := repo.AdjustStock(context.Background(), []ports.StockAdjustment{
			{BookID: "b1", Delta: -3},
			{BookID: "missing", Delta: -1},
		})

		var unknown *ports.UnknownBookError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.BookID)
		assert.Equal(t, 10, stockOf(t, repo, "b1"))
	})
}
