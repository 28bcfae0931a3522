package ports

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, int64, error)
	Update(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

// StockReserver is the reservation engine contract the order lifecycle
// depends on. No other component mutates stock.
type StockReserver interface {
	Reserve(ctx context.Context, items []inventory.LineItem) error
	Release(ctx context.Context, items []inventory.LineItem) error
	Rebalance(ctx context.Context, oldItems, newItems []inventory.LineItem) error
}

// BookCatalog resolves book details for pricing and display joins.
type BookCatalog interface {
	GetManyByIDs(ctx context.Context, ids []string) (map[string]catalogdomain.Book, error)
}

// ListFilter narrows list queries. Pagination is 1-based; results are
// ordered by order date, most recent first.
type ListFilter struct {
	CustomerID *string
	Status     *domain.OrderStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
