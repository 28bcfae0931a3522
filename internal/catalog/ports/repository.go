package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/bookstore/internal/catalog/domain"
)

// BookRepository exposes persistence operations required by the catalog and
// the reservation engine.
type BookRepository interface {
	Insert(ctx context.Context, book domain.Book) error
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	GetByTitle(ctx context.Context, title string) (*domain.Book, error)
	GetManyByIDs(ctx context.Context, ids []string) (map[string]domain.Book, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Book, int64, error)
	Update(ctx context.Context, book domain.Book) error
	Delete(ctx context.Context, id string) error

	// AdjustStock applies every signed stock delta atomically: either all
	// books are adjusted or none are. It fails with UnknownBookError if any
	// id has no catalog record, and with InsufficientStockError if any
	// decrement would take stock below zero.
	AdjustStock(ctx context.Context, adjustments []StockAdjustment) error
}

// StockAdjustment is a signed stock delta for one book.
type StockAdjustment struct {
	BookID string
	Delta  int
}

// ListFilter narrows catalog queries. Pagination is 1-based.
type ListFilter struct {
	Genre         *domain.Genre
	Author        *string
	MinPriceCents *int64
	MaxPriceCents *int64
	Page          int
	PageSize      int
}

var (
	// ErrNotFound is returned when the requested book does not exist.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateTitle is returned when another book already uses the title.
	ErrDuplicateTitle = errors.New("book title already exists")
	// ErrDuplicateISBN is returned when another book already uses the ISBN.
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// UnknownBookError reports a stock adjustment referencing a missing book.
type UnknownBookError struct {
	BookID string
}

func (e *UnknownBookError) Error() string {
	return fmt.Sprintf("unknown book: %s", e.BookID)
}

// InsufficientStockError reports a decrement that would drive stock negative.
type InsufficientStockError struct {
	BookID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: requested %d, available %d", e.BookID, e.Requested, e.Available)
}
