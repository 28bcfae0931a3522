package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
)

// Repository provides an in-memory catalog useful for local development and tests.
type Repository struct {
	mu    sync.RWMutex
	books map[string]domain.Book
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{books: make(map[string]domain.Book)}
}

// Insert stores a new book, enforcing title and ISBN uniqueness.
func (r *Repository) Insert(_ context.Context, book domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.books {
		if existing.Title == book.Title {
			return ports.ErrDuplicateTitle
		}
		if existing.ISBN == book.ISBN {
			return ports.ErrDuplicateISBN
		}
	}

	r.books[book.ID] = book
	return nil
}

// GetByID fetches a single book by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := book
	return &copy, nil
}

// GetByTitle fetches a single book by its exact title.
func (r *Repository) GetByTitle(_ context.Context, title string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, book := range r.books {
		if book.Title == title {
			copy := book
			return &copy, nil
		}
	}
	return nil, ports.ErrNotFound
}

// GetManyByIDs returns the books matching the given ids, keyed by id.
// Missing ids are simply absent from the result.
func (r *Repository) GetManyByIDs(_ context.Context, ids []string) (map[string]domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]domain.Book, len(ids))
	for _, id := range ids {
		if book, ok := r.books[id]; ok {
			result[id] = book
		}
	}
	return result, nil
}

// List returns a page of books matching the filter plus the total match count.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Book, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Book
	for _, book := range r.books {
		if filter.Genre != nil && book.Genre != *filter.Genre {
			continue
		}
		if filter.Author != nil && !strings.EqualFold(book.Author, *filter.Author) {
			continue
		}
		if filter.MinPriceCents != nil && book.PriceCents < *filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents != nil && book.PriceCents > *filter.MaxPriceCents {
			continue
		}
		matched = append(matched, book)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Title < matched[j].Title
	})

	total := int64(len(matched))

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.Book{}, total, nil
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	slice := make([]domain.Book, end-start)
	copy(slice, matched[start:end])

	return slice, total, nil
}

// Update replaces a stored book, re-checking title and ISBN uniqueness.
func (r *Repository) Update(_ context.Context, book domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[book.ID]; !ok {
		return ports.ErrNotFound
	}

	for id, existing := range r.books {
		if id == book.ID {
			continue
		}
		if existing.Title == book.Title {
			return ports.ErrDuplicateTitle
		}
		if existing.ISBN == book.ISBN {
			return ports.ErrDuplicateISBN
		}
	}

	r.books[book.ID] = book
	return nil
}

// Delete removes a book by id.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

// AdjustStock applies all deltas or none: every adjustment is checked under
// the lock before the first write happens.
func (r *Repository) AdjustStock(_ context.Context, adjustments []ports.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, adj := range adjustments {
		book, ok := r.books[adj.BookID]
		if !ok {
			return &ports.UnknownBookError{BookID: adj.BookID}
		}
		if book.Stock+adj.Delta < 0 {
			return &ports.InsufficientStockError{
				BookID:    adj.BookID,
				Requested: -adj.Delta,
				Available: book.Stock,
			}
		}
	}

	now := time.Now().UTC()
	for _, adj := range adjustments {
		book := r.books[adj.BookID]
		book.Stock += adj.Delta
		book.UpdatedAt = now
		r.books[adj.BookID] = book
	}

	return nil
}
