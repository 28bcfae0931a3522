package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Service bundles catalog use cases exposed via the API.
type Service struct {
	repo   ports.BookRepository
	logger *slog.Logger
}

// NewService wires required dependencies.
func NewService(repo ports.BookRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateBookInput captures payload for adding a book to the catalog.
type CreateBookInput struct {
	Title       string
	Author      string
	Genre       string
	ISBN        string
	PriceCents  int64
	Description string
	Stock       int
}

// CreateBook adds a book, rejecting duplicate titles with ErrDuplicateTitle.
func (s *Service) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.CreateBook")
	defer span.End()

	if existing, err := s.repo.GetByTitle(ctx, input.Title); err != nil && !errors.Is(err, ports.ErrNotFound) {
		telemetry.RecordSpanError(span, err)
		return nil, fmt.Errorf("check title uniqueness: %w", err)
	} else if existing != nil {
		return nil, ports.ErrDuplicateTitle
	}

	now := time.Now().UTC()
	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Author:      input.Author,
		Genre:       domain.Genre(input.Genre),
		ISBN:        input.ISBN,
		PriceCents:  input.PriceCents,
		Description: input.Description,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, book); err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("book.id", book.ID))
	s.logger.InfoContext(ctx, "book created", "book_id", book.ID, "title", book.Title)

	return &book, nil
}

// GetBook returns one book by id.
func (s *Service) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.repo.GetByID(ctx, id)
}

// BookPage is one page of catalog listing results.
type BookPage struct {
	Books []domain.Book `json:"books"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// ListBooks returns a filtered page of the catalog.
func (s *Service) ListBooks(ctx context.Context, filter ports.ListFilter) (*BookPage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	filter.Page = page
	filter.PageSize = pageSize

	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []domain.Book{}
	}

	return &BookPage{
		Books: books,
		Total: total,
		Page:  page,
		Pages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateBookInput carries the fields that may change on a book. Nil pointers
// leave the stored value untouched. Stock is deliberately absent: stock moves
// only through the reservation engine.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	Genre       *string
	ISBN        *string
	PriceCents  *int64
	Description *string
}

// UpdateBook applies a partial update, re-checking title uniqueness on rename.
func (s *Service) UpdateBook(ctx context.Context, id string, input UpdateBookInput) (*domain.Book, error) {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.UpdateBook")
	defer span.End()

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil && *input.Title != book.Title {
		if existing, err := s.repo.GetByTitle(ctx, *input.Title); err != nil && !errors.Is(err, ports.ErrNotFound) {
			telemetry.RecordSpanError(span, err)
			return nil, fmt.Errorf("check title uniqueness: %w", err)
		} else if existing != nil {
			return nil, ports.ErrDuplicateTitle
		}
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Genre != nil {
		book.Genre = domain.Genre(*input.Genre)
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.PriceCents != nil {
		book.PriceCents = *input.PriceCents
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	book.UpdatedAt = time.Now().UTC()

	if err := book.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, *book); err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "book updated", "book_id", book.ID)

	return book, nil
}

// DeleteBook removes a book from the catalog.
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "Catalog.DeleteBook")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			telemetry.RecordSpanError(span, err)
		}
		return err
	}

	s.logger.InfoContext(ctx, "book deleted", "book_id", id)
	return nil
}
