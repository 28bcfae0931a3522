package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dejobratic/bookstore/internal/catalog/adapters/memory"
	"github.com/dejobratic/bookstore/internal/catalog/app"
	"github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/catalog/ports"
)

func newService(repo *memory.Repository) *app.Service {
	return app.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createInput(title, isbn string) app.CreateBookInput {
	return app.CreateBookInput{
		Title:      title,
		Author:     "Frank Herbert",
		Genre:      "Fiction",
		ISBN:       isbn,
		PriceCents: 1999,
		Stock:      10,
	}
}

func TestCreateBook(t *testing.T) {
	t.Run("creates a book with generated id", func(t *testing.T) {
		service := newService(memory.NewRepository())

		book, err := service.CreateBook(context.Background(), createInput("Dune", "9780441013593"))

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if book.ID == "" {
			t.Error("expected book ID to be generated")
		}
		if book.Genre != domain.GenreFiction {
			t.Errorf("expected genre Fiction, got %s", book.Genre)
		}
		if book.CreatedAt.IsZero() || book.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("rejects a duplicate title", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		if _, err := service.CreateBook(ctx, createInput("Dune", "9780441013593")); err != nil {
			t.Fatalf("first create failed: %v", err)
		}

		_, err := service.CreateBook(ctx, createInput("Dune", "9780441013594"))

		if !errors.Is(err, ports.ErrDuplicateTitle) {
			t.Fatalf("expected ErrDuplicateTitle, got %v", err)
		}
	})

	t.Run("rejects an unknown genre", func(t *testing.T) {
		service := newService(memory.NewRepository())

		input := createInput("Dune", "9780441013593")
		input.Genre = "Fantasy"

		if _, err := service.CreateBook(context.Background(), input); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestGetBook(t *testing.T) {
	service := newService(memory.NewRepository())

	book, err := service.CreateBook(context.Background(), createInput("Dune", "9780441013593"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := service.GetBook(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.Title != "Dune" {
		t.Errorf("expected title Dune, got %s", got.Title)
	}

	if _, err := service.GetBook(context.Background(), "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBooks(t *testing.T) {
	service := newService(memory.NewRepository())
	ctx := context.Background()

	titles := []string{"Dune", "Foundation", "Hyperion", "Neuromancer", "Solaris"}
	for i, title := range titles {
		if _, err := service.CreateBook(ctx, createInput(title, "isbn-"+title)); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	t.Run("paginates with defaults", func(t *testing.T) {
		page, err := service.ListBooks(ctx, ports.ListFilter{})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if page.Total != 5 {
			t.Errorf("expected total 5, got %d", page.Total)
		}
		if page.Page != 1 {
			t.Errorf("expected page 1, got %d", page.Page)
		}
		if page.Pages != 1 {
			t.Errorf("expected 1 page, got %d", page.Pages)
		}
	})

	t.Run("respects page size", func(t *testing.T) {
		page, err := service.ListBooks(ctx, ports.ListFilter{Page: 2, PageSize: 2})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if len(page.Books) != 2 {
			t.Errorf("expected 2 books on page 2, got %d", len(page.Books))
		}
		if page.Pages != 3 {
			t.Errorf("expected 3 pages, got %d", page.Pages)
		}
	})
}

func TestUpdateBook(t *testing.T) {
	t.Run("applies a partial update", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		book, err := service.CreateBook(ctx, createInput("Dune", "9780441013593"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		price := int64(2499)
		updated, err := service.UpdateBook(ctx, book.ID, app.UpdateBookInput{PriceCents: &price})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if updated.PriceCents != 2499 {
			t.Errorf("expected price 2499, got %d", updated.PriceCents)
		}
		if updated.Title != "Dune" {
			t.Errorf("expected title unchanged, got %s", updated.Title)
		}
	})

	t.Run("re-checks title uniqueness on rename", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		if _, err := service.CreateBook(ctx, createInput("Dune", "isbn-1")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		other, err := service.CreateBook(ctx, createInput("Foundation", "isbn-2"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		title := "Dune"
		_, err = service.UpdateBook(ctx, other.ID, app.UpdateBookInput{Title: &title})

		if !errors.Is(err, ports.ErrDuplicateTitle) {
			t.Fatalf("expected ErrDuplicateTitle, got %v", err)
		}
	})

	t.Run("returns not found for a missing book", func(t *testing.T) {
		service := newService(memory.NewRepository())

		title := "Dune"
		_, err := service.UpdateBook(context.Background(), "missing", app.UpdateBookInput{Title: &title})

		if !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteBook(t *testing.T) {
	service := newService(memory.NewRepository())
	ctx := context.Background()

	book, err := service.CreateBook(ctx, createInput("Dune", "9780441013593"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if _, err := service.GetBook(ctx, book.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := service.DeleteBook(ctx, book.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
