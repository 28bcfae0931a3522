package commands_test

import (
	"context"
	"errors"
	"testing"

	catalogports "github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/app/commands"
	"github.com/dejobratic/bookstore/internal/orders/domain"
)

func TestCreateOrder(t *testing.T) {
	t.Run("creates pending order with valid input", func(t *testing.T) {
		repo := &mockRepository{}
		reserver := &mockReserver{}
		events := &mockEventBus{}
		handler := commands.NewCreateOrderCommandHandler(repo, reserver, catalogWith(1500, "book-1", "book-2"), events)

		cmd := commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items: []commands.ItemInput{
				{BookID: "book-1", Quantity: 2},
				{BookID: "book-2", Quantity: 1},
			},
		}

		order, err := handler.Handle(context.Background(), cmd)

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if order == nil {
			t.Fatal("expected order to be returned, got nil")
		}

		if order.CustomerID != cmd.CustomerID {
			t.Errorf("expected customer id %s, got %s", cmd.CustomerID, order.CustomerID)
		}

		if order.Status != domain.StatusPending {
			t.Errorf("expected status %s, got %s", domain.StatusPending, order.Status)
		}

		if order.ID == "" {
			t.Error("expected order ID to be generated")
		}

		if order.TotalAmountCents != 3*1500 {
			t.Errorf("expected total %d, got %d", 3*1500, order.TotalAmountCents)
		}
	})

	t.Run("captures unit prices from the catalog", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(999, "book-1"), &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items:      []commands.ItemInput{{BookID: "book-1", Quantity: 3}},
		})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if order.Items[0].UnitPriceCents != 999 {
			t.Errorf("expected unit price 999, got %d", order.Items[0].UnitPriceCents)
		}
	})

	t.Run("returns validation error when customer id is empty", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(1000, "book-1"), &mockEventBus{})

		cmd := commands.CreateOrderCommand{
			Items: []commands.ItemInput{{BookID: "book-1", Quantity: 1}},
		}

		order, err := handler.Handle(context.Background(), cmd)

		if err == nil {
			t.Fatal("expected error, got nil")
		}

		if err.Error() != "customer_id is required" {
			t.Errorf("expected error %q, got %q", "customer_id is required", err.Error())
		}

		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("returns validation error when items are empty", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(1000), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{CustomerID: "customer-1"})

		if err == nil {
			t.Fatal("expected error, got nil")
		}

		if err.Error() != "items must contain at least one entry" {
			t.Errorf("expected error %q, got %q", "items must contain at least one entry", err.Error())
		}
	})

	t.Run("returns validation error when quantity is below one", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(1000, "book-1"), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items:      []commands.ItemInput{{BookID: "book-1", Quantity: 0}},
		})

		if err == nil {
			t.Fatal("expected error, got nil")
		}

		if err.Error() != "item quantity must be at least 1" {
			t.Errorf("expected error %q, got %q", "item quantity must be at least 1", err.Error())
		}
	})

	t.Run("returns unknown book error when catalog misses an id", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(1000, "book-1"), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items: []commands.ItemInput{
				{BookID: "book-1", Quantity: 1},
				{BookID: "book-missing", Quantity: 1},
			},
		})

		var unknownBook *catalogports.UnknownBookError
		if !errors.As(err, &unknownBook) {
			t.Fatalf("expected UnknownBookError, got %v", err)
		}

		if unknownBook.BookID != "book-missing" {
			t.Errorf("expected missing book id %q, got %q", "book-missing", unknownBook.BookID)
		}
	})

	t.Run("returns error without persisting when reservation fails", func(t *testing.T) {
		reserveErr := &catalogports.InsufficientStockError{BookID: "book-1", Requested: 5, Available: 2}
		created := false
		repo := &mockRepository{
			createFn: func(ctx context.Context, order domain.Order) error {
				created = true
				return nil
			},
		}
		reserver := &mockReserver{
			reserveFn: func(ctx context.Context, items []inventory.LineItem) error {
				return reserveErr
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, reserver, catalogWith(1000, "book-1"), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items:      []commands.ItemInput{{BookID: "book-1", Quantity: 5}},
		})

		var insufficient *catalogports.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}

		if created {
			t.Error("expected order not to be persisted when reservation fails")
		}
	})

	t.Run("releases reservation when repository fails", func(t *testing.T) {
		repoErr := errors.New("database connection failed")
		var released []inventory.LineItem
		repo := &mockRepository{
			createFn: func(ctx context.Context, order domain.Order) error {
				return repoErr
			},
		}
		reserver := &mockReserver{
			releaseFn: func(ctx context.Context, items []inventory.LineItem) error {
				released = items
				return nil
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, reserver, catalogWith(1000, "book-1"), &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items:      []commands.ItemInput{{BookID: "book-1", Quantity: 2}},
		})

		if !errors.Is(err, repoErr) {
			t.Fatalf("expected error to wrap repository error, got: %v", err)
		}

		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}

		if len(released) != 1 || released[0].BookID != "book-1" || released[0].Quantity != 2 {
			t.Errorf("expected book-1 x2 to be released, got %+v", released)
		}
	})

	t.Run("returns order even when event publishing fails", func(t *testing.T) {
		events := &mockEventBus{
			publishOrderCreatedFn: func(ctx context.Context, orderID string) error {
				return errors.New("kafka unavailable")
			},
		}
		handler := commands.NewCreateOrderCommandHandler(
			&mockRepository{}, &mockReserver{}, catalogWith(1000, "book-1"), events)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{
			CustomerID: "customer-1",
			Items:      []commands.ItemInput{{BookID: "book-1", Quantity: 1}},
		})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if order == nil {
			t.Fatal("expected order to be returned even on event bus error")
		}
	})
}
