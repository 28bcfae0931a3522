package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogports "github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"github.com/google/uuid"
)

// ItemInput is one requested order line. Unit prices are not accepted from
// callers; they are captured from the catalog's current prices.
type ItemInput struct {
	BookID   string
	Quantity int
}

type CreateOrderCommand struct {
	CustomerID string
	Items      []ItemInput
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.CustomerID) == "" {
		return errors.New("customer_id is required")
	}
	return validateItems(c.Items)
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return errors.New("items must contain at least one entry")
	}
	for _, item := range items {
		if strings.TrimSpace(item.BookID) == "" {
			return errors.New("item book_id is required")
		}
		if item.Quantity < 1 {
			return errors.New("item quantity must be at least 1")
		}
	}
	return nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	repo     ports.OrderRepository
	reserver ports.StockReserver
	catalog  ports.BookCatalog
	events   ports.EventBus
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	reserver ports.StockReserver,
	catalog ports.BookCatalog,
	events ports.EventBus,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:     repo,
		reserver: reserver,
		catalog:  catalog,
		events:   events,
	}
}

// Handle reserves stock for the full item set and persists a Pending order.
// The reservation happens first; if persisting fails afterwards the
// reservation is released so no stock is stranded.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	items, err := priceItems(ctx, h.catalog, cmd.Items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:               uuid.NewString(),
		CustomerID:       cmd.CustomerID,
		Items:            items,
		TotalAmountCents: domain.ComputeTotalCents(items),
		Status:           domain.StatusPending,
		OrderDate:        now,
		UpdatedAt:        now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := h.reserver.Reserve(ctx, lineItems(order.Items)); err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, order); err != nil {
		if releaseErr := h.reserver.Release(ctx, lineItems(order.Items)); releaseErr != nil {
			return nil, errors.Join(err, releaseErr)
		}
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order.ID); err != nil {
		// The order is committed; a missed event must not fail the call.
		return &order, nil
	}

	return &order, nil
}

// priceItems resolves each book and captures its current catalog price as the
// line's unit price.
func priceItems(ctx context.Context, catalog ports.BookCatalog, inputs []ItemInput) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		ids = append(ids, input.BookID)
	}

	books, err := catalog.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve books: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		book, ok := books[input.BookID]
		if !ok {
			return nil, &catalogports.UnknownBookError{BookID: input.BookID}
		}
		items = append(items, domain.OrderItem{
			BookID:         input.BookID,
			Quantity:       input.Quantity,
			UnitPriceCents: book.PriceCents,
		})
	}
	return items, nil
}

func lineItems(items []domain.OrderItem) []inventory.LineItem {
	lines := make([]inventory.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.LineItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		})
	}
	return lines
}
