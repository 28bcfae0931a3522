package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
)

// ReviseItemsCommand wholesale-replaces an order's item set. Unit prices are
// re-captured from the catalog's current prices at revision time.
type ReviseItemsCommand struct {
	OrderID string
	Items   []ItemInput
}

func (c ReviseItemsCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return errors.New("order_id is required")
	}
	return validateItems(c.Items)
}

type ReviseItemsHandler interface {
	Handle(ctx context.Context, cmd ReviseItemsCommand) (*domain.Order, error)
}

type ReviseItemsCommandHandler struct {
	repo     ports.OrderRepository
	reserver ports.StockReserver
	catalog  ports.BookCatalog
	events   ports.EventBus
}

func NewReviseItemsCommandHandler(
	repo ports.OrderRepository,
	reserver ports.StockReserver,
	catalog ports.BookCatalog,
	events ports.EventBus,
) *ReviseItemsCommandHandler {
	return &ReviseItemsCommandHandler{
		repo:     repo,
		reserver: reserver,
		catalog:  catalog,
		events:   events,
	}
}

// Handle replaces the order's items. The stock effect is applied as a single
// net per-book adjustment, so a failed revision leaves both the catalog and
// the order exactly as they were: no intermediate released-but-not-reserved
// state ever exists.
func (h *ReviseItemsCommandHandler) Handle(ctx context.Context, cmd ReviseItemsCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	newItems, err := priceItems(ctx, h.catalog, cmd.Items)
	if err != nil {
		return nil, err
	}

	oldItems := order.Items

	if err := h.reserver.Rebalance(ctx, lineItems(oldItems), lineItems(newItems)); err != nil {
		return nil, err
	}

	order.ReplaceItems(newItems, time.Now().UTC())

	if err := h.repo.Update(ctx, *order); err != nil {
		// Put the stock back the way it was before failing.
		if undoErr := h.reserver.Rebalance(ctx, lineItems(newItems), lineItems(oldItems)); undoErr != nil {
			return nil, errors.Join(err, undoErr)
		}
		return nil, err
	}

	if err := h.events.PublishOrderRevised(ctx, order.ID); err != nil {
		return order, nil
	}

	return order, nil
}
