package queries

import (
	"context"
	"errors"
	"strings"

	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
)

// GetOrderQuery represents a request to retrieve an order by its ID.
type GetOrderQuery struct {
	OrderID string
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return errors.New("order_id is required")
	}
	return nil
}

// GetOrderQueryHandler retrieves one order joined with its book details.
type GetOrderQueryHandler struct {
	repo    ports.OrderRepository
	catalog ports.BookCatalog
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository, catalog ports.BookCatalog) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo, catalog: catalog}
}

// Handle executes the query and returns the display view of the order.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	views, err := buildViews(ctx, h.catalog, []domain.Order{*order})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}
