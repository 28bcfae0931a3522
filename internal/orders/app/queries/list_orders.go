package queries

import (
	"context"
	"math"

	"github.com/dejobratic/bookstore/internal/orders/ports"
)

// ListOrdersQuery requests a page of orders, most recent first.
type ListOrdersQuery struct {
	Filter ports.ListFilter
}

// OrderPage is one page of listing results with pagination metadata.
type OrderPage struct {
	Orders []OrderView `json:"orders"`
	Total  int64       `json:"total"`
	Page   int         `json:"page"`
	Pages  int         `json:"pages"`
}

// ListOrdersQueryHandler executes ListOrdersQuery.
type ListOrdersQueryHandler struct {
	repo    ports.OrderRepository
	catalog ports.BookCatalog
}

// NewListOrdersQueryHandler constructs a ListOrdersQueryHandler.
func NewListOrdersQueryHandler(repo ports.OrderRepository, catalog ports.BookCatalog) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo, catalog: catalog}
}

// Handle returns a page of orders joined with resolved book details.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (*OrderPage, error) {
	filter := query.Filter
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}

	orders, total, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views, err := buildViews(ctx, h.catalog, orders)
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders: views,
		Total:  total,
		Page:   filter.Page,
		Pages:  int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}
