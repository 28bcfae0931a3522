package commands_test

import (
	"context"

	catalogdomain "github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
)

type mockRepository struct {
	createFn  func(ctx context.Context, order domain.Order) error
	getByIDFn func(ctx context.Context, id string) (*domain.Order, error)
	updateFn  func(ctx context.Context, order domain.Order) error
}

func (m *mockRepository) Create(ctx context.Context, order domain.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockRepository) Update(ctx context.Context, order domain.Order) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return nil
}

type mockReserver struct {
	reserveFn   func(ctx context.Context, items []inventory.LineItem) error
	releaseFn   func(ctx context.Context, items []inventory.LineItem) error
	rebalanceFn func(ctx context.Context, old, new []inventory.LineItem) error
}

func (m *mockReserver) Reserve(ctx context.Context, items []inventory.LineItem) error {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, items)
	}
	return nil
}

func (m *mockReserver) Release(ctx context.Context, items []inventory.LineItem) error {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, items)
	}
	return nil
}

func (m *mockReserver) Rebalance(ctx context.Context, old, new []inventory.LineItem) error {
	if m.rebalanceFn != nil {
		return m.rebalanceFn(ctx, old, new)
	}
	return nil
}

type mockCatalog struct {
	getManyByIDsFn func(ctx context.Context, ids []string) (map[string]catalogdomain.Book, error)
}

func (m *mockCatalog) GetManyByIDs(ctx context.Context, ids []string) (map[string]catalogdomain.Book, error) {
	if m.getManyByIDsFn != nil {
		return m.getManyByIDsFn(ctx, ids)
	}
	return map[string]catalogdomain.Book{}, nil
}

// catalogWith returns a mock resolving every listed book at the given price.
func catalogWith(priceCents int64, ids ...string) *mockCatalog {
	books := make(map[string]catalogdomain.Book, len(ids))
	for _, id := range ids {
		books[id] = catalogdomain.Book{ID: id, Title: "Book " + id, PriceCents: priceCents}
	}
	return &mockCatalog{
		getManyByIDsFn: func(ctx context.Context, requested []string) (map[string]catalogdomain.Book, error) {
			result := make(map[string]catalogdomain.Book)
			for _, id := range requested {
				if book, ok := books[id]; ok {
					result[id] = book
				}
			}
			return result, nil
		},
	}
}

type mockEventBus struct {
	publishOrderCreatedFn func(ctx context.Context, orderID string) error
	publishOrderRevisedFn func(ctx context.Context, orderID string) error
}

func (m *mockEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	if m.publishOrderCreatedFn != nil {
		return m.publishOrderCreatedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderRevised(ctx context.Context, orderID string) error {
	if m.publishOrderRevisedFn != nil {
		return m.publishOrderRevisedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderStatusChanged(ctx context.Context, orderID string, status string) error {
	return nil
}

func (m *mockEventBus) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return nil
}
