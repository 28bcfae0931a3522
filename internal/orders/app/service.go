package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/orders/app/commands"
	"github.com/dejobratic/bookstore/internal/orders/app/queries"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/metrics"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ErrInvalidStatus is returned when a status update names a value outside the
// enumerated set.
var ErrInvalidStatus = errors.New("status must be one of: Pending, Processing, Shipped, Delivered, Cancelled")

// Service bundles use cases for handling orders via the API.
type Service struct {
	repo     ports.OrderRepository
	reserver ports.StockReserver
	events   ports.EventBus
	idem     ports.IdempotencyStore
	logger   *slog.Logger
	metrics  *metrics.Metrics

	createHandler commands.CreateOrderHandler
	reviseHandler commands.ReviseItemsHandler
	getHandler    *queries.GetOrderQueryHandler
	listHandler   *queries.ListOrdersQueryHandler
}

// NewService wires required dependencies.
func NewService(
	repo ports.OrderRepository,
	reserver ports.StockReserver,
	catalog ports.BookCatalog,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	createCore := commands.NewCreateOrderCommandHandler(repo, reserver, catalog, events)
	reviseCore := commands.NewReviseItemsCommandHandler(repo, reserver, catalog, events)

	return &Service{
		repo:          repo,
		reserver:      reserver,
		events:        events,
		idem:          idem,
		logger:        logger,
		metrics:       m,
		createHandler: commands.NewObservableCreateOrderHandler(createCore, logger, m),
		reviseHandler: commands.NewObservableReviseItemsHandler(reviseCore, logger, m),
		getHandler:    queries.NewGetOrderQueryHandler(repo, catalog),
		listHandler:   queries.NewListOrdersQueryHandler(repo, catalog),
	}
}

// CreateOrder reserves stock and persists a new Pending order.
func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	return s.createHandler.Handle(ctx, cmd)
}

// ReviseItems wholesale-replaces an order's item set, rebalancing stock.
func (s *Service) ReviseItems(ctx context.Context, cmd commands.ReviseItemsCommand) (*domain.Order, error) {
	return s.reviseHandler.Handle(ctx, cmd)
}

// GetOrder retrieves an order by ID, joined with book details.
func (s *Service) GetOrder(ctx context.Context, id string) (*queries.OrderView, error) {
	return s.getHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns a page of orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) (*queries.OrderPage, error) {
	return s.listHandler.Handle(ctx, queries.ListOrdersQuery{Filter: filter})
}

// UpdateStatus sets the order's status. Transitions are caller-driven and
// unrestricted across the enumerated set; stock is untouched.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "Order.UpdateStatus")
	defer span.End()

	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		telemetry.RecordSpanError(span, err)
		s.metrics.RecordOperation(ctx, "update_status", false)
		return nil, err
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("order.status", string(status)),
	)
	s.metrics.RecordOperation(ctx, "update_status", true)
	s.logger.InfoContext(ctx, "order status updated", "order_id", id, "status", status)

	if err := s.events.PublishOrderStatusChanged(ctx, id, string(status)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order status change", "order_id", id, "error", err)
	}

	return order, nil
}

// DeleteOrder releases all reserved stock, then removes the order. If the
// release fails the order is kept so the restock can be retried; if the
// removal fails after a successful release, the stock is re-reserved so a
// retried delete cannot double-credit the catalog.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "Order.DeleteOrder")
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	lines := make([]inventory.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.LineItem{BookID: item.BookID, Quantity: item.Quantity})
	}

	if err := s.reserver.Release(ctx, lines); err != nil {
		telemetry.RecordSpanError(span, err)
		s.metrics.RecordOperation(ctx, "delete", false)
		s.logger.ErrorContext(ctx, "stock release failed, order kept", "order_id", id, "error", err)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		telemetry.RecordSpanError(span, err)
		s.metrics.RecordOperation(ctx, "delete", false)
		if reserveErr := s.reserver.Reserve(ctx, lines); reserveErr != nil {
			s.logger.ErrorContext(ctx, "failed to re-reserve stock after delete failure",
				"order_id", id, "error", reserveErr)
			return errors.Join(err, reserveErr)
		}
		return err
	}

	s.metrics.RecordOperation(ctx, "delete", true)
	s.logger.InfoContext(ctx, "order deleted", "order_id", id)

	if err := s.events.PublishOrderDeleted(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order deletion", "order_id", id, "error", err)
	}

	return nil
}

// ReserveIdempotentKey claims a key before any side effect runs. The second
// return is true when this caller holds the claim.
func (s *Service) ReserveIdempotentKey(ctx context.Context, key string) (*ports.StoredResponse, bool, error) {
	return s.idem.Reserve(ctx, key)
}

// SaveIdempotentResponse writes response details for a claimed key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idem.Save(ctx, key, response)
}

// ReleaseIdempotentKey drops a claim after a failed create so the key can be
// retried.
func (s *Service) ReleaseIdempotentKey(ctx context.Context, key string) error {
	return s.idem.Delete(ctx, key)
}
