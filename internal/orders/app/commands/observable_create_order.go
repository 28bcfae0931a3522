package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/metrics"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordOperationDuration(ctx, "create", duration)
		o.metrics.RecordOperation(ctx, "create", success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"customer_id", cmd.CustomerID,
		"item_count", len(cmd.Items),
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"customer_id", cmd.CustomerID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.customer_id", order.CustomerID),
		attribute.Int64("order.total_amount_cents", order.TotalAmountCents),
		attribute.String("order.status", string(order.Status)),
	)

	o.logger.InfoContext(ctx, "order created successfully",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"total_amount_cents", order.TotalAmountCents,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
