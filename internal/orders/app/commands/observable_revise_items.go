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

type ObservableReviseItemsHandler struct {
	handler ReviseItemsHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableReviseItemsHandler(handler ReviseItemsHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableReviseItemsHandler {
	return &ObservableReviseItemsHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableReviseItemsHandler) Handle(ctx context.Context, cmd ReviseItemsCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReviseItemsCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordOperationDuration(ctx, "revise", duration)
		o.metrics.RecordOperation(ctx, "revise", success)
	}()

	o.logger.InfoContext(ctx, "revising order items",
		"order_id", cmd.OrderID,
		"item_count", len(cmd.Items),
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to revise order items",
			"error", err,
			"order_id", cmd.OrderID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int64("order.total_amount_cents", order.TotalAmountCents),
	)

	o.logger.InfoContext(ctx, "order items revised",
		"order_id", order.ID,
		"total_amount_cents", order.TotalAmountCents,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
