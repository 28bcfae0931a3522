package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/bookstore/internal/kafka"
	"github.com/dejobratic/bookstore/internal/orders/ports"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderCreated")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.created"),
		attribute.String("topic", "order.created"),
	)

	start := time.Now()
	err := e.bus.PublishOrderCreated(ctx, orderID)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.created", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderRevised(ctx context.Context, orderID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderRevised")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.revised"),
		attribute.String("topic", "order.revised"),
	)

	start := time.Now()
	err := e.bus.PublishOrderRevised(ctx, orderID)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.revised", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID string, status string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderStatusChanged")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.status_changed"),
		attribute.String("topic", "order.status_changed"),
		attribute.String("order.status", status),
	)

	start := time.Now()
	err := e.bus.PublishOrderStatusChanged(ctx, orderID, status)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.status_changed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderDeleted(ctx context.Context, orderID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderDeleted")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("event.type", "order.deleted"),
		attribute.String("topic", "order.deleted"),
	)

	start := time.Now()
	err := e.bus.PublishOrderDeleted(ctx, orderID)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.deleted", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
