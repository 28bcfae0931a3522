package kafka

import (
	"context"
	"log/slog"
)

// NoopEventBus logs events without sending them to Kafka. Useful for local dev before wiring Kafka.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderCreated(_ context.Context, orderID string) error {
	slog.Debug("event::order_created", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderRevised(_ context.Context, orderID string) error {
	slog.Debug("event::order_revised", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderStatusChanged(_ context.Context, orderID string, status string) error {
	slog.Debug("event::order_status_changed", "order_id", orderID, "status", status)
	return nil
}

func (n *NoopEventBus) PublishOrderDeleted(_ context.Context, orderID string) error {
	slog.Debug("event::order_deleted", "order_id", orderID)
	return nil
}
