package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID string) error
	PublishOrderRevised(ctx context.Context, orderID string) error
	PublishOrderStatusChanged(ctx context.Context, orderID string, status string) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
}
