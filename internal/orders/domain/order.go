package domain

import (
	"errors"
	"strings"
	"time"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// IsValid reports whether the status is one of the enumerated values.
// Transitions between valid statuses are caller-driven and unrestricted.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem is one line of an order. UnitPriceCents is captured at order
// time and does not follow later catalog price changes.
type OrderItem struct {
	BookID         string `json:"book_id" bson:"book_id"`
	Quantity       int    `json:"quantity" bson:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents" bson:"unit_price_cents"`
}

// LineTotalCents is the item's contribution to the order total.
func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// Order represents a purchase managed by the system. TotalAmountCents is
// derived state: it is recomputed from the items on every mutation and is
// never set independently.
type Order struct {
	ID               string      `json:"id" bson:"_id"`
	CustomerID       string      `json:"customer_id" bson:"customer_id"`
	Items            []OrderItem `json:"items" bson:"items"`
	TotalAmountCents int64       `json:"total_amount_cents" bson:"total_amount_cents"`
	Status           OrderStatus `json:"status" bson:"status"`
	OrderDate        time.Time   `json:"order_date" bson:"order_date"`
	UpdatedAt        time.Time   `json:"updated_at" bson:"updated_at"`
}

// ComputeTotalCents sums line totals across all items.
func ComputeTotalCents(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

// ReplaceItems swaps in a new item set and recomputes the total.
func (o *Order) ReplaceItems(items []OrderItem, now time.Time) {
	o.Items = items
	o.TotalAmountCents = ComputeTotalCents(items)
	o.UpdatedAt = now
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.CustomerID) == "" {
		return errors.New("customer_id is required")
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, item := range o.Items {
		if strings.TrimSpace(item.BookID) == "" {
			return errors.New("item book_id is required")
		}
		if item.Quantity < 1 {
			return errors.New("item quantity must be at least 1")
		}
		if item.UnitPriceCents < 0 {
			return errors.New("item unit_price_cents must not be negative")
		}
	}
	if !o.Status.IsValid() {
		return errors.New("status must be one of: Pending, Processing, Shipped, Delivered, Cancelled")
	}
	if o.TotalAmountCents != ComputeTotalCents(o.Items) {
		return errors.New("total_amount_cents must equal the sum of line totals")
	}
	return nil
}
