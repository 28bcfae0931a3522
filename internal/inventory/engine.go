// Package inventory implements the stock reservation engine. All stock
// movement in the system flows through it: order creation reserves, order
// deletion releases, and item revision rebalances via a net per-book delta.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/dejobratic/bookstore/internal/catalog/ports"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// LineItem is one (book, quantity) pair of a reservation request.
type LineItem struct {
	BookID   string
	Quantity int
}

var (
	// ErrNoItems is returned when a reservation request carries no items.
	ErrNoItems = errors.New("no items to reserve")
	// ErrInvalidQuantity is returned when any quantity is below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Engine checks availability and commits stock movements. It holds no state
// of its own; atomicity comes from the catalog store's bulk adjust.
type Engine struct {
	books   ports.BookRepository
	logger  *slog.Logger
	metrics *Metrics
}

// NewEngine wires the engine to the catalog store.
func NewEngine(books ports.BookRepository, logger *slog.Logger, metrics *Metrics) *Engine {
	return &Engine{
		books:   books,
		logger:  logger,
		metrics: metrics,
	}
}

// Reserve atomically decrements stock for every line item. Quantities for the
// same book are summed before the availability check, so an order listing one
// book twice cannot under-count. On failure no decrement persists.
func (e *Engine) Reserve(ctx context.Context, items []LineItem) error {
	ctx, span := telemetry.StartSpan(ctx, "Inventory.Reserve")
	defer span.End()

	if len(items) == 0 {
		return ErrNoItems
	}

	adjustments, err := aggregate(items, -1)
	if err != nil {
		return err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("reservation.books", len(adjustments)))

	if err := e.books.AdjustStock(ctx, adjustments); err != nil {
		e.recordOutcome(ctx, "reserve", false)
		telemetry.RecordSpanError(span, err)
		e.logger.WarnContext(ctx, "stock reservation failed", "error", err)
		return err
	}

	e.recordOutcome(ctx, "reserve", true)
	telemetry.SetSpanSuccess(span)
	return nil
}

// Release atomically increments stock for every line item, undoing a prior
// reservation. Not idempotent: the caller guarantees exactly-once invocation
// per logical release.
func (e *Engine) Release(ctx context.Context, items []LineItem) error {
	ctx, span := telemetry.StartSpan(ctx, "Inventory.Release")
	defer span.End()

	if len(items) == 0 {
		return ErrNoItems
	}

	adjustments, err := aggregate(items, 1)
	if err != nil {
		return err
	}

	if err := e.books.AdjustStock(ctx, adjustments); err != nil {
		e.recordOutcome(ctx, "release", false)
		telemetry.RecordSpanError(span, err)
		e.logger.ErrorContext(ctx, "stock release failed", "error", err)
		return err
	}

	e.recordOutcome(ctx, "release", true)
	telemetry.SetSpanSuccess(span)
	return nil
}

// Rebalance replaces one reservation with another in a single atomic
// adjustment. The net delta per book (old minus new) is computed first, so
// there is no intermediate state where the old reservation is released but
// the new one not yet taken. On failure both catalog and caller state are
// unchanged.
func (e *Engine) Rebalance(ctx context.Context, oldItems, newItems []LineItem) error {
	ctx, span := telemetry.StartSpan(ctx, "Inventory.Rebalance")
	defer span.End()

	if len(newItems) == 0 {
		return ErrNoItems
	}

	release, err := aggregate(oldItems, 1)
	if err != nil {
		return err
	}
	reserve, err := aggregate(newItems, -1)
	if err != nil {
		return err
	}

	net := make(map[string]int, len(release)+len(reserve))
	for _, adj := range release {
		net[adj.BookID] += adj.Delta
	}
	for _, adj := range reserve {
		net[adj.BookID] += adj.Delta
	}

	adjustments := make([]ports.StockAdjustment, 0, len(net))
	for bookID, delta := range net {
		if delta == 0 {
			continue
		}
		adjustments = append(adjustments, ports.StockAdjustment{BookID: bookID, Delta: delta})
	}
	sort.Slice(adjustments, func(i, j int) bool {
		return adjustments[i].BookID < adjustments[j].BookID
	})

	telemetry.AddSpanAttributes(span, attribute.Int("rebalance.books", len(adjustments)))

	if len(adjustments) == 0 {
		// New items are identical in quantity to the old ones.
		telemetry.SetSpanSuccess(span)
		return nil
	}

	if err := e.books.AdjustStock(ctx, adjustments); err != nil {
		e.recordOutcome(ctx, "rebalance", false)
		telemetry.RecordSpanError(span, err)
		e.logger.WarnContext(ctx, "stock rebalance failed", "error", err)
		return err
	}

	e.recordOutcome(ctx, "rebalance", true)
	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *Engine) recordOutcome(ctx context.Context, operation string, success bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordAdjustment(ctx, operation, success)
}

// aggregate sums quantities per book and emits one signed adjustment per
// distinct book, sorted by id for deterministic write order.
func aggregate(items []LineItem, sign int) ([]ports.StockAdjustment, error) {
	totals := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if _, seen := totals[item.BookID]; !seen {
			order = append(order, item.BookID)
		}
		totals[item.BookID] += item.Quantity
	}
	sort.Strings(order)

	adjustments := make([]ports.StockAdjustment, 0, len(totals))
	for _, bookID := range order {
		adjustments = append(adjustments, ports.StockAdjustment{
			BookID: bookID,
			Delta:  sign * totals[bookID],
		})
	}
	return adjustments, nil
}
