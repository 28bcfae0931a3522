package inventory

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	adjustmentsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.adjustmentsTotal, err = meter.Int64Counter(
		"stock_adjustments_total",
		metric.WithDescription("Total stock adjustment attempts by operation and outcome"),
		metric.WithUnit("{adjustment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stock_adjustments_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordAdjustment(ctx context.Context, operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.adjustmentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
