package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records ledger activity: sales, cost of goods, shortfalls,
// reversals, write-offs and plan runs. It satisfies the application layer's
// LedgerMetrics interface.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	salesTotal        *Counter
	revenueTotal      *FloatCounter
	cogsTotal         *FloatCounter
	shortfallTotal    *FloatCounter
	reversedTotal     *Counter
	writeOffQtyTotal  *FloatCounter
	writeOffCostTotal *FloatCounter
	planRows          *Histogram

	inventoryValue metric.Float64Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	valuationProvider ValuationProvider
}

// ValuationProvider reports the remaining value of all open lots
type ValuationProvider interface {
	TotalInventoryValue(ctx context.Context) (decimal.Decimal, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	ValuationProvider ValuationProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		valuationProvider: cfg.ValuationProvider,
	}

	var err error
	if bm.salesTotal, err = NewCounter(cfg.Meter,
		"ledger_sales_total", "Sales recorded", "{sales}"); err != nil {
		return nil, err
	}
	if bm.revenueTotal, err = NewFloatCounter(cfg.Meter,
		"ledger_revenue_total", "Revenue of recorded sales", "{currency}"); err != nil {
		return nil, err
	}
	if bm.cogsTotal, err = NewFloatCounter(cfg.Meter,
		"ledger_cogs_total", "Cost of goods sold booked by FIFO allocation", "{currency}"); err != nil {
		return nil, err
	}
	if bm.shortfallTotal, err = NewFloatCounter(cfg.Meter,
		"ledger_shortfall_units_total", "Sold units left unallocated for lack of stock", "{units}"); err != nil {
		return nil, err
	}
	if bm.reversedTotal, err = NewCounter(cfg.Meter,
		"ledger_allocations_reversed_total", "Allocation rows returned to lots", "{allocations}"); err != nil {
		return nil, err
	}
	if bm.writeOffQtyTotal, err = NewFloatCounter(cfg.Meter,
		"ledger_write_off_units_total", "Units written off", "{units}"); err != nil {
		return nil, err
	}
	if bm.writeOffCostTotal, err = NewFloatCounter(cfg.Meter,
		"ledger_write_off_cost_total", "Cost of units written off", "{currency}"); err != nil {
		return nil, err
	}
	if bm.planRows, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "planning_plan_rows",
		Description: "Rows in generated supply plans",
		Unit:        "{rows}",
		Boundaries:  CountBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.inventoryValue, err = cfg.Meter.Float64Gauge("ledger_inventory_value",
		metric.WithDescription("Remaining value of open lots"),
		metric.WithUnit("{currency}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create gauge ledger_inventory_value: %w", err)
	}

	return bm, nil
}

// RecordSale records one sale with its revenue and allocated cost
func (bm *BusinessMetrics) RecordSale(ctx context.Context, marketplace string, revenue, cogs decimal.Decimal) {
	attr := AttrMarketplace.String(marketplace)
	bm.salesTotal.Inc(ctx, attr)
	bm.revenueTotal.Add(ctx, revenue.InexactFloat64(), attr)
	bm.cogsTotal.Add(ctx, cogs.InexactFloat64(), attr)
}

// RecordShortfall records units a tolerant sale could not allocate
func (bm *BusinessMetrics) RecordShortfall(ctx context.Context, marketplace string, shortage decimal.Decimal) {
	bm.shortfallTotal.Add(ctx, shortage.InexactFloat64(), AttrMarketplace.String(marketplace))
}

// RecordReversal records allocation rows removed by a reversal
func (bm *BusinessMetrics) RecordReversal(ctx context.Context, allocations int) {
	bm.reversedTotal.Add(ctx, int64(allocations))
}

// RecordWriteOff records a loss or discrepancy write-off
func (bm *BusinessMetrics) RecordWriteOff(ctx context.Context, category string, qty, cost decimal.Decimal) {
	attr := AttrCategory.String(category)
	bm.writeOffQtyTotal.Add(ctx, qty.InexactFloat64(), attr)
	bm.writeOffCostTotal.Add(ctx, cost.InexactFloat64(), attr)
}

// RecordPlanGenerated records the row count of a new supply plan
func (bm *BusinessMetrics) RecordPlanGenerated(ctx context.Context, rows int) {
	bm.planRows.Record(ctx, float64(rows))
}

// RecordInventoryValue sets the inventory value gauge
func (bm *BusinessMetrics) RecordInventoryValue(ctx context.Context, value decimal.Decimal) {
	bm.inventoryValue.Record(ctx, value.InexactFloat64())
}

// StartPeriodicCollection samples the inventory value gauge every interval
// (default 5 minutes). It is non-blocking; use Stop to end collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectValuation(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectValuation(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectValuation(ctx context.Context) {
	if bm.valuationProvider == nil {
		bm.logger.Debug("No valuation provider configured, skipping inventory value collection")
		return
	}
	value, err := bm.valuationProvider.TotalInventoryValue(ctx)
	if err != nil {
		bm.logger.Warn("Failed to compute inventory value", zap.Error(err))
		return
	}
	bm.RecordInventoryValue(ctx, value)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
