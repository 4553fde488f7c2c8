package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerMetrics receives business counters from the ledger workflows
type LedgerMetrics interface {
	RecordSale(ctx context.Context, marketplace string, revenue, cogs decimal.Decimal)
	RecordShortfall(ctx context.Context, marketplace string, shortage decimal.Decimal)
	RecordReversal(ctx context.Context, allocations int)
	RecordWriteOff(ctx context.Context, category string, quantity, cost decimal.Decimal)
	RecordPlanGenerated(ctx context.Context, rows int)
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) RecordSale(context.Context, string, decimal.Decimal, decimal.Decimal)     {}
func (NoopMetrics) RecordShortfall(context.Context, string, decimal.Decimal)                 {}
func (NoopMetrics) RecordReversal(context.Context, int)                                      {}
func (NoopMetrics) RecordWriteOff(context.Context, string, decimal.Decimal, decimal.Decimal) {}
func (NoopMetrics) RecordPlanGenerated(context.Context, int)                                 {}

var _ LedgerMetrics = NoopMetrics{}
