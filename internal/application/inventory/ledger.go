package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger persists FIFO consumption and its reversal.
// It never opens transactions itself: every method runs against the repositories
// of the caller's TransactionScope so deductions commit or roll back with the
// surrounding workflow.
type Ledger struct {
	logger  *zap.Logger
	metrics LedgerMetrics
}

// NewLedger creates a Ledger
func NewLedger(logger *zap.Logger, metrics LedgerMetrics) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Ledger{logger: logger, metrics: metrics}
}

// AllocateForLine draws the line's quantity from the card's open lots, records one
// FifoAllocation per draw and applies the result to the line. The order and line
// must already be persisted. With ShortfallClamp the line may end up partially
// allocated and carries its shortage.
func (l *Ledger) AllocateForLine(
	ctx context.Context,
	repos TransactionalRepositories,
	order *trade.SalesOrder,
	line *trade.SaleLine,
	policy inventory.ShortfallPolicy,
) (*inventory.AllocationPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "allocate_line")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCardID, line.CardID.String(),
		telemetry.SpanAttrQuantity, line.Quantity.String(),
		"shortfall_policy", policy.String(),
	)

	lots, err := repos.LotRepo().FindOpenByCardForUpdate(ctx, line.CardID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to lock lots: %w", err)
	}

	plan, err := inventory.PlanDraws(lots, line.Quantity, policy)
	if err != nil {
		var insufficient *inventory.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			insufficient.CardID = line.CardID
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := l.applyDraws(ctx, repos, lots, plan.Draws); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(plan.Draws) > 0 {
		allocations := make([]*inventory.FifoAllocation, 0, len(plan.Draws))
		for _, d := range plan.Draws {
			allocations = append(allocations, inventory.NewFifoAllocation(order.ID, line.ID, d))
		}
		if err := repos.AllocationRepo().CreateBatch(ctx, allocations); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save allocations: %w", err)
		}
	}

	if err := line.ApplyAllocation(plan.Allocated, plan.TotalCost); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !plan.IsComplete() {
		l.metrics.RecordShortfall(ctx, order.Marketplace, plan.Shortage)
		l.logger.Warn("Sale line allocated short",
			zap.String("order_id", order.ID.String()),
			zap.String("card_id", line.CardID.String()),
			zap.String("requested", plan.Requested.String()),
			zap.String("shortage", plan.Shortage.String()),
		)
	}

	telemetry.SetOK(span)
	return plan, nil
}

// ConsumeRaw deducts qty from the card's open lots without recording allocations.
// It is strict: if open lots cannot cover qty nothing is deducted and an
// InsufficientInventoryError is returned.
func (l *Ledger) ConsumeRaw(
	ctx context.Context,
	repos TransactionalRepositories,
	cardID uuid.UUID,
	qty decimal.Decimal,
) (decimal.Decimal, []inventory.DeductionDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "consume_raw")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCardID, cardID.String(),
		telemetry.SpanAttrQuantity, qty.String(),
	)

	lots, err := repos.LotRepo().FindOpenByCardForUpdate(ctx, cardID)
	if err != nil {
		telemetry.RecordError(span, err)
		return decimal.Zero, nil, fmt.Errorf("failed to lock lots: %w", err)
	}

	plan, err := inventory.PlanDraws(lots, qty, inventory.ShortfallFail)
	if err != nil {
		var insufficient *inventory.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			insufficient.CardID = cardID
		}
		telemetry.RecordError(span, err)
		return decimal.Zero, nil, err
	}

	if err := l.applyDraws(ctx, repos, lots, plan.Draws); err != nil {
		telemetry.RecordError(span, err)
		return decimal.Zero, nil, err
	}

	telemetry.SetOK(span)
	return plan.TotalCost, inventory.DeductionsFromDraws(plan.Draws), nil
}

// Reverse returns every allocation of the sale to its lot, deletes the allocation
// rows and zeroes the sale's cost figures. A sale without allocations is left
// untouched and 0 is returned.
func (l *Ledger) Reverse(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "reverse")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	allocations, err := repos.AllocationRepo().FindBySalesOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to load allocations: %w", err)
	}
	if len(allocations) == 0 {
		telemetry.SetOK(span)
		return 0, nil
	}

	lotIDs := make([]uuid.UUID, 0, len(allocations))
	seen := make(map[uuid.UUID]bool, len(allocations))
	for _, a := range allocations {
		if !seen[a.LotID] {
			seen[a.LotID] = true
			lotIDs = append(lotIDs, a.LotID)
		}
	}

	lots, err := repos.LotRepo().FindByIDsForUpdate(ctx, lotIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to lock lots: %w", err)
	}
	byID := make(map[uuid.UUID]*inventory.InventoryLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	for _, a := range allocations {
		lot, ok := byID[a.LotID]
		if !ok {
			err := shared.NewNotFoundError(fmt.Sprintf("Lot %s referenced by allocation %s not found", a.LotID, a.ID))
			telemetry.RecordError(span, err)
			return 0, err
		}
		if err := lot.Restore(a.Quantity); err != nil {
			telemetry.RecordError(span, err)
			return 0, err
		}
	}
	for _, lot := range lots {
		if err := repos.LotRepo().UpdateRemaining(ctx, lot); err != nil {
			telemetry.RecordError(span, err)
			return 0, fmt.Errorf("failed to restore lot %s: %w", lot.ID, err)
		}
	}

	deleted, err := repos.AllocationRepo().DeleteBySalesOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to delete allocations: %w", err)
	}

	order, err := repos.SalesOrderRepo().FindByIDForUpdate(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	order.ApplyReversal()
	if err := repos.SalesOrderRepo().Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to save sale: %w", err)
	}

	l.metrics.RecordReversal(ctx, int(deleted))
	l.logger.Info("Sale reversed",
		zap.String("order_id", orderID.String()),
		zap.Int64("allocations", deleted),
	)
	telemetry.SetOK(span)
	return int(deleted), nil
}

// applyDraws deducts draws from the locked lots and persists each touched lot
func (l *Ledger) applyDraws(ctx context.Context, repos TransactionalRepositories, lots []*inventory.InventoryLot, draws []inventory.Draw) error {
	if len(draws) == 0 {
		return nil
	}
	if err := inventory.ApplyDraws(lots, draws); err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*inventory.InventoryLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}
	for _, d := range draws {
		if err := repos.LotRepo().UpdateRemaining(ctx, byID[d.LotID]); err != nil {
			return fmt.Errorf("failed to update lot %s: %w", d.LotID, err)
		}
	}
	return nil
}
