package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/application/validation"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WriteOffService books stock losses against FIFO cost.
// Write-offs consume lots but leave the card's home stock alone: the lost goods
// were already outside the seller's warehouse.
type WriteOffService struct {
	scope   TransactionScope
	ledger  *Ledger
	logger  *zap.Logger
	metrics LedgerMetrics
}

// NewWriteOffService creates a new WriteOffService
func NewWriteOffService(scope TransactionScope, ledger *Ledger, logger *zap.Logger, metrics LedgerMetrics) *WriteOffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &WriteOffService{
		scope:   scope,
		ledger:  ledger,
		logger:  logger,
		metrics: metrics,
	}
}

// WriteOffResult describes a completed write-off
type WriteOffResult struct {
	CardID        uuid.UUID
	Quantity      decimal.Decimal
	Cost          decimal.Decimal
	TransactionID uuid.UUID
	Deductions    []inventory.DeductionDetail
}

// WriteOffDiscrepancyCommand writes off a manually counted quantity
type WriteOffDiscrepancyCommand struct {
	CardID   uuid.UUID       `json:"card_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes" validate:"max=500"`
}

// WriteOffLoss writes off every pending supply rejection of a card in one booking
func (s *WriteOffService) WriteOffLoss(ctx context.Context, cardID uuid.UUID) (*WriteOffResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "writeoff", "write_off_loss")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCardID, cardID.String())

	var result *WriteOffResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		card, err := repos.CardRepo().FindByID(ctx, cardID)
		if err != nil {
			return err
		}

		pending, err := repos.RejectionRepo().FindPendingByCardForUpdate(ctx, cardID)
		if err != nil {
			return fmt.Errorf("failed to lock supply rejections: %w", err)
		}
		qty := valueobject.ToQty(inventory.SumRejected(pending))
		if len(pending) == 0 || !valueobject.IsPositiveQty(qty) {
			return shared.NewInvalidStateError(fmt.Sprintf("Nothing to write off for %s", card.SKU))
		}

		cost, deductions, err := s.ledger.ConsumeRaw(ctx, repos, cardID, qty)
		if err != nil {
			return err
		}

		key := inventory.WriteOffKey(pending)
		tx, err := finance.NewTransaction(
			finance.KindExpense,
			finance.CategorySupplyLoss,
			cost,
			finance.SupplyLossExternalID(key),
			fmt.Sprintf("Supply loss write-off: %s x %s", card.SKU, qty),
		)
		if err != nil {
			return err
		}
		stored, _, err := repos.FinanceRepo().CreateIfAbsent(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to book write-off: %w", err)
		}

		now := time.Now()
		for _, r := range pending {
			if err := r.MarkWrittenOff(stored.ID, now); err != nil {
				return err
			}
		}
		if err := repos.RejectionRepo().MarkWrittenOff(ctx, pending); err != nil {
			return fmt.Errorf("failed to flag supply rejections: %w", err)
		}

		movement, err := inventory.NewStockMovement(
			cardID, inventory.MovementLossWriteOff, qty.Neg(), cost,
			card.StockQuantity, card.StockQuantity,
			inventory.SourceSupplyRejection, key.String(),
		)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}

		result = &WriteOffResult{
			CardID:        cardID,
			Quantity:      qty,
			Cost:          cost,
			TransactionID: stored.ID,
			Deductions:    deductions,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Loss write-off failed", zap.String("card_id", cardID.String()), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordWriteOff(ctx, string(finance.CategorySupplyLoss), result.Quantity, result.Cost)
	s.logger.Info("Supply loss written off",
		zap.String("card_id", cardID.String()),
		zap.String("quantity", result.Quantity.String()),
		zap.String("cost", result.Cost.String()),
	)
	telemetry.SetOK(span)
	return result, nil
}

// WriteOffDiscrepancy writes off a manually reported quantity
func (s *WriteOffService) WriteOffDiscrepancy(ctx context.Context, cmd WriteOffDiscrepancyCommand) (*WriteOffResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "writeoff", "write_off_discrepancy")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCardID, cmd.CardID.String(),
		telemetry.SpanAttrQuantity, cmd.Quantity.String(),
	)

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	qty := valueobject.ToQty(cmd.Quantity)
	if !valueobject.IsPositiveQty(qty) {
		err := shared.NewInvalidInputError("Write-off quantity must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *WriteOffResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		card, err := repos.CardRepo().FindByID(ctx, cmd.CardID)
		if err != nil {
			return err
		}

		cost, deductions, err := s.ledger.ConsumeRaw(ctx, repos, cmd.CardID, qty)
		if err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(
			cmd.CardID, inventory.MovementDiscrepancy, qty.Neg(), cost,
			card.StockQuantity, card.StockQuantity,
			inventory.SourceManualAdjustment, "",
		)
		if err != nil {
			return err
		}
		movement.SourceID = movement.ID.String()
		movement.WithNotes(cmd.Notes)

		tx, err := finance.NewTransaction(
			finance.KindExpense,
			finance.CategoryDiscrepancy,
			cost,
			finance.DiscrepancyExternalID(movement.ID),
			fmt.Sprintf("Discrepancy write-off: %s x %s", card.SKU, qty),
		)
		if err != nil {
			return err
		}
		stored, _, err := repos.FinanceRepo().CreateIfAbsent(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to book write-off: %w", err)
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}

		result = &WriteOffResult{
			CardID:        cmd.CardID,
			Quantity:      qty,
			Cost:          cost,
			TransactionID: stored.ID,
			Deductions:    deductions,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Discrepancy write-off failed", zap.String("card_id", cmd.CardID.String()), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordWriteOff(ctx, string(finance.CategoryDiscrepancy), result.Quantity, result.Cost)
	s.logger.Info("Discrepancy written off",
		zap.String("card_id", cmd.CardID.String()),
		zap.String("quantity", result.Quantity.String()),
		zap.String("cost", result.Cost.String()),
	)
	telemetry.SetOK(span)
	return result, nil
}
