package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/application/validation"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdjustmentService handles manual stock corrections and onboarding balances
type AdjustmentService struct {
	scope  TransactionScope
	ledger *Ledger
	logger *zap.Logger
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(scope TransactionScope, ledger *Ledger, logger *zap.Logger) *AdjustmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentService{
		scope:  scope,
		ledger: ledger,
		logger: logger,
	}
}

// AdjustInventoryCommand changes a card's stock by a signed delta
type AdjustInventoryCommand struct {
	CardID uuid.UUID       `json:"card_id" validate:"required"`
	Delta  decimal.Decimal `json:"delta"`
	Notes  string          `json:"notes" validate:"max=500"`
}

// OnboardCommand records stock that existed before the ledger was introduced
type OnboardCommand struct {
	CardID     uuid.UUID       `json:"card_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Valuation is the remaining lot value of one card
type Valuation struct {
	CardID      uuid.UUID
	Quantity    decimal.Decimal
	Value       decimal.Decimal
	AverageCost decimal.Decimal
	OpenLots    int
}

// AdjustInventory applies a signed stock correction and returns the new stock level.
// A positive delta creates a lot at the weighted-average cost of the open lots;
// a negative delta consumes lots FIFO.
func (s *AdjustmentService) AdjustInventory(ctx context.Context, cmd AdjustInventoryCommand) (decimal.Decimal, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "adjustment", "adjust_inventory")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCardID, cmd.CardID.String(),
		telemetry.SpanAttrQuantity, cmd.Delta.String(),
	)

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return decimal.Zero, err
	}
	delta := valueobject.ToQty(cmd.Delta)
	if valueobject.IsZeroQty(delta) {
		err := shared.NewInvalidInputError("Adjustment delta cannot be zero")
		telemetry.RecordError(span, err)
		return decimal.Zero, err
	}

	var newStock decimal.Decimal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		card, err := repos.CardRepo().FindByIDForUpdate(ctx, cmd.CardID)
		if err != nil {
			return err
		}
		before := card.StockQuantity
		if err := card.AdjustStock(delta); err != nil {
			return err
		}

		var (
			movementType inventory.MovementType
			cost         decimal.Decimal
		)
		if delta.IsPositive() {
			movementType = inventory.MovementAdjustmentIn
			lots, err := repos.LotRepo().FindOpenByCardForUpdate(ctx, cmd.CardID)
			if err != nil {
				return fmt.Errorf("failed to lock lots: %w", err)
			}
			avg := inventory.WeightedAverageCost(lots)
			lot, err := inventory.NewInventoryLot(cmd.CardID, delta, avg, time.Now(), inventory.ManualAdjustment())
			if err != nil {
				return err
			}
			if err := repos.LotRepo().Create(ctx, lot); err != nil {
				return fmt.Errorf("failed to create lot: %w", err)
			}
			cost = valueobject.ToMoney(delta.Mul(avg))
		} else {
			movementType = inventory.MovementAdjustmentOut
			cost, _, err = s.ledger.ConsumeRaw(ctx, repos, cmd.CardID, delta.Abs())
			if err != nil {
				return err
			}
		}

		if err := repos.CardRepo().UpdateStock(ctx, card); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		movement, err := inventory.NewStockMovement(
			cmd.CardID, movementType, delta, cost,
			before, card.StockQuantity,
			inventory.SourceManualAdjustment, "",
		)
		if err != nil {
			return err
		}
		movement.SourceID = movement.ID.String()
		movement.WithNotes(cmd.Notes)
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}

		newStock = card.StockQuantity
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Inventory adjustment failed",
			zap.String("card_id", cmd.CardID.String()),
			zap.String("delta", delta.String()),
			zap.Error(err),
		)
		return decimal.Zero, err
	}

	s.logger.Info("Inventory adjusted",
		zap.String("card_id", cmd.CardID.String()),
		zap.String("delta", delta.String()),
		zap.String("stock", newStock.String()),
	)
	telemetry.SetOK(span)
	return newStock, nil
}

// OnboardInitialBalance creates an initial-balance lot and raises home stock
func (s *AdjustmentService) OnboardInitialBalance(ctx context.Context, cmd OnboardCommand) (*inventory.InventoryLot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "adjustment", "onboard_initial_balance")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCardID, cmd.CardID.String(),
		telemetry.SpanAttrQuantity, cmd.Quantity.String(),
	)

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var lot *inventory.InventoryLot
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		card, err := repos.CardRepo().FindByIDForUpdate(ctx, cmd.CardID)
		if err != nil {
			return err
		}

		lot, err = inventory.NewInventoryLot(cmd.CardID, cmd.Quantity, cmd.UnitCost, cmd.ReceivedAt, inventory.InitialBalance())
		if err != nil {
			return err
		}
		if err := repos.LotRepo().Create(ctx, lot); err != nil {
			return fmt.Errorf("failed to create lot: %w", err)
		}

		before := card.StockQuantity
		if err := card.AdjustStock(lot.InitialQty); err != nil {
			return err
		}
		if err := repos.CardRepo().UpdateStock(ctx, card); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		movement, err := inventory.NewStockMovement(
			cmd.CardID, inventory.MovementInitialBalance, lot.InitialQty,
			valueobject.ToMoney(lot.InitialQty.Mul(lot.UnitCost)),
			before, card.StockQuantity,
			inventory.SourceOnboarding, lot.ID.String(),
		)
		if err != nil {
			return err
		}
		return repos.MovementRepo().Create(ctx, movement)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Initial balance onboarding failed", zap.String("card_id", cmd.CardID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Initial balance onboarded",
		zap.String("card_id", cmd.CardID.String()),
		zap.String("lot_id", lot.ID.String()),
		zap.String("quantity", lot.InitialQty.String()),
	)
	telemetry.SetOK(span)
	return lot, nil
}

// ValuateCard returns the remaining FIFO value of a card's open lots
func (s *AdjustmentService) ValuateCard(ctx context.Context, cardID uuid.UUID) (*Valuation, error) {
	var valuation *Valuation
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.CardRepo().FindByID(ctx, cardID); err != nil {
			return err
		}
		lots, err := repos.LotRepo().FindOpenByCard(ctx, cardID)
		if err != nil {
			return fmt.Errorf("failed to load lots: %w", err)
		}

		qty := decimal.Zero
		value := decimal.Zero
		open := 0
		for _, lot := range lots {
			if !lot.IsOpen() {
				continue
			}
			open++
			qty = qty.Add(lot.RemainingQty)
			value = value.Add(lot.RemainingQty.Mul(lot.UnitCost))
		}
		valuation = &Valuation{
			CardID:      cardID,
			Quantity:    valueobject.ToQty(qty),
			Value:       valueobject.ToMoney(value),
			AverageCost: inventory.WeightedAverageCost(lots),
			OpenLots:    open,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return valuation, nil
}
