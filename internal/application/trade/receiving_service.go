package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/application/validation"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceivingService turns supplier orders into cost lots and back
type ReceivingService struct {
	scope  inventoryapp.TransactionScope
	logger *zap.Logger
}

// NewReceivingService creates a new ReceivingService
func NewReceivingService(scope inventoryapp.TransactionScope, logger *zap.Logger) *ReceivingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivingService{
		scope:  scope,
		logger: logger,
	}
}

// ReceiveOrderCommand receives a draft supplier order.
// ReceivedQty overrides per line ID; missing lines are received in full.
type ReceiveOrderCommand struct {
	OrderID     uuid.UUID                     `json:"order_id" validate:"required"`
	ReceivedQty map[uuid.UUID]decimal.Decimal `json:"received_qty"`
}

// ReceiveResult describes a completed receipt
type ReceiveResult struct {
	Order          *trade.SupplierOrder
	LotsCreated    []*inventory.InventoryLot
	PurchaseAmount decimal.Decimal
}

// ReceiveOrder creates one lot per received line at its landed unit cost, raises
// home stock and books the purchase expense.
func (s *ReceivingService) ReceiveOrder(ctx context.Context, cmd ReceiveOrderCommand) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "receive_order")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, cmd.OrderID.String())

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *ReceiveResult
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		order, err := repos.SupplierOrderRepo().FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status != trade.SupplierOrderStatusDraft {
			return shared.NewInvalidStateError(
				fmt.Sprintf("Supplier order %s is already %s", order.ID, order.Status))
		}

		received, err := order.ResolveReceivedQty(cmd.ReceivedQty)
		if err != nil {
			return err
		}

		purchase, err := finance.NewTransaction(
			finance.KindExpense,
			finance.CategoryPurchase,
			order.TotalCost(),
			finance.PurchaseExternalID(order.ID),
			fmt.Sprintf("Purchase from %s", order.SupplierName),
		)
		if err != nil {
			return err
		}
		stored, _, err := repos.FinanceRepo().CreateIfAbsent(ctx, purchase)
		if err != nil {
			return fmt.Errorf("failed to book purchase: %w", err)
		}

		now := time.Now()
		lots := make([]*inventory.InventoryLot, 0, len(order.Lines))
		for _, line := range linesByCard(order.Lines) {
			qty := received[line.ID]
			if !valueobject.IsPositiveQty(qty) {
				continue
			}

			lot, err := inventory.NewInventoryLot(
				line.CardID, qty, line.UnitCostFor(qty), now,
				inventory.SupplierReceipt(order.ID, line.ID),
			)
			if err != nil {
				return err
			}
			if err := repos.LotRepo().Create(ctx, lot); err != nil {
				return fmt.Errorf("failed to create lot: %w", err)
			}
			s.logger.Debug("Lot received",
				zap.String("lot_id", lot.ID.String()),
				zap.String("card_id", line.CardID.String()),
				zap.String("ordered_qty", line.OrderedQty.String()),
				zap.String("received_qty", qty.String()),
				zap.String("landed_unit_cost", line.LandedUnitCost().String()),
				zap.String("received_unit_cost", lot.UnitCost.String()),
			)

			if err := s.moveStock(ctx, repos, line.CardID, qty, line.LineTotal(),
				inventory.MovementReceipt, order.ID); err != nil {
				return err
			}
			lots = append(lots, lot)
		}

		if err := order.MarkReceived(received, stored.ID); err != nil {
			return err
		}
		if err := repos.SupplierOrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save supplier order: %w", err)
		}

		result = &ReceiveResult{
			Order:          order,
			LotsCreated:    lots,
			PurchaseAmount: stored.Amount,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Supplier order receipt failed", zap.String("order_id", cmd.OrderID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Supplier order received",
		zap.String("order_id", cmd.OrderID.String()),
		zap.Int("lots", len(result.LotsCreated)),
		zap.String("purchase_amount", result.PurchaseAmount.String()),
	)
	telemetry.SetOK(span)
	return result, nil
}

// UnreceiveOrder undoes a receipt: deletes the order's lots, lowers home stock,
// removes the purchase booking and returns the order to draft. It is rejected
// once any of the order's lots has been drawn from. Returns the number of lots deleted.
func (s *ReceivingService) UnreceiveOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "unreceive_order")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	deleted := 0
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		order, err := repos.SupplierOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != trade.SupplierOrderStatusReceived {
			return shared.NewInvalidStateError(
				fmt.Sprintf("Supplier order %s is not received", order.ID))
		}

		lots, err := repos.LotRepo().FindBySupplierOrderForUpdate(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to lock lots: %w", err)
		}
		for _, lot := range lots {
			if !lot.IsUntouched() {
				return shared.NewInvalidStateError(
					fmt.Sprintf("Lot %s of supplier order %s has %s consumed; cancel the sales that used it first",
						lot.ID, order.ID, lot.ConsumedQty()))
			}
		}

		ids := make([]uuid.UUID, 0, len(lots))
		for _, lot := range sortLotsByCard(lots) {
			value := lot.RemainingValue()
			if err := s.moveStock(ctx, repos, lot.CardID, lot.InitialQty.Neg(), value,
				inventory.MovementUnreceipt, order.ID); err != nil {
				return err
			}
			ids = append(ids, lot.ID)
		}
		if len(ids) > 0 {
			if err := repos.LotRepo().DeleteByIDs(ctx, ids); err != nil {
				return fmt.Errorf("failed to delete lots: %w", err)
			}
		}

		if order.PurchaseTransactionID != nil {
			err := repos.FinanceRepo().Delete(ctx, *order.PurchaseTransactionID)
			switch {
			case errors.Is(err, shared.ErrNotFound):
				s.logger.Warn("Purchase booking already removed",
					zap.String("order_id", order.ID.String()),
					zap.String("transaction_id", order.PurchaseTransactionID.String()),
				)
			case err != nil:
				return fmt.Errorf("failed to delete purchase booking: %w", err)
			}
		}

		if err := order.MarkUnreceived(); err != nil {
			return err
		}
		if err := repos.SupplierOrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save supplier order: %w", err)
		}
		deleted = len(ids)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Supplier order un-receipt failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return 0, err
	}

	s.logger.Info("Supplier order un-received",
		zap.String("order_id", orderID.String()),
		zap.Int("lots_deleted", deleted),
	)
	telemetry.SetOK(span)
	return deleted, nil
}

// moveStock locks the card, applies delta to home stock and appends a movement
func (s *ReceivingService) moveStock(
	ctx context.Context,
	repos inventoryapp.TransactionalRepositories,
	cardID uuid.UUID,
	delta, value decimal.Decimal,
	movementType inventory.MovementType,
	orderID uuid.UUID,
) error {
	card, err := repos.CardRepo().FindByIDForUpdate(ctx, cardID)
	if err != nil {
		return err
	}
	before := card.StockQuantity
	if err := card.AdjustStock(delta); err != nil {
		return err
	}
	if err := repos.CardRepo().UpdateStock(ctx, card); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	movement, err := inventory.NewStockMovement(
		cardID, movementType, delta, value,
		before, card.StockQuantity,
		inventory.SourceSupplierOrder, orderID.String(),
	)
	if err != nil {
		return err
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}

// linesByCard orders lines by card ID so card row locks are taken in a fixed order
func linesByCard(lines []*trade.SupplierOrderLine) []*trade.SupplierOrderLine {
	out := make([]*trade.SupplierOrderLine, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(out[i].CardID[:], out[j].CardID[:]) < 0
	})
	return out
}

func sortLotsByCard(lots []*inventory.InventoryLot) []*inventory.InventoryLot {
	out := make([]*inventory.InventoryLot, len(lots))
	copy(out, lots)
	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(out[i].CardID[:], out[j].CardID[:]) < 0
	})
	return out
}
