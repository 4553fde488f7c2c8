package inventory

import (
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the reason a card's stock or lots changed
type MovementType string

const (
	MovementReceipt        MovementType = "receipt"
	MovementUnreceipt      MovementType = "unreceipt"
	MovementAdjustmentIn   MovementType = "adjustment_in"
	MovementAdjustmentOut  MovementType = "adjustment_out"
	MovementLossWriteOff   MovementType = "loss_write_off"
	MovementDiscrepancy    MovementType = "discrepancy_write_off"
	MovementInitialBalance MovementType = "initial_balance"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// SourceType identifies the document a movement belongs to
type SourceType string

const (
	SourceSupplierOrder    SourceType = "supplier_order"
	SourceManualAdjustment SourceType = "manual_adjustment"
	SourceSupplyRejection  SourceType = "supply_rejection"
	SourceOnboarding       SourceType = "onboarding"
)

// StockMovement is an append-only audit record.
// Quantity is signed: positive for stock in, negative for stock out.
type StockMovement struct {
	ID           uuid.UUID
	CardID       uuid.UUID
	MovementType MovementType
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	TotalCost    decimal.Decimal
	StockBefore  decimal.Decimal
	StockAfter   decimal.Decimal
	SourceType   SourceType
	SourceID     string
	Notes        string
	CreatedAt    time.Time
}

// NewStockMovement creates an audit record
func NewStockMovement(
	cardID uuid.UUID,
	movementType MovementType,
	quantity, totalCost decimal.Decimal,
	stockBefore, stockAfter decimal.Decimal,
	sourceType SourceType,
	sourceID string,
) (*StockMovement, error) {
	if cardID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CARD", "Card ID cannot be empty")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}

	unitCost := decimal.Zero
	if !valueobject.IsZeroQty(quantity) {
		unitCost = valueobject.ToUnitCost(totalCost.Div(quantity.Abs()))
	}

	return &StockMovement{
		ID:           uuid.New(),
		CardID:       cardID,
		MovementType: movementType,
		Quantity:     quantity,
		UnitCost:     unitCost,
		TotalCost:    valueobject.ToMoney(totalCost),
		StockBefore:  stockBefore,
		StockAfter:   stockAfter,
		SourceType:   sourceType,
		SourceID:     sourceID,
		CreatedAt:    time.Now(),
	}, nil
}

// WithNotes sets free-text notes
func (m *StockMovement) WithNotes(notes string) *StockMovement {
	m.Notes = notes
	return m
}
