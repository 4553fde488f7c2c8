package inventory

import (
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OriginKind identifies where a lot came from
type OriginKind string

const (
	OriginSupplierReceipt  OriginKind = "supplier_receipt"
	OriginInitialBalance   OriginKind = "initial_balance"
	OriginManualAdjustment OriginKind = "manual_adjustment"
)

// IsValid checks if the origin kind is known
func (k OriginKind) IsValid() bool {
	switch k {
	case OriginSupplierReceipt, OriginInitialBalance, OriginManualAdjustment:
		return true
	}
	return false
}

// String returns the string representation of OriginKind
func (k OriginKind) String() string {
	return string(k)
}

// LotOrigin records how a lot entered the ledger.
// Supplier references are only set for OriginSupplierReceipt.
type LotOrigin struct {
	Kind            OriginKind
	SupplierOrderID *uuid.UUID
	SupplierLineID  *uuid.UUID
}

// SupplierReceipt returns the origin of a lot created by receiving a supplier order line
func SupplierReceipt(orderID, lineID uuid.UUID) LotOrigin {
	return LotOrigin{
		Kind:            OriginSupplierReceipt,
		SupplierOrderID: &orderID,
		SupplierLineID:  &lineID,
	}
}

// InitialBalance returns the origin of an onboarding lot
func InitialBalance() LotOrigin {
	return LotOrigin{Kind: OriginInitialBalance}
}

// ManualAdjustment returns the origin of a lot created by a positive stock adjustment
func ManualAdjustment() LotOrigin {
	return LotOrigin{Kind: OriginManualAdjustment}
}

func (o LotOrigin) validate() error {
	if !o.Kind.IsValid() {
		return shared.NewDomainError("INVALID_ORIGIN", fmt.Sprintf("Unknown lot origin %q", o.Kind))
	}
	hasRefs := o.SupplierOrderID != nil || o.SupplierLineID != nil
	if o.Kind == OriginSupplierReceipt && (o.SupplierOrderID == nil || o.SupplierLineID == nil) {
		return shared.NewDomainError("INVALID_ORIGIN", "Supplier receipt lots require order and line references")
	}
	if o.Kind != OriginSupplierReceipt && hasRefs {
		return shared.NewDomainError("INVALID_ORIGIN", "Only supplier receipt lots may reference a supplier order")
	}
	return nil
}

// InventoryLot is a discrete quantity of one product acquired at a single unit cost.
// UnitCost never changes after creation; RemainingQty moves between 0 and InitialQty.
type InventoryLot struct {
	shared.BaseEntity
	CardID       uuid.UUID
	InitialQty   decimal.Decimal
	RemainingQty decimal.Decimal
	UnitCost     decimal.Decimal
	ReceivedAt   time.Time
	Origin       LotOrigin
}

// NewInventoryLot creates a full lot
func NewInventoryLot(cardID uuid.UUID, qty, unitCost decimal.Decimal, receivedAt time.Time, origin LotOrigin) (*InventoryLot, error) {
	if cardID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CARD", "Card ID cannot be empty")
	}
	qty = valueobject.ToQty(qty)
	if !valueobject.IsPositiveQty(qty) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if err := origin.validate(); err != nil {
		return nil, err
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	return &InventoryLot{
		BaseEntity:   shared.NewBaseEntity(),
		CardID:       cardID,
		InitialQty:   qty,
		RemainingQty: qty,
		UnitCost:     valueobject.ToUnitCost(unitCost),
		ReceivedAt:   receivedAt,
		Origin:       origin,
	}, nil
}

// IsOpen returns true if the lot still has stock to draw
func (l *InventoryLot) IsOpen() bool {
	return valueobject.IsPositiveQty(l.RemainingQty)
}

// IsUntouched returns true if nothing has been drawn from the lot
func (l *InventoryLot) IsUntouched() bool {
	return valueobject.IsZeroQty(l.InitialQty.Sub(l.RemainingQty))
}

// ConsumedQty returns how much has been drawn from the lot
func (l *InventoryLot) ConsumedQty() decimal.Decimal {
	return l.InitialQty.Sub(l.RemainingQty)
}

// RemainingValue returns remaining quantity valued at the lot's unit cost
func (l *InventoryLot) RemainingValue() decimal.Decimal {
	return valueobject.ToMoney(l.RemainingQty.Mul(l.UnitCost))
}

// Draw removes quantity from the lot
func (l *InventoryLot) Draw(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Draw quantity must be positive")
	}
	if qty.Sub(l.RemainingQty).GreaterThan(valueobject.Epsilon) {
		return shared.NewDomainError(shared.ErrInsufficientInventory.Code,
			fmt.Sprintf("Lot %s has %s remaining, cannot draw %s", l.ID, l.RemainingQty, qty))
	}
	l.RemainingQty = decimal.Max(decimal.Zero, l.RemainingQty.Sub(qty))
	l.Touch()
	return nil
}

// Restore puts previously drawn quantity back into the lot
func (l *InventoryLot) Restore(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}
	restored := l.RemainingQty.Add(qty)
	if restored.Sub(l.InitialQty).GreaterThan(valueobject.Epsilon) {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Lot %s cannot hold %s, initial quantity is %s", l.ID, restored, l.InitialQty))
	}
	l.RemainingQty = decimal.Min(restored, l.InitialQty)
	l.Touch()
	return nil
}
