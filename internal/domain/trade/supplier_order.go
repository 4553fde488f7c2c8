package trade

import (
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierOrderStatus represents the status of a supplier order
type SupplierOrderStatus string

const (
	SupplierOrderStatusDraft    SupplierOrderStatus = "draft"
	SupplierOrderStatusReceived SupplierOrderStatus = "received"
)

// String returns the string representation of SupplierOrderStatus
func (s SupplierOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Receiving and un-receiving are exact inverses.
func (s SupplierOrderStatus) CanTransitionTo(target SupplierOrderStatus) bool {
	switch s {
	case SupplierOrderStatusDraft:
		return target == SupplierOrderStatusReceived
	case SupplierOrderStatusReceived:
		return target == SupplierOrderStatusDraft
	}
	return false
}

// SupplierOrderLine is one product line of a supplier order
type SupplierOrderLine struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	CardID         uuid.UUID
	OrderedQty     decimal.Decimal
	PurchaseAmount decimal.Decimal
	AllocatedCosts decimal.Decimal
	ReceivedQty    *decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineTotal is the purchase amount plus individually allocated costs (freight, duties)
func (l *SupplierOrderLine) LineTotal() decimal.Decimal {
	return valueobject.ToMoney(l.PurchaseAmount.Add(l.AllocatedCosts))
}

// LandedUnitCost spreads the line total over the ordered quantity
func (l *SupplierOrderLine) LandedUnitCost() decimal.Decimal {
	return valueobject.ToUnitCost(l.LineTotal().Div(l.OrderedQty))
}

// UnitCostFor spreads the line total over the quantity actually received
func (l *SupplierOrderLine) UnitCostFor(receivedQty decimal.Decimal) decimal.Decimal {
	if !valueobject.IsPositiveQty(receivedQty) {
		return decimal.Zero
	}
	return valueobject.ToUnitCost(l.LineTotal().Div(receivedQty))
}

// SupplierOrder is a purchase from a supplier. Receiving it creates one lot per line.
type SupplierOrder struct {
	shared.BaseAggregateRoot
	SupplierName          string
	Status                SupplierOrderStatus
	Lines                 []*SupplierOrderLine
	PurchaseTransactionID *uuid.UUID
	ReceivedAt            *time.Time
}

// NewSupplierOrder creates an empty draft order
func NewSupplierOrder(supplierName string) *SupplierOrder {
	return &SupplierOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierName:      supplierName,
		Status:            SupplierOrderStatusDraft,
		Lines:             make([]*SupplierOrderLine, 0),
	}
}

// AddLine appends a line to a draft order
func (o *SupplierOrder) AddLine(cardID uuid.UUID, orderedQty, purchaseAmount, allocatedCosts decimal.Decimal) (*SupplierOrderLine, error) {
	if o.Status != SupplierOrderStatusDraft {
		return nil, shared.NewInvalidStateError("Can only add lines to a draft supplier order")
	}
	if cardID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CARD", "Card ID cannot be empty")
	}
	orderedQty = valueobject.ToQty(orderedQty)
	if !valueobject.IsPositiveQty(orderedQty) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	purchaseAmount = valueobject.ToMoney(purchaseAmount)
	allocatedCosts = valueobject.ToMoney(allocatedCosts)
	if purchaseAmount.IsNegative() || allocatedCosts.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Purchase amount and allocated costs cannot be negative")
	}

	now := time.Now()
	line := &SupplierOrderLine{
		ID:             uuid.New(),
		OrderID:        o.ID,
		CardID:         cardID,
		OrderedQty:     orderedQty,
		PurchaseAmount: purchaseAmount,
		AllocatedCosts: allocatedCosts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.Lines = append(o.Lines, line)
	return line, nil
}

// TotalCost is the order's original total: Σ line totals at ordered quantities
func (o *SupplierOrder) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.LineTotal())
	}
	return valueobject.ToMoney(total)
}

// ResolveReceivedQty returns the quantity received per line. Lines missing from
// overrides are received in full. Unknown line IDs and negative quantities are rejected.
func (o *SupplierOrder) ResolveReceivedQty(overrides map[uuid.UUID]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	known := make(map[uuid.UUID]*SupplierOrderLine, len(o.Lines))
	for _, l := range o.Lines {
		known[l.ID] = l
	}
	for id, qty := range overrides {
		if _, ok := known[id]; !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Supplier order line %s not found", id))
		}
		if qty.IsNegative() {
			return nil, shared.NewInvalidInputError(fmt.Sprintf("Received quantity for line %s cannot be negative", id))
		}
	}

	out := make(map[uuid.UUID]decimal.Decimal, len(o.Lines))
	for _, l := range o.Lines {
		qty, ok := overrides[l.ID]
		if !ok {
			qty = l.OrderedQty
		}
		out[l.ID] = valueobject.ToQty(qty)
	}
	return out, nil
}

// MarkReceived records received quantities and the purchase booking
func (o *SupplierOrder) MarkReceived(received map[uuid.UUID]decimal.Decimal, purchaseTxID uuid.UUID) error {
	if !o.Status.CanTransitionTo(SupplierOrderStatusReceived) {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Cannot receive supplier order in %s status", o.Status))
	}
	now := time.Now()
	for _, l := range o.Lines {
		qty := received[l.ID]
		l.ReceivedQty = &qty
		l.UpdatedAt = now
	}
	o.Status = SupplierOrderStatusReceived
	o.PurchaseTransactionID = &purchaseTxID
	o.ReceivedAt = &now
	o.IncrementVersion()
	o.Touch()
	return nil
}

// MarkUnreceived returns the order to draft
func (o *SupplierOrder) MarkUnreceived() error {
	if !o.Status.CanTransitionTo(SupplierOrderStatusDraft) {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Cannot un-receive supplier order in %s status", o.Status))
	}
	now := time.Now()
	for _, l := range o.Lines {
		l.ReceivedQty = nil
		l.UpdatedAt = now
	}
	o.Status = SupplierOrderStatusDraft
	o.PurchaseTransactionID = nil
	o.ReceivedAt = nil
	o.IncrementVersion()
	o.Touch()
	return nil
}

