package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus represents the status of a sales order
type SalesOrderStatus string

const (
	SalesOrderStatusActive    SalesOrderStatus = "active"
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
)

// String returns the string representation of SalesOrderStatus
func (s SalesOrderStatus) String() string {
	return string(s)
}

// AllocationStatus tracks a sale line through the ledger
type AllocationStatus string

const (
	AllocationUnallocated AllocationStatus = "unallocated"
	AllocationAllocated   AllocationStatus = "allocated"
	AllocationReversed    AllocationStatus = "reversed"
)

// String returns the string representation of AllocationStatus
func (s AllocationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target.
// Lines only move forward: unallocated, allocated, reversed.
func (s AllocationStatus) CanTransitionTo(target AllocationStatus) bool {
	switch s {
	case AllocationUnallocated:
		return target == AllocationAllocated
	case AllocationAllocated:
		return target == AllocationReversed
	}
	return false
}

// SaleLine is one product line of a sale
type SaleLine struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	CardID           uuid.UUID
	CardKnown        bool
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	Fee              decimal.Decimal
	ExtraCost        decimal.Decimal
	Revenue          decimal.Decimal
	COGS             decimal.Decimal
	GrossProfit      decimal.Decimal
	ShortageQty      decimal.Decimal
	AllocationStatus AllocationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func newSaleLine(orderID, cardID uuid.UUID, qty, unitPrice, fee, extraCost decimal.Decimal) (*SaleLine, error) {
	qty = valueobject.ToQty(qty)
	if !valueobject.IsPositiveQty(qty) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Sale quantity must be positive")
	}
	unitPrice = valueobject.ToMoney(unitPrice)
	fee = valueobject.ToMoney(fee)
	extraCost = valueobject.ToMoney(extraCost)
	if unitPrice.IsNegative() || fee.IsNegative() || extraCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Price, fee and extra cost cannot be negative")
	}

	now := time.Now()
	line := &SaleLine{
		ID:               uuid.New(),
		OrderID:          orderID,
		CardID:           cardID,
		CardKnown:        true,
		Quantity:         qty,
		UnitPrice:        unitPrice,
		Fee:              fee,
		ExtraCost:        extraCost,
		Revenue:          valueobject.ToMoney(qty.Mul(unitPrice)),
		COGS:             decimal.Zero,
		ShortageQty:      decimal.Zero,
		AllocationStatus: AllocationUnallocated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	line.recalculateProfit()
	return line, nil
}

func (l *SaleLine) recalculateProfit() {
	l.GrossProfit = valueobject.ToMoney(l.Revenue.Sub(l.COGS).Sub(l.Fee).Sub(l.ExtraCost))
}

// MarkUnknownCard records that the card could not be resolved; the line keeps zero COGS
func (l *SaleLine) MarkUnknownCard() {
	l.CardKnown = false
	l.ShortageQty = l.Quantity
	l.UpdatedAt = time.Now()
}

// ApplyAllocation records the FIFO result for the line
func (l *SaleLine) ApplyAllocation(allocatedQty, cogs decimal.Decimal) error {
	if l.AllocationStatus != AllocationUnallocated {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Cannot allocate sale line in %s state", l.AllocationStatus))
	}
	l.COGS = valueobject.ToMoney(cogs)
	l.ShortageQty = decimal.Max(decimal.Zero, l.Quantity.Sub(allocatedQty))
	if valueobject.IsPositiveQty(allocatedQty) {
		l.AllocationStatus = AllocationAllocated
	}
	l.recalculateProfit()
	l.UpdatedAt = time.Now()
	return nil
}

// Reverse clears the line's cost after its allocations were returned to lots.
// Lines that never drew from a lot are left untouched.
func (l *SaleLine) Reverse() bool {
	if !l.AllocationStatus.CanTransitionTo(AllocationReversed) {
		return false
	}
	l.AllocationStatus = AllocationReversed
	l.clearCost()
	return true
}

func (l *SaleLine) clearCost() {
	l.COGS = decimal.Zero
	l.GrossProfit = decimal.Zero
	l.UpdatedAt = time.Now()
}

// SalesOrder is a marketplace sale with one or more lines.
// (Marketplace, ExternalID) is unique when ExternalID is set.
type SalesOrder struct {
	shared.BaseAggregateRoot
	Marketplace      string
	ExternalID       *string
	CreatedBy        uuid.UUID
	Status           SalesOrderStatus
	Lines            []*SaleLine
	TotalRevenue     decimal.Decimal
	TotalFees        decimal.Decimal
	TotalExtraCosts  decimal.Decimal
	TotalCOGS        decimal.Decimal
	TotalGrossProfit decimal.Decimal
	CancelledAt      *time.Time
}

// NewSalesOrder creates an empty active sale
func NewSalesOrder(marketplace string, externalID *string, createdBy uuid.UUID) (*SalesOrder, error) {
	marketplace = strings.TrimSpace(marketplace)
	if marketplace == "" {
		return nil, shared.NewDomainError("INVALID_MARKETPLACE", "Marketplace cannot be empty")
	}
	if externalID != nil {
		trimmed := strings.TrimSpace(*externalID)
		if trimmed == "" {
			externalID = nil
		} else {
			externalID = &trimmed
		}
	}
	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Marketplace:       marketplace,
		ExternalID:        externalID,
		CreatedBy:         createdBy,
		Status:            SalesOrderStatusActive,
		Lines:             make([]*SaleLine, 0),
		TotalRevenue:      decimal.Zero,
		TotalFees:         decimal.Zero,
		TotalExtraCosts:   decimal.Zero,
		TotalCOGS:         decimal.Zero,
		TotalGrossProfit:  decimal.Zero,
	}, nil
}

// AddLine appends a line
func (o *SalesOrder) AddLine(cardID uuid.UUID, qty, unitPrice, fee, extraCost decimal.Decimal) (*SaleLine, error) {
	if o.Status != SalesOrderStatusActive {
		return nil, shared.NewInvalidStateError("Cannot add lines to a cancelled sale")
	}
	line, err := newSaleLine(o.ID, cardID, qty, unitPrice, fee, extraCost)
	if err != nil {
		return nil, err
	}
	o.Lines = append(o.Lines, line)
	return line, nil
}

// RecalculateTotals sums line figures into the order totals
func (o *SalesOrder) RecalculateTotals() {
	revenue, fees, extra, cogs, profit := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range o.Lines {
		revenue = revenue.Add(l.Revenue)
		fees = fees.Add(l.Fee)
		extra = extra.Add(l.ExtraCost)
		cogs = cogs.Add(l.COGS)
		profit = profit.Add(l.GrossProfit)
	}
	o.TotalRevenue = valueobject.ToMoney(revenue)
	o.TotalFees = valueobject.ToMoney(fees)
	o.TotalExtraCosts = valueobject.ToMoney(extra)
	o.TotalCOGS = valueobject.ToMoney(cogs)
	o.TotalGrossProfit = valueobject.ToMoney(profit)
	o.Touch()
}

// ApplyReversal marks every allocated line reversed and zeroes COGS and gross
// profit on all lines, so the totals stay the sum of the lines. Revenue is kept.
func (o *SalesOrder) ApplyReversal() int {
	reversed := 0
	for _, l := range o.Lines {
		if l.Reverse() {
			reversed++
			continue
		}
		l.clearCost()
	}
	o.RecalculateTotals()
	o.IncrementVersion()
	return reversed
}

// Cancel marks the sale cancelled
func (o *SalesOrder) Cancel() error {
	if o.Status == SalesOrderStatusCancelled {
		return shared.NewInvalidStateError("Sale is already cancelled")
	}
	now := time.Now()
	o.Status = SalesOrderStatusCancelled
	o.CancelledAt = &now
	o.IncrementVersion()
	o.Touch()
	return nil
}

// SaleKey identifies the sale in derived identifiers: the external ID if present, else the order ID
func (o *SalesOrder) SaleKey() string {
	if o.ExternalID != nil {
		return *o.ExternalID
	}
	return o.ID.String()
}

