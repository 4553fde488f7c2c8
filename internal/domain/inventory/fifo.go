package inventory

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShortfallPolicy decides what a FIFO walk does when open lots cannot cover the request
type ShortfallPolicy int

const (
	// ShortfallFail rejects the whole request with an InsufficientInventoryError
	ShortfallFail ShortfallPolicy = iota
	// ShortfallClamp allocates whatever is available and reports the shortage
	ShortfallClamp
)

// String returns the string representation of ShortfallPolicy
func (p ShortfallPolicy) String() string {
	switch p {
	case ShortfallFail:
		return "fail"
	case ShortfallClamp:
		return "clamp"
	}
	return fmt.Sprintf("ShortfallPolicy(%d)", int(p))
}

// Draw is one planned deduction from one lot
type Draw struct {
	LotID     uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// AllocationPlan is the outcome of a FIFO walk
type AllocationPlan struct {
	Draws     []Draw
	Requested decimal.Decimal
	Allocated decimal.Decimal
	Shortage  decimal.Decimal
	TotalCost decimal.Decimal
}

// IsComplete returns true if the whole request was covered
func (p *AllocationPlan) IsComplete() bool {
	return valueobject.IsZeroQty(p.Shortage)
}

// InsufficientInventoryError is returned by a strict walk that cannot cover the request
type InsufficientInventoryError struct {
	CardID    uuid.UUID
	Requested decimal.Decimal
	Allocated decimal.Decimal
	Shortage  decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientInventoryError) Error() string {
	if e.CardID != uuid.Nil {
		return fmt.Sprintf("insufficient inventory for card %s: requested %s, available %s, short %s",
			e.CardID, e.Requested, e.Allocated, e.Shortage)
	}
	return fmt.Sprintf("insufficient inventory: requested %s, available %s, short %s",
		e.Requested, e.Allocated, e.Shortage)
}

// Is makes errors.Is(err, shared.ErrInsufficientInventory) match
func (e *InsufficientInventoryError) Is(target error) bool {
	t, ok := target.(*shared.DomainError)
	return ok && t.Code == shared.ErrInsufficientInventory.Code
}

// SortLotsFIFO orders lots by (ReceivedAt, ID) ascending. Equal timestamps are
// broken by the raw bytes of the lot ID so the order is total and repeatable.
func SortLotsFIFO(lots []*InventoryLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// PlanDraws walks lots oldest first and plans deductions covering requested.
// Lots are not modified. Lots at or below Epsilon are skipped.
func PlanDraws(lots []*InventoryLot, requested decimal.Decimal, policy ShortfallPolicy) (*AllocationPlan, error) {
	plan := &AllocationPlan{
		Draws:     make([]Draw, 0),
		Requested: requested,
		Allocated: decimal.Zero,
		Shortage:  decimal.Zero,
		TotalCost: decimal.Zero,
	}
	if !valueobject.IsPositiveQty(requested) {
		return plan, nil
	}

	ordered := make([]*InventoryLot, len(lots))
	copy(ordered, lots)
	SortLotsFIFO(ordered)

	stillNeeded := requested
	for _, lot := range ordered {
		if !valueobject.IsPositiveQty(stillNeeded) {
			break
		}
		if !lot.IsOpen() {
			continue
		}

		qty := decimal.Min(lot.RemainingQty, stillNeeded)
		total := valueobject.ToMoney(qty.Mul(lot.UnitCost))
		plan.Draws = append(plan.Draws, Draw{
			LotID:     lot.ID,
			Quantity:  qty,
			UnitCost:  lot.UnitCost,
			TotalCost: total,
		})

		stillNeeded = stillNeeded.Sub(qty)
		plan.Allocated = plan.Allocated.Add(qty)
	}
	plan.TotalCost = SumDrawCost(plan.Draws)

	if valueobject.IsPositiveQty(stillNeeded) {
		plan.Shortage = stillNeeded
		if policy == ShortfallFail {
			return nil, &InsufficientInventoryError{
				Requested: requested,
				Allocated: plan.Allocated,
				Shortage:  stillNeeded,
			}
		}
	}

	return plan, nil
}

// Allocate plans a strict FIFO allocation. It fails if open lots cannot cover requested.
func Allocate(lots []*InventoryLot, requested decimal.Decimal) ([]Draw, error) {
	plan, err := PlanDraws(lots, requested, ShortfallFail)
	if err != nil {
		return nil, err
	}
	return plan.Draws, nil
}

// AllocatePartial plans a FIFO allocation of whatever is available. It never fails.
func AllocatePartial(lots []*InventoryLot, requested decimal.Decimal) []Draw {
	plan, _ := PlanDraws(lots, requested, ShortfallClamp)
	return plan.Draws
}

// ApplyDraws deducts planned draws from the matching lots
func ApplyDraws(lots []*InventoryLot, draws []Draw) error {
	byID := make(map[uuid.UUID]*InventoryLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}
	for _, d := range draws {
		lot, ok := byID[d.LotID]
		if !ok {
			return shared.NewNotFoundError(fmt.Sprintf("Lot %s not found among candidates", d.LotID))
		}
		if err := lot.Draw(d.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SumDrawCost returns the sum of draw totals
func SumDrawCost(draws []Draw) decimal.Decimal {
	total := decimal.Zero
	for _, d := range draws {
		total = total.Add(d.TotalCost)
	}
	return total
}

// WeightedAverageCost returns Σ(remaining × unitCost) / Σremaining over open lots,
// rounded as a unit cost. Zero when no lot is open.
func WeightedAverageCost(lots []*InventoryLot) decimal.Decimal {
	qty := decimal.Zero
	value := decimal.Zero
	for _, lot := range lots {
		if !lot.IsOpen() {
			continue
		}
		qty = qty.Add(lot.RemainingQty)
		value = value.Add(lot.RemainingQty.Mul(lot.UnitCost))
	}
	if !valueobject.IsPositiveQty(qty) {
		return decimal.Zero
	}
	return valueobject.ToUnitCost(value.Div(qty))
}
