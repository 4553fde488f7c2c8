package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FifoAllocation links a sale line to the lot it drew from.
// Cost fields are frozen at allocation time; rows are deleted on reversal.
type FifoAllocation struct {
	ID           uuid.UUID
	SalesOrderID uuid.UUID
	SalesLineID  uuid.UUID
	LotID        uuid.UUID
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	TotalCost    decimal.Decimal
	CreatedAt    time.Time
}

// NewFifoAllocation records a planned draw against a sale line
func NewFifoAllocation(orderID, lineID uuid.UUID, d Draw) *FifoAllocation {
	return &FifoAllocation{
		ID:           uuid.New(),
		SalesOrderID: orderID,
		SalesLineID:  lineID,
		LotID:        d.LotID,
		Quantity:     d.Quantity,
		UnitCost:     d.UnitCost,
		TotalCost:    d.TotalCost,
		CreatedAt:    time.Now(),
	}
}

// DeductionDetail describes one lot deduction made by a raw consumption
type DeductionDetail struct {
	LotID     uuid.UUID
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// DeductionsFromDraws converts applied draws into deduction details
func DeductionsFromDraws(draws []Draw) []DeductionDetail {
	out := make([]DeductionDetail, 0, len(draws))
	for _, d := range draws {
		out = append(out, DeductionDetail(d))
	}
	return out
}
