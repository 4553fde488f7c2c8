package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplyRejection is a quantity rejected at a destination warehouse during a supply.
// Pending rejections are written off as a loss exactly once.
type SupplyRejection struct {
	ID                    uuid.UUID
	CardID                uuid.UUID
	SupplyRef             string
	RejectedQty           decimal.Decimal
	WrittenOff            bool
	WrittenOffAt          *time.Time
	WriteOffTransactionID *uuid.UUID
	CreatedAt             time.Time
}

// NewSupplyRejection records a rejected quantity
func NewSupplyRejection(cardID uuid.UUID, supplyRef string, qty decimal.Decimal) (*SupplyRejection, error) {
	if cardID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CARD", "Card ID cannot be empty")
	}
	qty = valueobject.ToQty(qty)
	if !valueobject.IsPositiveQty(qty) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Rejected quantity must be positive")
	}
	return &SupplyRejection{
		ID:          uuid.New(),
		CardID:      cardID,
		SupplyRef:   supplyRef,
		RejectedQty: qty,
		CreatedAt:   time.Now(),
	}, nil
}

// MarkWrittenOff flags the rejection as booked
func (r *SupplyRejection) MarkWrittenOff(transactionID uuid.UUID, at time.Time) error {
	if r.WrittenOff {
		return shared.NewInvalidStateError(fmt.Sprintf("Supply rejection %s is already written off", r.ID))
	}
	r.WrittenOff = true
	r.WrittenOffAt = &at
	r.WriteOffTransactionID = &transactionID
	return nil
}

// SumRejected returns the total rejected quantity
func SumRejected(records []*SupplyRejection) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.RejectedQty)
	}
	return total
}

// rejectionNamespace scopes deterministic write-off keys
var rejectionNamespace = uuid.MustParse("6f1d8a64-2b1e-4c0f-9d6e-3a7b5c2e9f10")

// WriteOffKey derives a stable key from the set of rejection IDs, independent of their order
func WriteOffKey(records []*SupplyRejection) uuid.UUID {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID.String())
	}
	sort.Strings(ids)
	return uuid.NewSHA1(rejectionNamespace, []byte(strings.Join(ids, ",")))
}
