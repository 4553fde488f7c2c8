package finance

import (
	"context"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind separates money in from money out
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// IsValid checks if the kind is known
func (k TransactionKind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

// Category classifies a finance transaction
type Category string

const (
	CategorySales          Category = "sales"
	CategoryMarketplaceFee Category = "marketplace_fee"
	CategoryPurchase       Category = "purchase"
	CategorySupplyLoss     Category = "supply_loss"
	CategoryDiscrepancy    Category = "discrepancy"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Transaction is a booked income or expense. ExternalID is unique and
// deterministic for bookings made by the ledger so retries do not double-book.
type Transaction struct {
	ID          uuid.UUID
	Kind        TransactionKind
	Category    Category
	Amount      decimal.Decimal
	ExternalID  string
	Description string
	OccurredAt  time.Time
	CreatedAt   time.Time
}

// NewTransaction creates a transaction. Amount is stored as a non-negative money value.
func NewTransaction(kind TransactionKind, category Category, amount decimal.Decimal, externalID, description string) (*Transaction, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Transaction kind must be income or expense")
	}
	if category == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Transaction category cannot be empty")
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID cannot be empty")
	}
	amount = valueobject.ToMoney(amount)
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	now := time.Now()
	return &Transaction{
		ID:          uuid.New(),
		Kind:        kind,
		Category:    category,
		Amount:      amount,
		ExternalID:  externalID,
		Description: description,
		OccurredAt:  now,
		CreatedAt:   now,
	}, nil
}

// TransactionRepository defines the interface for finance transaction persistence
type TransactionRepository interface {
	// CreateIfAbsent inserts the transaction unless one with the same external ID exists.
	// Returns the stored transaction and whether it was inserted by this call.
	CreateIfAbsent(ctx context.Context, tx *Transaction) (*Transaction, bool, error)

	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByExternalID finds a transaction by its external ID
	FindByExternalID(ctx context.Context, externalID string) (*Transaction, error)

	// Delete removes a transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
