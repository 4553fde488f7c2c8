package models

import (
	"time"

	"github.com/erp/costledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinanceTransactionModel is the persistence model for a booked income or expense.
type FinanceTransactionModel struct {
	ID          uuid.UUID               `gorm:"type:uuid;primary_key"`
	Kind        finance.TransactionKind `gorm:"type:varchar(20);not null"`
	Category    finance.Category        `gorm:"type:varchar(50);not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	ExternalID  string                  `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string                  `gorm:"type:text"`
	OccurredAt  time.Time               `gorm:"not null;index"`
	CreatedAt   time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinanceTransactionModel) TableName() string {
	return "finance_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *FinanceTransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		ID:          m.ID,
		Kind:        m.Kind,
		Category:    m.Category,
		Amount:      m.Amount,
		ExternalID:  m.ExternalID,
		Description: m.Description,
		OccurredAt:  m.OccurredAt,
		CreatedAt:   m.CreatedAt,
	}
}

// FinanceTransactionModelFromDomain creates a new persistence model from a domain Transaction.
func FinanceTransactionModelFromDomain(t *finance.Transaction) *FinanceTransactionModel {
	return &FinanceTransactionModel{
		ID:          t.ID,
		Kind:        t.Kind,
		Category:    t.Category,
		Amount:      t.Amount,
		ExternalID:  t.ExternalID,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}
