package persistence

import (
	"context"
	"fmt"

	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormValuationProvider reports the remaining value of all open lots
type GormValuationProvider struct {
	db *gorm.DB
}

// NewGormValuationProvider creates a new GormValuationProvider
func NewGormValuationProvider(db *gorm.DB) *GormValuationProvider {
	return &GormValuationProvider{db: db}
}

// TotalInventoryValue sums remaining_qty × unit_cost over open lots
func (p *GormValuationProvider) TotalInventoryValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := p.db.WithContext(ctx).
		Table("inventory_lots").
		Select("SUM(remaining_qty * unit_cost)").
		Where("remaining_qty > 0").
		Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum inventory value: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return valueobject.ToMoney(total.Decimal), nil
}
