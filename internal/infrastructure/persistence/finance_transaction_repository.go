package persistence

import (
	"context"
	"fmt"

	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinanceTransactionRepository implements TransactionRepository using GORM
type GormFinanceTransactionRepository struct {
	db *gorm.DB
}

// NewGormFinanceTransactionRepository creates a new GormFinanceTransactionRepository
func NewGormFinanceTransactionRepository(db *gorm.DB) *GormFinanceTransactionRepository {
	return &GormFinanceTransactionRepository{db: db}
}

// CreateIfAbsent inserts the transaction unless its external ID is already booked,
// in which case the stored transaction is returned with inserted = false.
func (r *GormFinanceTransactionRepository) CreateIfAbsent(ctx context.Context, tx *finance.Transaction) (*finance.Transaction, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(models.FinanceTransactionModelFromDomain(tx))
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return tx, true, nil
	}
	stored, err := r.FindByExternalID(ctx, tx.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return stored, false, nil
}

// FindByID finds a transaction by ID
func (r *GormFinanceTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	var model models.FinanceTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Finance transaction %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a transaction by its external ID
func (r *GormFinanceTransactionRepository) FindByExternalID(ctx context.Context, externalID string) (*finance.Transaction, error) {
	var model models.FinanceTransactionModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&model).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Finance transaction %s not found", externalID))
	}
	return model.ToDomain(), nil
}

// Delete removes a transaction
func (r *GormFinanceTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FinanceTransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Finance transaction %s not found", id))
	}
	return nil
}

// Ensure GormFinanceTransactionRepository implements TransactionRepository
var _ finance.TransactionRepository = (*GormFinanceTransactionRepository)(nil)
