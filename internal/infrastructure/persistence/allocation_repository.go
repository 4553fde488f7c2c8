package persistence

import (
	"context"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// CreateBatch inserts allocation rows
func (r *GormAllocationRepository) CreateBatch(ctx context.Context, allocations []*inventory.FifoAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	rows := make([]*models.FifoAllocationModel, len(allocations))
	for i, a := range allocations {
		rows[i] = models.FifoAllocationModelFromDomain(a)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindBySalesOrder returns all allocations of a sale
func (r *GormAllocationRepository) FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]*inventory.FifoAllocation, error) {
	var rows []models.FifoAllocationModel
	if err := r.db.WithContext(ctx).
		Where("sales_order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	allocations := make([]*inventory.FifoAllocation, len(rows))
	for i := range rows {
		allocations[i] = rows[i].ToDomain()
	}
	return allocations, nil
}

// DeleteBySalesOrder deletes all allocations of a sale and returns how many were removed
func (r *GormAllocationRepository) DeleteBySalesOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sales_order_id = ?", orderID).
		Delete(&models.FifoAllocationModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ inventory.AllocationRepository = (*GormAllocationRepository)(nil)
