package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSupplierOrderRepository implements SupplierOrderRepository using GORM
type GormSupplierOrderRepository struct {
	db *gorm.DB
}

// NewGormSupplierOrderRepository creates a new GormSupplierOrderRepository
func NewGormSupplierOrderRepository(db *gorm.DB) *GormSupplierOrderRepository {
	return &GormSupplierOrderRepository{db: db}
}

func orderSupplierLines(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID finds a supplier order by ID
func (r *GormSupplierOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SupplierOrder, error) {
	var model models.SupplierOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderSupplierLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Supplier order %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds and row-locks a supplier order
func (r *GormSupplierOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SupplierOrder, error) {
	var model models.SupplierOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Supplier order %s not found", id))
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Scopes(orderSupplierLines).
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a supplier order and its lines
func (r *GormSupplierOrderRepository) Create(ctx context.Context, order *trade.SupplierOrder) error {
	model := models.SupplierOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError(err, "")
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.Lines).Error
}

// Save persists status, booking reference and received quantities
func (r *GormSupplierOrderRepository) Save(ctx context.Context, order *trade.SupplierOrder) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.SupplierOrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":                  order.Status,
			"purchase_transaction_id": order.PurchaseTransactionID,
			"received_at":             order.ReceivedAt,
			"version":                 order.Version,
			"updated_at":              now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Supplier order %s not found", order.ID))
	}

	for _, line := range order.Lines {
		received := models.SupplierOrderLineModelFromDomain(line).ReceivedQty
		if err := r.db.WithContext(ctx).Model(&models.SupplierOrderLineModel{}).
			Where("id = ?", line.ID).
			Updates(map[string]any{
				"received_qty": received,
				"updated_at":   now,
			}).Error; err != nil {
			return fmt.Errorf("failed to save supplier order line %s: %w", line.ID, err)
		}
	}
	return nil
}

// Ensure GormSupplierOrderRepository implements SupplierOrderRepository
var _ trade.SupplierOrderRepository = (*GormSupplierOrderRepository)(nil)
