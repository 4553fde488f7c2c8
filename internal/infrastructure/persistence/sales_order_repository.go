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

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func preloadSaleLines(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadSaleLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Sale %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds and row-locks a sales order
func (r *GormSalesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Sale %s not found", id))
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Scopes(preloadSaleLines).
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a sale by marketplace and marketplace order ID
func (r *GormSalesOrderRepository) FindByExternalID(ctx context.Context, marketplace, externalID string) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadSaleLines).
		Where("marketplace = ? AND external_id = ?", marketplace, externalID).
		First(&model).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Sale %s/%s not found", marketplace, externalID))
	}
	return model.ToDomain(), nil
}

// Create inserts a sale and its lines.
// Returns shared.ErrAlreadyExists when (marketplace, external ID) is taken.
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError(err, "")
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.Lines).Error
}

// Save persists status, totals and derived line figures
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":             order.Status,
			"total_revenue":      order.TotalRevenue,
			"total_fees":         order.TotalFees,
			"total_extra_costs":  order.TotalExtraCosts,
			"total_cogs":         order.TotalCOGS,
			"total_gross_profit": order.TotalGrossProfit,
			"cancelled_at":       order.CancelledAt,
			"version":            order.Version,
			"updated_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Sale %s not found", order.ID))
	}

	for _, line := range order.Lines {
		if err := r.db.WithContext(ctx).Model(&models.SalesOrderLineModel{}).
			Where("id = ?", line.ID).
			Updates(map[string]any{
				"card_known":        line.CardKnown,
				"revenue":           line.Revenue,
				"cogs":              line.COGS,
				"gross_profit":      line.GrossProfit,
				"shortage_qty":      line.ShortageQty,
				"allocation_status": line.AllocationStatus,
				"updated_at":        now,
			}).Error; err != nil {
			return fmt.Errorf("failed to save sale line %s: %w", line.ID, err)
		}
	}
	return nil
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
