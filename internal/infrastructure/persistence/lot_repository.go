package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder is the deterministic FIFO and lock acquisition order
const fifoOrder = "received_at ASC, id ASC"

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryLot, error) {
	var model models.InventoryLotModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Lot %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindOpenByCard returns the card's lots with remaining stock, oldest first
func (r *GormLotRepository) FindOpenByCard(ctx context.Context, cardID uuid.UUID) ([]*inventory.InventoryLot, error) {
	return r.find(r.openByCard(ctx, cardID))
}

// FindOpenByCardForUpdate locks the card's open lots in FIFO order
func (r *GormLotRepository) FindOpenByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*inventory.InventoryLot, error) {
	return r.find(r.openByCard(ctx, cardID).Clauses(clause.Locking{Strength: "UPDATE"}))
}

// FindByIDsForUpdate locks exactly the given lots in FIFO order
func (r *GormLotRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*inventory.InventoryLot, error) {
	if len(ids) == 0 {
		return []*inventory.InventoryLot{}, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order(fifoOrder).
		Clauses(clause.Locking{Strength: "UPDATE"}))
}

// FindBySupplierOrderForUpdate locks the lots created by receiving a supplier order
func (r *GormLotRepository) FindBySupplierOrderForUpdate(ctx context.Context, orderID uuid.UUID) ([]*inventory.InventoryLot, error) {
	return r.find(r.db.WithContext(ctx).
		Where("supplier_order_id = ? AND origin_kind = ?", orderID, inventory.OriginSupplierReceipt).
		Order(fifoOrder).
		Clauses(clause.Locking{Strength: "UPDATE"}))
}

// Create inserts a new lot
func (r *GormLotRepository) Create(ctx context.Context, lot *inventory.InventoryLot) error {
	return translateError(r.db.WithContext(ctx).Create(models.InventoryLotModelFromDomain(lot)).Error, "")
}

// UpdateRemaining persists only the remaining quantity of a lot
func (r *GormLotRepository) UpdateRemaining(ctx context.Context, lot *inventory.InventoryLot) error {
	result := r.db.WithContext(ctx).Model(&models.InventoryLotModel{}).
		Where("id = ?", lot.ID).
		Updates(map[string]any{
			"remaining_qty": lot.RemainingQty,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Lot %s not found", lot.ID))
	}
	return nil
}

// DeleteByIDs deletes lots
func (r *GormLotRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.InventoryLotModel{}).Error
}

func (r *GormLotRepository) openByCard(ctx context.Context, cardID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("card_id = ? AND remaining_qty > 0", cardID).
		Order(fifoOrder)
}

func (r *GormLotRepository) find(query *gorm.DB) ([]*inventory.InventoryLot, error) {
	var lotModels []models.InventoryLotModel
	if err := query.Find(&lotModels).Error; err != nil {
		return nil, err
	}
	lots := make([]*inventory.InventoryLot, len(lotModels))
	for i := range lotModels {
		lots[i] = lotModels[i].ToDomain()
	}
	return lots, nil
}

// Ensure GormLotRepository implements LotRepository
var _ inventory.LotRepository = (*GormLotRepository)(nil)
