package persistence

import (
	"context"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRejectionRepository implements RejectionRepository using GORM
type GormRejectionRepository struct {
	db *gorm.DB
}

// NewGormRejectionRepository creates a new GormRejectionRepository
func NewGormRejectionRepository(db *gorm.DB) *GormRejectionRepository {
	return &GormRejectionRepository{db: db}
}

// Create inserts a rejection record
func (r *GormRejectionRepository) Create(ctx context.Context, rejection *inventory.SupplyRejection) error {
	return r.db.WithContext(ctx).Create(models.SupplyRejectionModelFromDomain(rejection)).Error
}

// FindPendingByCardForUpdate locks the card's rejections not yet written off
func (r *GormRejectionRepository) FindPendingByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*inventory.SupplyRejection, error) {
	var rows []models.SupplyRejectionModel
	if err := r.db.WithContext(ctx).
		Where("card_id = ? AND written_off = ?", cardID, false).
		Order("created_at ASC, id ASC").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	rejections := make([]*inventory.SupplyRejection, len(rows))
	for i := range rows {
		rejections[i] = rows[i].ToDomain()
	}
	return rejections, nil
}

// MarkWrittenOff persists the written-off flag of the given records
func (r *GormRejectionRepository) MarkWrittenOff(ctx context.Context, rejections []*inventory.SupplyRejection) error {
	for _, rej := range rejections {
		if err := r.db.WithContext(ctx).Model(&models.SupplyRejectionModel{}).
			Where("id = ?", rej.ID).
			Updates(map[string]any{
				"written_off":              rej.WrittenOff,
				"written_off_at":           rej.WrittenOffAt,
				"write_off_transaction_id": rej.WriteOffTransactionID,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormRejectionRepository implements RejectionRepository
var _ inventory.RejectionRepository = (*GormRejectionRepository)(nil)
