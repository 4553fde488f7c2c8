package persistence

import (
	"context"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM.
// The movement log is append-only: there is no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement
func (r *GormMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error
}

// FindByCard returns the card's movements, oldest first
func (r *GormMovementRepository) FindByCard(ctx context.Context, cardID uuid.UUID) ([]*inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	movements := make([]*inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = rows[i].ToDomain()
	}
	return movements, nil
}

// Ensure GormMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
