package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCardRepository implements CardRepository using GORM
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository creates a new GormCardRepository
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// FindByID finds a card by its ID
func (r *GormCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductCard, error) {
	var model models.ProductCardModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Product card %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds and row-locks a card
func (r *GormCardRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.ProductCard, error) {
	var model models.ProductCardModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Product card %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a card by SKU
func (r *GormCardRepository) FindBySKU(ctx context.Context, sku string) (*catalog.ProductCard, error) {
	var model models.ProductCardModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Product card %s not found", sku))
	}
	return model.ToDomain(), nil
}

// FindAll returns all cards ordered by SKU
func (r *GormCardRepository) FindAll(ctx context.Context) ([]*catalog.ProductCard, error) {
	var cardModels []models.ProductCardModel
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&cardModels).Error; err != nil {
		return nil, err
	}
	cards := make([]*catalog.ProductCard, len(cardModels))
	for i := range cardModels {
		cards[i] = cardModels[i].ToDomain()
	}
	return cards, nil
}

// Create inserts a new card
func (r *GormCardRepository) Create(ctx context.Context, card *catalog.ProductCard) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductCardModelFromDomain(card)).Error, "")
}

// UpdateStock persists the card's stock quantity
func (r *GormCardRepository) UpdateStock(ctx context.Context, card *catalog.ProductCard) error {
	result := r.db.WithContext(ctx).Model(&models.ProductCardModel{}).
		Where("id = ?", card.ID).
		Updates(map[string]any{
			"stock_quantity": card.StockQuantity,
			"version":        card.Version,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Product card %s not found", card.ID))
	}
	return nil
}

// Ensure GormCardRepository implements CardRepository
var _ catalog.CardRepository = (*GormCardRepository)(nil)
