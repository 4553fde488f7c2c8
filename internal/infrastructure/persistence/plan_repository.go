package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// planInsertBatch bounds the rows per INSERT when freezing large plans
const planInsertBatch = 500

// GormPlanRepository implements PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// Create inserts a plan with its items and cluster rows
func (r *GormPlanRepository) Create(ctx context.Context, plan *planning.SupplyPlan) error {
	model := models.SupplyPlanModelFromDomain(plan)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError(err, "")
	}
	if len(model.Items) == 0 {
		return nil
	}

	var clusters []models.SupplyPlanClusterModel
	for i := range model.Items {
		clusters = append(clusters, model.Items[i].Clusters...)
	}
	if err := db.Omit(clause.Associations).CreateInBatches(&model.Items, planInsertBatch).Error; err != nil {
		return fmt.Errorf("failed to insert plan items: %w", err)
	}
	if len(clusters) == 0 {
		return nil
	}
	if err := db.CreateInBatches(&clusters, planInsertBatch).Error; err != nil {
		return fmt.Errorf("failed to insert plan clusters: %w", err)
	}
	return nil
}

// FindByID finds a plan by ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*planning.SupplyPlan, error) {
	var model models.SupplyPlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Supply plan %s not found", id))
	}
	if err := r.loadItems(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds and row-locks a plan
func (r *GormPlanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*planning.SupplyPlan, error) {
	var model models.SupplyPlanModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, fmt.Sprintf("Supply plan %s not found", id))
	}
	if err := r.loadItems(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateItemAdjustment persists an item's adjusted quantity
func (r *GormPlanRepository) UpdateItemAdjustment(ctx context.Context, item *planning.PlanItem) error {
	var adjusted any
	if item.AdjustedQty != nil {
		adjusted = *item.AdjustedQty
	}
	result := r.db.WithContext(ctx).Model(&models.SupplyPlanItemModel{}).
		Where("id = ?", item.ID).
		Update("adjusted_qty", adjusted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Plan item %s not found", item.ID))
	}
	return nil
}

// UpdateStatus persists status, confirmation time and version
func (r *GormPlanRepository) UpdateStatus(ctx context.Context, plan *planning.SupplyPlan) error {
	result := r.db.WithContext(ctx).Model(&models.SupplyPlanModel{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"status":       plan.Status,
			"confirmed_at": plan.ConfirmedAt,
			"version":      plan.Version,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("Supply plan %s not found", plan.ID))
	}
	return nil
}

func (r *GormPlanRepository) loadItems(ctx context.Context, model *models.SupplyPlanModel) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ?", model.ID).
		Order("position ASC").
		Preload("Clusters", func(db *gorm.DB) *gorm.DB {
			return db.Order("cluster ASC")
		}).
		Find(&model.Items).Error
}

// Ensure GormPlanRepository implements PlanRepository
var _ planning.PlanRepository = (*GormPlanRepository)(nil)
