package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlanningInputRepository maintains the collaborator-owned planning inputs:
// cluster stock snapshots, manual sales estimates and lot sizing parameters.
type GormPlanningInputRepository struct {
	db *gorm.DB
}

// NewGormPlanningInputRepository creates a new GormPlanningInputRepository
func NewGormPlanningInputRepository(db *gorm.DB) *GormPlanningInputRepository {
	return &GormPlanningInputRepository{db: db}
}

// UpsertClusterStock stores the latest stock and analytics demand of a card in a cluster
func (r *GormPlanningInputRepository) UpsertClusterStock(ctx context.Context, cardID uuid.UUID, stock planning.ClusterStock) error {
	if strings.TrimSpace(stock.Cluster) == "" {
		return shared.NewInvalidInputError("Cluster cannot be empty")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "cluster"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "in_transit", "ads", "updated_at"}),
	}).Create(models.ClusterStockSnapshotModelFromDomain(cardID, stock)).Error
}

// UpsertSalesEstimate stores a manual daily sales estimate
func (r *GormPlanningInputRepository) UpsertSalesEstimate(ctx context.Context, cardID uuid.UUID, cluster string, dailySales decimal.Decimal) error {
	if strings.TrimSpace(cluster) == "" {
		return shared.NewInvalidInputError("Cluster cannot be empty")
	}
	if dailySales.IsNegative() {
		return shared.NewInvalidInputError("Daily sales estimate cannot be negative")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "cluster"}},
		DoUpdates: clause.AssignmentColumns([]string{"daily_sales", "updated_at"}),
	}).Create(&models.ClusterSalesEstimateModel{
		CardID:     cardID,
		Cluster:    cluster,
		DailySales: dailySales,
		UpdatedAt:  time.Now(),
	}).Error
}

// DeleteSalesEstimate removes a manual estimate
func (r *GormPlanningInputRepository) DeleteSalesEstimate(ctx context.Context, cardID uuid.UUID, cluster string) error {
	return r.db.WithContext(ctx).
		Where("card_id = ? AND cluster = ?", cardID, cluster).
		Delete(&models.ClusterSalesEstimateModel{}).Error
}

// UpsertParams stores the card's lot sizing parameters
func (r *GormPlanningInputRepository) UpsertParams(ctx context.Context, cardID uuid.UUID, params planning.Params) error {
	if !params.PackSize.IsPositive() {
		return shared.NewInvalidInputError("Pack size must be positive")
	}
	if params.MOQ.IsNegative() || params.SafetyStock.IsNegative() {
		return shared.NewInvalidInputError("MOQ and safety stock cannot be negative")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pack_size", "moq", "safety_stock", "updated_at"}),
	}).Create(&models.PlanningParamsModel{
		CardID:      cardID,
		PackSize:    params.PackSize,
		MOQ:         params.MOQ,
		SafetyStock: params.SafetyStock,
		UpdatedAt:   time.Now(),
	}).Error
}
