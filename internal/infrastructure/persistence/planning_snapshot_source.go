package persistence

import (
	"context"
	"fmt"

	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSnapshotSource assembles the planning snapshot from committed rows.
// It takes no locks.
type GormSnapshotSource struct {
	db *gorm.DB
}

// NewGormSnapshotSource creates a new GormSnapshotSource
func NewGormSnapshotSource(db *gorm.DB) *GormSnapshotSource {
	return &GormSnapshotSource{db: db}
}

type pipelineRow struct {
	CardID uuid.UUID
	Total  decimal.Decimal
}

// LoadSnapshot returns one CardSnapshot per product card, ordered by SKU.
// Pipeline is the ordered quantity on draft supplier orders.
func (s *GormSnapshotSource) LoadSnapshot(ctx context.Context) (planning.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var cards []models.ProductCardModel
	if err := db.Order("sku ASC").Find(&cards).Error; err != nil {
		return planning.Snapshot{}, fmt.Errorf("failed to load product cards: %w", err)
	}

	var stock []models.ClusterStockSnapshotModel
	if err := db.Order("card_id ASC, cluster ASC").Find(&stock).Error; err != nil {
		return planning.Snapshot{}, fmt.Errorf("failed to load cluster stock: %w", err)
	}
	stockByCard := make(map[uuid.UUID][]planning.ClusterStock)
	for i := range stock {
		stockByCard[stock[i].CardID] = append(stockByCard[stock[i].CardID], stock[i].ToDomain())
	}

	var estimates []models.ClusterSalesEstimateModel
	if err := db.Find(&estimates).Error; err != nil {
		return planning.Snapshot{}, fmt.Errorf("failed to load sales estimates: %w", err)
	}
	manualByCard := make(map[uuid.UUID]map[string]decimal.Decimal)
	for _, e := range estimates {
		if manualByCard[e.CardID] == nil {
			manualByCard[e.CardID] = make(map[string]decimal.Decimal)
		}
		manualByCard[e.CardID][e.Cluster] = e.DailySales
	}

	var params []models.PlanningParamsModel
	if err := db.Find(&params).Error; err != nil {
		return planning.Snapshot{}, fmt.Errorf("failed to load planning params: %w", err)
	}
	paramsByCard := make(map[uuid.UUID]planning.Params, len(params))
	for i := range params {
		paramsByCard[params[i].CardID] = params[i].ToDomain()
	}

	var pipeline []pipelineRow
	if err := db.Table("supplier_order_lines AS l").
		Select("l.card_id AS card_id, COALESCE(SUM(l.ordered_qty), 0) AS total").
		Joins("JOIN supplier_orders o ON o.id = l.order_id").
		Where("o.status = ?", trade.SupplierOrderStatusDraft).
		Group("l.card_id").
		Scan(&pipeline).Error; err != nil {
		return planning.Snapshot{}, fmt.Errorf("failed to load supplier pipeline: %w", err)
	}
	pipelineByCard := make(map[uuid.UUID]decimal.Decimal, len(pipeline))
	for _, p := range pipeline {
		pipelineByCard[p.CardID] = p.Total
	}

	snapshot := planning.Snapshot{Cards: make([]planning.CardSnapshot, 0, len(cards))}
	for i := range cards {
		card := cards[i]
		p, ok := paramsByCard[card.ID]
		if !ok {
			p = planning.DefaultParams()
		}
		pipelineQty, ok := pipelineByCard[card.ID]
		if !ok {
			pipelineQty = decimal.Zero
		}
		snapshot.Cards = append(snapshot.Cards, planning.CardSnapshot{
			CardID:          card.ID,
			SKU:             card.SKU,
			StockAtHome:     card.StockQuantity,
			Pipeline:        pipelineQty,
			Params:          p,
			Clusters:        stockByCard[card.ID],
			ManualEstimates: manualByCard[card.ID],
		})
	}
	return snapshot, nil
}

// Ensure GormSnapshotSource implements SnapshotSource
var _ planning.SnapshotSource = (*GormSnapshotSource)(nil)
