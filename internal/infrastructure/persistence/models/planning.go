package models

import (
	"time"

	"github.com/erp/costledger/internal/domain/planning"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClusterStockSnapshotModel is the latest marketplace stock and analytics demand
// of a card in one warehouse cluster. ADS is NULL when analytics has no figure.
type ClusterStockSnapshotModel struct {
	CardID    uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Cluster   string              `gorm:"type:varchar(100);primaryKey"`
	Available decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	InTransit decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ADS       decimal.NullDecimal `gorm:"column:ads;type:decimal(18,4)"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClusterStockSnapshotModel) TableName() string {
	return "cluster_stock_snapshots"
}

// ToDomain converts the persistence model to a planning ClusterStock.
func (m *ClusterStockSnapshotModel) ToDomain() planning.ClusterStock {
	return planning.ClusterStock{
		Cluster:   m.Cluster,
		Available: m.Available,
		InTransit: m.InTransit,
		ADS:       decimalPtr(m.ADS),
	}
}

// ClusterStockSnapshotModelFromDomain creates a persistence model for a card's cluster stock.
func ClusterStockSnapshotModelFromDomain(cardID uuid.UUID, c planning.ClusterStock) *ClusterStockSnapshotModel {
	return &ClusterStockSnapshotModel{
		CardID:    cardID,
		Cluster:   c.Cluster,
		Available: c.Available,
		InTransit: c.InTransit,
		ADS:       nullDecimal(c.ADS),
		UpdatedAt: time.Now(),
	}
}

// ClusterSalesEstimateModel is a manually maintained daily sales estimate.
type ClusterSalesEstimateModel struct {
	CardID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Cluster    string          `gorm:"type:varchar(100);primaryKey"`
	DailySales decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClusterSalesEstimateModel) TableName() string {
	return "cluster_sales_estimates"
}

// PlanningParamsModel holds per-card lot sizing parameters.
type PlanningParamsModel struct {
	CardID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PackSize    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	MOQ         decimal.Decimal `gorm:"column:moq;type:decimal(18,4);not null;default:0"`
	SafetyStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlanningParamsModel) TableName() string {
	return "planning_params"
}

// ToDomain converts the persistence model to planning Params.
func (m *PlanningParamsModel) ToDomain() planning.Params {
	return planning.Params{
		PackSize:    m.PackSize,
		MOQ:         m.MOQ,
		SafetyStock: m.SafetyStock,
	}
}

// SupplyPlanModel is the persistence model for the SupplyPlan aggregate root.
type SupplyPlanModel struct {
	AggregateModel
	LeadTimeDays int                   `gorm:"not null"`
	BufferDays   int                   `gorm:"not null"`
	Status       planning.PlanStatus   `gorm:"type:varchar(20);not null;default:'draft';index"`
	Items        []SupplyPlanItemModel `gorm:"foreignKey:PlanID;references:ID"`
	ConfirmedAt  *time.Time
}

// TableName returns the table name for GORM
func (SupplyPlanModel) TableName() string {
	return "supply_plans"
}

// ToDomain converts the persistence model to a domain SupplyPlan.
// Items must already be loaded in row order.
func (m *SupplyPlanModel) ToDomain() *planning.SupplyPlan {
	plan := &planning.SupplyPlan{
		BaseAggregateRoot: m.ToAggregateRoot(),
		LeadTimeDays:      m.LeadTimeDays,
		BufferDays:        m.BufferDays,
		Status:            m.Status,
		Items:             make([]*planning.PlanItem, len(m.Items)),
		ConfirmedAt:       m.ConfirmedAt,
	}
	for i := range m.Items {
		plan.Items[i] = m.Items[i].ToDomain()
	}
	return plan
}

// SupplyPlanModelFromDomain creates a new persistence model from a domain SupplyPlan.
func SupplyPlanModelFromDomain(p *planning.SupplyPlan) *SupplyPlanModel {
	m := &SupplyPlanModel{
		LeadTimeDays: p.LeadTimeDays,
		BufferDays:   p.BufferDays,
		Status:       p.Status,
		ConfirmedAt:  p.ConfirmedAt,
		Items:        make([]SupplyPlanItemModel, len(p.Items)),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for i, item := range p.Items {
		m.Items[i] = *SupplyPlanItemModelFromDomain(item)
	}
	return m
}

// SupplyPlanItemModel is one SKU row of a frozen plan. AdjustedQty is the
// only column written after creation.
type SupplyPlanItemModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	PlanID         uuid.UUID                `gorm:"type:uuid;not null;index:idx_supply_plan_items_position,priority:1"`
	Position       int                      `gorm:"not null;index:idx_supply_plan_items_position,priority:2"`
	CardID         uuid.UUID                `gorm:"type:uuid;not null"`
	SKU            string                   `gorm:"column:sku;type:varchar(64);not null"`
	TotalGap       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	TotalADS       decimal.Decimal          `gorm:"column:total_ads;type:decimal(18,4);not null"`
	StockAtHome    decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PipelineQty    decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	RawQty         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	RecommendedQty decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AdjustedQty    decimal.NullDecimal      `gorm:"type:decimal(18,4)"`
	DaysOfCover    decimal.NullDecimal      `gorm:"type:decimal(18,4)"`
	Clusters       []SupplyPlanClusterModel `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (SupplyPlanItemModel) TableName() string {
	return "supply_plan_items"
}

// ToDomain converts the persistence model to a domain PlanItem.
func (m *SupplyPlanItemModel) ToDomain() *planning.PlanItem {
	item := &planning.PlanItem{
		ID:             m.ID,
		PlanID:         m.PlanID,
		Position:       m.Position,
		CardID:         m.CardID,
		SKU:            m.SKU,
		TotalGap:       m.TotalGap,
		TotalADS:       m.TotalADS,
		StockAtHome:    m.StockAtHome,
		Pipeline:       m.PipelineQty,
		RawQty:         m.RawQty,
		RecommendedQty: m.RecommendedQty,
		AdjustedQty:    decimalPtr(m.AdjustedQty),
		DaysOfCover:    decimalPtr(m.DaysOfCover),
		Clusters:       make([]*planning.PlanCluster, len(m.Clusters)),
	}
	for i := range m.Clusters {
		item.Clusters[i] = m.Clusters[i].ToDomain()
	}
	return item
}

// SupplyPlanItemModelFromDomain creates a new persistence model from a domain PlanItem.
func SupplyPlanItemModelFromDomain(i *planning.PlanItem) *SupplyPlanItemModel {
	m := &SupplyPlanItemModel{
		ID:             i.ID,
		PlanID:         i.PlanID,
		Position:       i.Position,
		CardID:         i.CardID,
		SKU:            i.SKU,
		TotalGap:       i.TotalGap,
		TotalADS:       i.TotalADS,
		StockAtHome:    i.StockAtHome,
		PipelineQty:    i.Pipeline,
		RawQty:         i.RawQty,
		RecommendedQty: i.RecommendedQty,
		AdjustedQty:    nullDecimal(i.AdjustedQty),
		DaysOfCover:    nullDecimal(i.DaysOfCover),
		Clusters:       make([]SupplyPlanClusterModel, len(i.Clusters)),
	}
	for idx, c := range i.Clusters {
		m.Clusters[idx] = *SupplyPlanClusterModelFromDomain(c)
	}
	return m
}

// SupplyPlanClusterModel is the per-cluster breakdown behind a plan item.
type SupplyPlanClusterModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	ItemID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	Cluster        string             `gorm:"type:varchar(100);not null"`
	Available      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	InTransit      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	ADS            decimal.Decimal    `gorm:"column:ads;type:decimal(18,4);not null"`
	ADSSource      planning.ADSSource `gorm:"column:ads_source;type:varchar(20);not null"`
	Depletion      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	StockAtArrival decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Need           decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Gap            decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SupplyPlanClusterModel) TableName() string {
	return "supply_plan_clusters"
}

// ToDomain converts the persistence model to a domain PlanCluster.
func (m *SupplyPlanClusterModel) ToDomain() *planning.PlanCluster {
	return &planning.PlanCluster{
		ID:             m.ID,
		ItemID:         m.ItemID,
		Cluster:        m.Cluster,
		Available:      m.Available,
		InTransit:      m.InTransit,
		ADS:            m.ADS,
		ADSSource:      m.ADSSource,
		Depletion:      m.Depletion,
		StockAtArrival: m.StockAtArrival,
		Need:           m.Need,
		Gap:            m.Gap,
	}
}

// SupplyPlanClusterModelFromDomain creates a new persistence model from a domain PlanCluster.
func SupplyPlanClusterModelFromDomain(c *planning.PlanCluster) *SupplyPlanClusterModel {
	return &SupplyPlanClusterModel{
		ID:             c.ID,
		ItemID:         c.ItemID,
		Cluster:        c.Cluster,
		Available:      c.Available,
		InTransit:      c.InTransit,
		ADS:            c.ADS,
		ADSSource:      c.ADSSource,
		Depletion:      c.Depletion,
		StockAtArrival: c.StockAtArrival,
		Need:           c.Need,
		Gap:            c.Gap,
	}
}
