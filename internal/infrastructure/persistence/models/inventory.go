package models

import (
	"time"

	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryLotModel is the persistence model for a FIFO lot.
// The (card_id, received_at, id) index serves the FIFO walk and its row locks.
type InventoryLotModel struct {
	BaseModel
	CardID          uuid.UUID            `gorm:"type:uuid;not null;index:idx_inventory_lots_fifo,priority:1"`
	InitialQty      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	RemainingQty    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	UnitCost        decimal.Decimal      `gorm:"type:decimal(18,6);not null"`
	ReceivedAt      time.Time            `gorm:"not null;index:idx_inventory_lots_fifo,priority:2"`
	OriginKind      inventory.OriginKind `gorm:"type:varchar(30);not null"`
	SupplierOrderID *uuid.UUID           `gorm:"type:uuid;index"`
	SupplierLineID  *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryLotModel) TableName() string {
	return "inventory_lots"
}

// ToDomain converts the persistence model to a domain InventoryLot.
func (m *InventoryLotModel) ToDomain() *inventory.InventoryLot {
	return &inventory.InventoryLot{
		BaseEntity:   m.BaseModel.ToDomain(),
		CardID:       m.CardID,
		InitialQty:   m.InitialQty,
		RemainingQty: m.RemainingQty,
		UnitCost:     m.UnitCost,
		ReceivedAt:   m.ReceivedAt,
		Origin: inventory.LotOrigin{
			Kind:            m.OriginKind,
			SupplierOrderID: m.SupplierOrderID,
			SupplierLineID:  m.SupplierLineID,
		},
	}
}

// FromDomain populates the persistence model from a domain InventoryLot.
func (m *InventoryLotModel) FromDomain(l *inventory.InventoryLot) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.CardID = l.CardID
	m.InitialQty = l.InitialQty
	m.RemainingQty = l.RemainingQty
	m.UnitCost = l.UnitCost
	m.ReceivedAt = l.ReceivedAt
	m.OriginKind = l.Origin.Kind
	m.SupplierOrderID = l.Origin.SupplierOrderID
	m.SupplierLineID = l.Origin.SupplierLineID
}

// InventoryLotModelFromDomain creates a new persistence model from a domain InventoryLot.
func InventoryLotModelFromDomain(l *inventory.InventoryLot) *InventoryLotModel {
	m := &InventoryLotModel{}
	m.FromDomain(l)
	return m
}

// FifoAllocationModel records one lot draw made for a sale line. Cost is frozen.
type FifoAllocationModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SalesLineID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FifoAllocationModel) TableName() string {
	return "fifo_allocations"
}

// ToDomain converts the persistence model to a domain FifoAllocation.
func (m *FifoAllocationModel) ToDomain() *inventory.FifoAllocation {
	return &inventory.FifoAllocation{
		ID:           m.ID,
		SalesOrderID: m.SalesOrderID,
		SalesLineID:  m.SalesLineID,
		LotID:        m.LotID,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		TotalCost:    m.TotalCost,
		CreatedAt:    m.CreatedAt,
	}
}

// FifoAllocationModelFromDomain creates a new persistence model from a domain FifoAllocation.
func FifoAllocationModelFromDomain(a *inventory.FifoAllocation) *FifoAllocationModel {
	return &FifoAllocationModel{
		ID:           a.ID,
		SalesOrderID: a.SalesOrderID,
		SalesLineID:  a.SalesLineID,
		LotID:        a.LotID,
		Quantity:     a.Quantity,
		UnitCost:     a.UnitCost,
		TotalCost:    a.TotalCost,
		CreatedAt:    a.CreatedAt,
	}
}

// StockMovementModel is the append-only audit record of stock changes.
type StockMovementModel struct {
	ID           uuid.UUID              `gorm:"type:uuid;primary_key"`
	CardID       uuid.UUID              `gorm:"type:uuid;not null;index:idx_stock_movements_card,priority:1"`
	MovementType inventory.MovementType `gorm:"type:varchar(30);not null"`
	Quantity     decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitCost     decimal.Decimal        `gorm:"type:decimal(18,6);not null;default:0"`
	TotalCost    decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	StockBefore  decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	StockAfter   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	SourceType   inventory.SourceType   `gorm:"type:varchar(30);not null"`
	SourceID     string                 `gorm:"type:varchar(100);not null;index"`
	Notes        string                 `gorm:"type:text"`
	CreatedAt    time.Time              `gorm:"not null;index:idx_stock_movements_card,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:           m.ID,
		CardID:       m.CardID,
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		TotalCost:    m.TotalCost,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:           mv.ID,
		CardID:       mv.CardID,
		MovementType: mv.MovementType,
		Quantity:     mv.Quantity,
		UnitCost:     mv.UnitCost,
		TotalCost:    mv.TotalCost,
		StockBefore:  mv.StockBefore,
		StockAfter:   mv.StockAfter,
		SourceType:   mv.SourceType,
		SourceID:     mv.SourceID,
		Notes:        mv.Notes,
		CreatedAt:    mv.CreatedAt,
	}
}

// SupplyRejectionModel is a quantity rejected at a destination warehouse.
type SupplyRejectionModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	CardID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplyRef             string          `gorm:"type:varchar(100);not null"`
	RejectedQty           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WrittenOff            bool            `gorm:"not null;default:false;index"`
	WrittenOffAt          *time.Time      `gorm:"default:null"`
	WriteOffTransactionID *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt             time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SupplyRejectionModel) TableName() string {
	return "supply_rejections"
}

// ToDomain converts the persistence model to a domain SupplyRejection.
func (m *SupplyRejectionModel) ToDomain() *inventory.SupplyRejection {
	return &inventory.SupplyRejection{
		ID:                    m.ID,
		CardID:                m.CardID,
		SupplyRef:             m.SupplyRef,
		RejectedQty:           m.RejectedQty,
		WrittenOff:            m.WrittenOff,
		WrittenOffAt:          m.WrittenOffAt,
		WriteOffTransactionID: m.WriteOffTransactionID,
		CreatedAt:             m.CreatedAt,
	}
}

// SupplyRejectionModelFromDomain creates a new persistence model from a domain SupplyRejection.
func SupplyRejectionModelFromDomain(r *inventory.SupplyRejection) *SupplyRejectionModel {
	return &SupplyRejectionModel{
		ID:                    r.ID,
		CardID:                r.CardID,
		SupplyRef:             r.SupplyRef,
		RejectedQty:           r.RejectedQty,
		WrittenOff:            r.WrittenOff,
		WrittenOffAt:          r.WrittenOffAt,
		WriteOffTransactionID: r.WriteOffTransactionID,
		CreatedAt:             r.CreatedAt,
	}
}

