package models

import (
	"time"

	"github.com/erp/costledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	Marketplace      string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_orders_marketplace_external,priority:1"`
	ExternalID       *string                `gorm:"type:varchar(100);uniqueIndex:idx_sales_orders_marketplace_external,priority:2"`
	CreatedBy        uuid.UUID              `gorm:"type:uuid;not null"`
	Status           trade.SalesOrderStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Lines            []SalesOrderLineModel  `gorm:"foreignKey:OrderID;references:ID"`
	TotalRevenue     decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalFees        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalExtraCosts  decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCOGS        decimal.Decimal        `gorm:"column:total_cogs;type:decimal(18,2);not null;default:0"`
	TotalGrossProfit decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	CancelledAt      *time.Time
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Marketplace:       m.Marketplace,
		ExternalID:        m.ExternalID,
		CreatedBy:         m.CreatedBy,
		Status:            m.Status,
		Lines:             make([]*trade.SaleLine, len(m.Lines)),
		TotalRevenue:      m.TotalRevenue,
		TotalFees:         m.TotalFees,
		TotalExtraCosts:   m.TotalExtraCosts,
		TotalCOGS:         m.TotalCOGS,
		TotalGrossProfit:  m.TotalGrossProfit,
		CancelledAt:       m.CancelledAt,
	}
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Marketplace = o.Marketplace
	m.ExternalID = o.ExternalID
	m.CreatedBy = o.CreatedBy
	m.Status = o.Status
	m.TotalRevenue = o.TotalRevenue
	m.TotalFees = o.TotalFees
	m.TotalExtraCosts = o.TotalExtraCosts
	m.TotalCOGS = o.TotalCOGS
	m.TotalGrossProfit = o.TotalGrossProfit
	m.CancelledAt = o.CancelledAt
	m.Lines = make([]SalesOrderLineModel, len(o.Lines))
	for i, line := range o.Lines {
		m.Lines[i] = *SalesOrderLineModelFromDomain(line)
	}
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderLineModel is the persistence model for a sale line.
// card_id carries no foreign key: tolerant sales may reference unknown cards.
type SalesOrderLineModel struct {
	BaseModel
	OrderID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	CardID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	CardKnown        bool                   `gorm:"not null"`
	Quantity         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Fee              decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	ExtraCost        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Revenue          decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	COGS             decimal.Decimal        `gorm:"column:cogs;type:decimal(18,2);not null;default:0"`
	GrossProfit      decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	ShortageQty      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	AllocationStatus trade.AllocationStatus `gorm:"type:varchar(20);not null;default:'unallocated'"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m *SalesOrderLineModel) ToDomain() *trade.SaleLine {
	return &trade.SaleLine{
		ID:               m.ID,
		OrderID:          m.OrderID,
		CardID:           m.CardID,
		CardKnown:        m.CardKnown,
		Quantity:         m.Quantity,
		UnitPrice:        m.UnitPrice,
		Fee:              m.Fee,
		ExtraCost:        m.ExtraCost,
		Revenue:          m.Revenue,
		COGS:             m.COGS,
		GrossProfit:      m.GrossProfit,
		ShortageQty:      m.ShortageQty,
		AllocationStatus: m.AllocationStatus,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// SalesOrderLineModelFromDomain creates a new persistence model from a domain SaleLine.
func SalesOrderLineModelFromDomain(l *trade.SaleLine) *SalesOrderLineModel {
	return &SalesOrderLineModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		OrderID:          l.OrderID,
		CardID:           l.CardID,
		CardKnown:        l.CardKnown,
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice,
		Fee:              l.Fee,
		ExtraCost:        l.ExtraCost,
		Revenue:          l.Revenue,
		COGS:             l.COGS,
		GrossProfit:      l.GrossProfit,
		ShortageQty:      l.ShortageQty,
		AllocationStatus: l.AllocationStatus,
	}
}

// SupplierOrderModel is the persistence model for the SupplierOrder aggregate root.
type SupplierOrderModel struct {
	AggregateModel
	SupplierName          string                    `gorm:"type:varchar(200);not null;default:''"`
	Status                trade.SupplierOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Lines                 []SupplierOrderLineModel  `gorm:"foreignKey:OrderID;references:ID"`
	PurchaseTransactionID *uuid.UUID                `gorm:"type:uuid"`
	ReceivedAt            *time.Time
}

// TableName returns the table name for GORM
func (SupplierOrderModel) TableName() string {
	return "supplier_orders"
}

// ToDomain converts the persistence model to a domain SupplierOrder.
func (m *SupplierOrderModel) ToDomain() *trade.SupplierOrder {
	order := &trade.SupplierOrder{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		SupplierName:          m.SupplierName,
		Status:                m.Status,
		Lines:                 make([]*trade.SupplierOrderLine, len(m.Lines)),
		PurchaseTransactionID: m.PurchaseTransactionID,
		ReceivedAt:            m.ReceivedAt,
	}
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SupplierOrder.
func (m *SupplierOrderModel) FromDomain(o *trade.SupplierOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.SupplierName = o.SupplierName
	m.Status = o.Status
	m.PurchaseTransactionID = o.PurchaseTransactionID
	m.ReceivedAt = o.ReceivedAt
	m.Lines = make([]SupplierOrderLineModel, len(o.Lines))
	for i, line := range o.Lines {
		m.Lines[i] = *SupplierOrderLineModelFromDomain(line)
	}
}

// SupplierOrderModelFromDomain creates a new persistence model from a domain SupplierOrder.
func SupplierOrderModelFromDomain(o *trade.SupplierOrder) *SupplierOrderModel {
	m := &SupplierOrderModel{}
	m.FromDomain(o)
	return m
}

// SupplierOrderLineModel is the persistence model for a supplier order line.
type SupplierOrderLineModel struct {
	BaseModel
	OrderID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	CardID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	OrderedQty     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PurchaseAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	AllocatedCosts decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ReceivedQty    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (SupplierOrderLineModel) TableName() string {
	return "supplier_order_lines"
}

// ToDomain converts the persistence model to a domain SupplierOrderLine.
func (m *SupplierOrderLineModel) ToDomain() *trade.SupplierOrderLine {
	return &trade.SupplierOrderLine{
		ID:             m.ID,
		OrderID:        m.OrderID,
		CardID:         m.CardID,
		OrderedQty:     m.OrderedQty,
		PurchaseAmount: m.PurchaseAmount,
		AllocatedCosts: m.AllocatedCosts,
		ReceivedQty:    decimalPtr(m.ReceivedQty),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// SupplierOrderLineModelFromDomain creates a new persistence model from a domain SupplierOrderLine.
func SupplierOrderLineModelFromDomain(l *trade.SupplierOrderLine) *SupplierOrderLineModel {
	return &SupplierOrderLineModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		OrderID:        l.OrderID,
		CardID:         l.CardID,
		OrderedQty:     l.OrderedQty,
		PurchaseAmount: l.PurchaseAmount,
		AllocatedCosts: l.AllocatedCosts,
		ReceivedQty:    nullDecimal(l.ReceivedQty),
	}
}
