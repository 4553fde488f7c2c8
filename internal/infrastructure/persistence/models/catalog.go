package models

import (
	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductCardModel is the persistence model for the ProductCard aggregate root.
type ProductCardModel struct {
	AggregateModel
	SKU           string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(255);not null"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductCardModel) TableName() string {
	return "product_cards"
}

// ToDomain converts the persistence model to a domain ProductCard.
func (m *ProductCardModel) ToDomain() *catalog.ProductCard {
	return &catalog.ProductCard{
		BaseAggregateRoot: m.ToAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		StockQuantity:     m.StockQuantity,
	}
}

// FromDomain populates the persistence model from a domain ProductCard.
func (m *ProductCardModel) FromDomain(c *catalog.ProductCard) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.SKU = c.SKU
	m.Name = c.Name
	m.StockQuantity = c.StockQuantity
}

// ProductCardModelFromDomain creates a new persistence model from a domain ProductCard.
func ProductCardModelFromDomain(c *catalog.ProductCard) *ProductCardModel {
	m := &ProductCardModel{}
	m.FromDomain(c)
	return m
}
