package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCard is a sellable product (SKU). StockQuantity is the physical stock
// held at home, outside marketplace warehouses.
type ProductCard struct {
	shared.BaseAggregateRoot
	SKU           string
	Name          string
	StockQuantity decimal.Decimal
}

// NewProductCard creates a product card with no stock
func NewProductCard(sku, name string) (*ProductCard, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if strings.TrimSpace(name) == "" {
		name = sku
	}
	return &ProductCard{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		StockQuantity:     decimal.Zero,
	}, nil
}

// AdjustStock changes home stock by delta. Stock cannot go negative.
func (c *ProductCard) AdjustStock(delta decimal.Decimal) error {
	next := valueobject.ToQty(c.StockQuantity.Add(delta))
	if next.LessThan(valueobject.Epsilon.Neg()) {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Stock of %s would become negative: have %s, change %s", c.SKU, c.StockQuantity, delta))
	}
	if next.IsNegative() {
		next = decimal.Zero
	}
	c.StockQuantity = next
	c.IncrementVersion()
	c.Touch()
	return nil
}

// CardRepository defines the interface for product card persistence
type CardRepository interface {
	// FindByID finds a card by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductCard, error)

	// FindByIDForUpdate finds and row-locks a card
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ProductCard, error)

	// FindBySKU finds a card by SKU
	FindBySKU(ctx context.Context, sku string) (*ProductCard, error)

	// FindAll returns all cards ordered by SKU
	FindAll(ctx context.Context) ([]*ProductCard, error)

	// Create inserts a new card
	Create(ctx context.Context, card *ProductCard) error

	// UpdateStock persists the card's stock quantity
	UpdateStock(ctx context.Context, card *ProductCard) error
}
