package trade

import (
	"context"

	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order persistence.
// Orders are always loaded with their lines.
type SalesOrderRepository interface {
	// FindByID finds a sale by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByIDForUpdate finds and row-locks a sale
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByExternalID finds a sale by marketplace and marketplace order ID
	FindByExternalID(ctx context.Context, marketplace, externalID string) (*SalesOrder, error)

	// Create inserts a sale and its lines.
	// Returns shared.ErrAlreadyExists when (marketplace, external ID) is taken.
	Create(ctx context.Context, order *SalesOrder) error

	// Save persists status, totals and derived line figures
	Save(ctx context.Context, order *SalesOrder) error
}

// SupplierOrderRepository defines the interface for supplier order persistence.
// Orders are always loaded with their lines.
type SupplierOrderRepository interface {
	// FindByID finds a supplier order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierOrder, error)

	// FindByIDForUpdate finds and row-locks a supplier order
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SupplierOrder, error)

	// Create inserts a supplier order and its lines
	Create(ctx context.Context, order *SupplierOrder) error

	// Save persists status, booking reference and received quantities
	Save(ctx context.Context, order *SupplierOrder) error
}
