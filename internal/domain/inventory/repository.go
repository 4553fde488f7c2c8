package inventory

import (
	"context"

	"github.com/google/uuid"
)

// LotRepository defines the interface for inventory lot persistence.
// Methods ending in ForUpdate take row locks and must run inside a transaction.
type LotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryLot, error)

	// FindOpenByCard returns the card's lots with remaining stock, oldest first, without locking
	FindOpenByCard(ctx context.Context, cardID uuid.UUID) ([]*InventoryLot, error)

	// FindOpenByCardForUpdate returns and locks the card's lots with remaining stock, oldest first
	FindOpenByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*InventoryLot, error)

	// FindByIDsForUpdate returns and locks exactly the given lots
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*InventoryLot, error)

	// FindBySupplierOrderForUpdate returns and locks the lots created by receiving a supplier order
	FindBySupplierOrderForUpdate(ctx context.Context, orderID uuid.UUID) ([]*InventoryLot, error)

	// Create inserts a new lot
	Create(ctx context.Context, lot *InventoryLot) error

	// UpdateRemaining persists only the remaining quantity of a lot
	UpdateRemaining(ctx context.Context, lot *InventoryLot) error

	// DeleteByIDs deletes lots
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// AllocationRepository defines the interface for FIFO allocation persistence
type AllocationRepository interface {
	// CreateBatch inserts allocation rows
	CreateBatch(ctx context.Context, allocations []*FifoAllocation) error

	// FindBySalesOrder returns all allocations of a sale
	FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]*FifoAllocation, error)

	// DeleteBySalesOrder deletes all allocations of a sale and returns how many were removed
	DeleteBySalesOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// MovementRepository defines the interface for the append-only stock movement log
type MovementRepository interface {
	// Create appends a movement
	Create(ctx context.Context, movement *StockMovement) error

	// FindByCard returns the card's movements, oldest first
	FindByCard(ctx context.Context, cardID uuid.UUID) ([]*StockMovement, error)
}

// RejectionRepository defines the interface for supply rejection records
type RejectionRepository interface {
	// Create inserts a rejection record
	Create(ctx context.Context, rejection *SupplyRejection) error

	// FindPendingByCardForUpdate returns and locks the card's rejections not yet written off
	FindPendingByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*SupplyRejection, error)

	// MarkWrittenOff persists the written-off flag of the given records
	MarkWrittenOff(ctx context.Context, rejections []*SupplyRejection) error
}
