package planning

import (
	"context"

	"github.com/google/uuid"
)

// SnapshotSource loads the planning input from committed data
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// PlanRepository defines the interface for supply plan persistence.
// Plans are loaded with their items and cluster rows, items in row order.
type PlanRepository interface {
	// Create inserts a plan with its items and cluster rows
	Create(ctx context.Context, plan *SupplyPlan) error

	// FindByID finds a plan by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SupplyPlan, error)

	// FindByIDForUpdate finds and row-locks a plan
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SupplyPlan, error)

	// UpdateItemAdjustment persists an item's adjusted quantity
	UpdateItemAdjustment(ctx context.Context, item *PlanItem) error

	// UpdateStatus persists status, confirmation time and version
	UpdateStatus(ctx context.Context, plan *SupplyPlan) error
}
