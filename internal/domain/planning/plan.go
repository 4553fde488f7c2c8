package planning

import (
	"fmt"
	"time"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus represents the status of a supply plan
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusConfirmed PlanStatus = "confirmed"
)

// String returns the string representation of PlanStatus
func (s PlanStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PlanStatus) CanTransitionTo(target PlanStatus) bool {
	return s == PlanStatusDraft && target == PlanStatusConfirmed
}

// PlanCluster is the frozen per-cluster breakdown of a plan item
type PlanCluster struct {
	ID             uuid.UUID
	ItemID         uuid.UUID
	Cluster        string
	Available      decimal.Decimal
	InTransit      decimal.Decimal
	ADS            decimal.Decimal
	ADSSource      ADSSource
	Depletion      decimal.Decimal
	StockAtArrival decimal.Decimal
	Need           decimal.Decimal
	Gap            decimal.Decimal
}

// PlanItem is the frozen recommendation for one SKU.
// AdjustedQty is the only field that changes after generation.
type PlanItem struct {
	ID             uuid.UUID
	PlanID         uuid.UUID
	Position       int
	CardID         uuid.UUID
	SKU            string
	TotalGap       decimal.Decimal
	TotalADS       decimal.Decimal
	StockAtHome    decimal.Decimal
	Pipeline       decimal.Decimal
	RawQty         decimal.Decimal
	RecommendedQty decimal.Decimal
	AdjustedQty    *decimal.Decimal
	DaysOfCover    *decimal.Decimal
	Clusters       []*PlanCluster
}

// FinalQty is the operator's adjusted quantity when set, else the recommendation
func (i *PlanItem) FinalQty() decimal.Decimal {
	if i.AdjustedQty != nil {
		return *i.AdjustedQty
	}
	return i.RecommendedQty
}

// SupplyPlan is a persisted snapshot of one planning run
type SupplyPlan struct {
	shared.BaseAggregateRoot
	LeadTimeDays int
	BufferDays   int
	Status       PlanStatus
	Items        []*PlanItem
	ConfirmedAt  *time.Time
}

// NewSupplyPlan freezes engine output into a draft plan, keeping row order
func NewSupplyPlan(in Input, recs []Recommendation) (*SupplyPlan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	plan := &SupplyPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LeadTimeDays:      in.LeadTimeDays,
		BufferDays:        in.BufferDays,
		Status:            PlanStatusDraft,
		Items:             make([]*PlanItem, 0, len(recs)),
	}
	for pos, rec := range recs {
		item := &PlanItem{
			ID:             uuid.New(),
			PlanID:         plan.ID,
			Position:       pos,
			CardID:         rec.CardID,
			SKU:            rec.SKU,
			TotalGap:       rec.TotalGap,
			TotalADS:       rec.TotalADS,
			StockAtHome:    rec.StockAtHome,
			Pipeline:       rec.Pipeline,
			RawQty:         rec.RawQty,
			RecommendedQty: rec.RecommendedQty,
			DaysOfCover:    rec.DaysOfCover,
			Clusters:       make([]*PlanCluster, 0, len(rec.Clusters)),
		}
		for _, c := range rec.Clusters {
			item.Clusters = append(item.Clusters, &PlanCluster{
				ID:             uuid.New(),
				ItemID:         item.ID,
				Cluster:        c.Cluster,
				Available:      c.Available,
				InTransit:      c.InTransit,
				ADS:            c.ADS,
				ADSSource:      c.ADSSource,
				Depletion:      c.Depletion,
				StockAtArrival: c.StockAtArrival,
				Need:           c.Need,
				Gap:            c.Gap,
			})
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

// ItemByID finds an item
func (p *SupplyPlan) ItemByID(id uuid.UUID) *PlanItem {
	for _, item := range p.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// AdjustItem overrides the quantity of one item on a draft plan
func (p *SupplyPlan) AdjustItem(itemID uuid.UUID, qty decimal.Decimal) (*PlanItem, error) {
	if p.Status != PlanStatusDraft {
		return nil, shared.NewInvalidStateError(
			fmt.Sprintf("Cannot adjust items of a plan in %s status", p.Status))
	}
	qty = valueobject.ToQty(qty)
	if qty.IsNegative() {
		return nil, shared.NewInvalidInputError("Adjusted quantity cannot be negative")
	}
	item := p.ItemByID(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError(fmt.Sprintf("Plan item %s not found", itemID))
	}
	item.AdjustedQty = &qty
	p.IncrementVersion()
	p.Touch()
	return item, nil
}

// Confirm freezes the plan for good
func (p *SupplyPlan) Confirm() error {
	if !p.Status.CanTransitionTo(PlanStatusConfirmed) {
		return shared.NewInvalidStateError(
			fmt.Sprintf("Cannot confirm plan in %s status", p.Status))
	}
	now := time.Now()
	p.Status = PlanStatusConfirmed
	p.ConfirmedAt = &now
	p.IncrementVersion()
	p.Touch()
	return nil
}

// TotalFinalQty sums FinalQty over all items
func (p *SupplyPlan) TotalFinalQty() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.FinalQty())
	}
	return total
}
