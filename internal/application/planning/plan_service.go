package planning

import (
	"context"
	"fmt"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanService generates supply plans and manages their review
type PlanService struct {
	scope   inventoryapp.TransactionScope
	source  planning.SnapshotSource
	logger  *zap.Logger
	metrics inventoryapp.LedgerMetrics
}

// NewPlanService creates a new PlanService
func NewPlanService(
	scope inventoryapp.TransactionScope,
	source planning.SnapshotSource,
	logger *zap.Logger,
	metrics inventoryapp.LedgerMetrics,
) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = inventoryapp.NoopMetrics{}
	}
	return &PlanService{
		scope:   scope,
		source:  source,
		logger:  logger,
		metrics: metrics,
	}
}

// GeneratePlan runs the engine over a fresh snapshot and stores the result as a
// new draft plan. Earlier plans are never modified.
func (s *PlanService) GeneratePlan(ctx context.Context, in planning.Input) (*planning.SupplyPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "planning", "generate_plan")
	defer span.End()
	telemetry.SetAttributes(span,
		"lead_time_days", in.LeadTimeDays,
		"buffer_days", in.BufferDays,
	)

	if err := in.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	snapshot, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load planning snapshot: %w", err)
	}

	recs, err := planning.Generate(snapshot, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	plan, err := planning.NewSupplyPlan(in, recs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		return repos.PlanRepo().Create(ctx, plan)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to store supply plan", zap.Error(err))
		return nil, fmt.Errorf("failed to store supply plan: %w", err)
	}

	s.metrics.RecordPlanGenerated(ctx, len(plan.Items))
	s.logger.Info("Supply plan generated",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("items", len(plan.Items)),
		zap.Int("lead_time_days", in.LeadTimeDays),
		zap.Int("buffer_days", in.BufferDays),
	)
	telemetry.SetAttributes(span, telemetry.SpanAttrPlanID, plan.ID.String())
	telemetry.SetOK(span)
	return plan, nil
}

// GetPlan loads a plan with its items and cluster breakdown
func (s *PlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*planning.SupplyPlan, error) {
	var plan *planning.SupplyPlan
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		var err error
		plan, err = repos.PlanRepo().FindByID(ctx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// AdjustItem overrides the order quantity of one item on a draft plan
func (s *PlanService) AdjustItem(ctx context.Context, planID, itemID uuid.UUID, qty decimal.Decimal) (*planning.PlanItem, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "planning", "adjust_item")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPlanID, planID.String(),
		telemetry.SpanAttrQuantity, qty.String(),
	)

	var item *planning.PlanItem
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		plan, err := repos.PlanRepo().FindByIDForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		item, err = plan.AdjustItem(itemID, qty)
		if err != nil {
			return err
		}
		if err := repos.PlanRepo().UpdateItemAdjustment(ctx, item); err != nil {
			return fmt.Errorf("failed to save plan item: %w", err)
		}
		return repos.PlanRepo().UpdateStatus(ctx, plan)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Supply plan item adjusted",
		zap.String("plan_id", planID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("quantity", item.FinalQty().String()),
	)
	telemetry.SetOK(span)
	return item, nil
}

// ConfirmPlan moves a draft plan to confirmed
func (s *PlanService) ConfirmPlan(ctx context.Context, planID uuid.UUID) (*planning.SupplyPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "planning", "confirm_plan")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPlanID, planID.String())

	var plan *planning.SupplyPlan
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		var err error
		plan, err = repos.PlanRepo().FindByIDForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		if err := plan.Confirm(); err != nil {
			return err
		}
		return repos.PlanRepo().UpdateStatus(ctx, plan)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Supply plan confirmed",
		zap.String("plan_id", planID.String()),
		zap.String("total_qty", plan.TotalFinalQty().String()),
	)
	telemetry.SetOK(span)
	return plan, nil
}
