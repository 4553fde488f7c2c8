package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	planningapp "github.com/erp/costledger/internal/application/planning"
	"github.com/erp/costledger/internal/bootstrap"
	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/erp/costledger/internal/infrastructure/logger"
	"github.com/erp/costledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		leadTime int
		buffer   int
		top      int
		timeout  time.Duration
	)
	flag.IntVar(&leadTime, "lead", cfg.Planning.LeadTimeDays, "Days until a new order arrives")
	flag.IntVar(&buffer, "buffer", cfg.Planning.BufferDays, "Days the order must cover after arrival")
	flag.IntVar(&top, "top", 20, "Number of plan rows to log")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall run timeout")
	flag.Parse()

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, log = logger.WithCorrelationID(ctx, log, uuid.NewString())

	if err := run(ctx, cfg, log, planning.Input{LeadTimeDays: leadTime, BufferDays: buffer}, top); err != nil {
		logger.L(ctx).Error("Planning run failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, in planning.Input, top int) error {
	rt, err := bootstrap.Start(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			log.Warn("Shutdown finished with errors", zap.Error(err))
		}
	}()

	service := planningapp.NewPlanService(
		rt.DB.TransactionScope(),
		persistence.NewGormSnapshotSource(rt.DB.DB),
		log,
		rt.Metrics,
	)

	plan, err := service.GeneratePlan(ctx, in)
	if err != nil {
		return err
	}

	l := logger.L(ctx)
	l.Info("Plan ready",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("items", len(plan.Items)),
	)
	for i, item := range plan.Items {
		if i >= top {
			break
		}
		fields := []zap.Field{
			zap.Int("position", item.Position),
			zap.String("sku", item.SKU),
			zap.String("total_gap", item.TotalGap.String()),
			zap.String("total_ads", item.TotalADS.String()),
			zap.String("raw_qty", item.RawQty.String()),
			zap.String("recommended_qty", item.RecommendedQty.String()),
		}
		if item.DaysOfCover != nil {
			fields = append(fields, zap.String("days_of_cover", item.DaysOfCover.String()))
		}
		l.Info("Plan row", fields...)
	}
	return nil
}
