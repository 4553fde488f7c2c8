package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	tradeapp "github.com/erp/costledger/internal/application/trade"
	"github.com/erp/costledger/internal/bootstrap"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/infrastructure/cache"
	"github.com/erp/costledger/internal/infrastructure/config"
	"github.com/erp/costledger/internal/infrastructure/logger"
	"github.com/erp/costledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type services struct {
	rt          *bootstrap.Runtime
	sales       *tradeapp.SaleService
	receiving   *tradeapp.ReceivingService
	writeOffs   *inventoryapp.WriteOffService
	adjustments *inventoryapp.AdjustmentService
	idempotency shared.IdempotencyStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		tolerant    bool
		bookFinance bool
		watch       bool
	)
	flag.BoolVar(&tolerant, "tolerant", cfg.Ledger.TolerantSales, "Import sales in tolerant mode")
	flag.BoolVar(&bookFinance, "book-finance", cfg.Ledger.BookFinance, "Book sale income and fees")
	flag.BoolVar(&watch, "watch", false, "Keep sampling the inventory value gauge (valuate only)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, log = logger.WithCorrelationID(ctx, log, uuid.NewString())

	svc, err := newServices(ctx, cfg, log)
	if err != nil {
		log.Error("Startup failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}

	switch args[0] {
	case "import-sales":
		err = importSales(ctx, svc, args[1:], tolerant, bookFinance)
	case "cancel-sale":
		err = withID(args[1:], func(id uuid.UUID) error {
			n, err := svc.sales.CancelSale(ctx, id)
			if err == nil {
				logger.L(ctx).Info("Sale cancelled", zap.Int("reversed", n))
			}
			return err
		})
	case "receive":
		err = withID(args[1:], func(id uuid.UUID) error {
			res, err := svc.receiving.ReceiveOrder(ctx, tradeapp.ReceiveOrderCommand{OrderID: id})
			if err == nil {
				logger.L(ctx).Info("Supplier order received",
					zap.Int("lots", len(res.LotsCreated)),
					zap.String("purchase_amount", res.PurchaseAmount.String()),
				)
			}
			return err
		})
	case "unreceive":
		err = withID(args[1:], func(id uuid.UUID) error {
			n, err := svc.receiving.UnreceiveOrder(ctx, id)
			if err == nil {
				logger.L(ctx).Info("Supplier order unreceived", zap.Int("lots_removed", n))
			}
			return err
		})
	case "write-off-loss":
		err = withID(args[1:], func(id uuid.UUID) error {
			res, err := svc.writeOffs.WriteOffLoss(ctx, id)
			if err == nil {
				logger.L(ctx).Info("Losses written off",
					zap.String("quantity", res.Quantity.String()),
					zap.String("cost", res.Cost.String()),
				)
			}
			return err
		})
	case "valuate":
		err = valuate(ctx, svc, args[1:], watch)
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", args[0])
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	svc.close(shutdownCtx, log)

	if err != nil {
		logger.L(ctx).Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func newServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services, error) {
	rt, err := bootstrap.Start(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	factory := cache.NewIdempotencyStoreFactory(cfg.Ledger, cfg.Redis, cache.WithLogger(log))
	store, err := factory.CreateStore()
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	scope := rt.DB.TransactionScope()
	ledger := inventoryapp.NewLedger(log, rt.Metrics)
	opts := []tradeapp.SaleServiceOption{
		tradeapp.WithSaleLogger(log),
		tradeapp.WithSaleMetrics(rt.Metrics),
	}
	if store != nil {
		opts = append(opts, tradeapp.WithIdempotencyStore(store, factory.Config()))
	}

	return &services{
		rt:          rt,
		sales:       tradeapp.NewSaleService(scope, ledger, opts...),
		receiving:   tradeapp.NewReceivingService(scope, log),
		writeOffs:   inventoryapp.NewWriteOffService(scope, ledger, log, rt.Metrics),
		adjustments: inventoryapp.NewAdjustmentService(scope, ledger, log),
		idempotency: store,
	}, nil
}

func (s *services) close(ctx context.Context, log *zap.Logger) {
	if s.idempotency != nil {
		if err := s.idempotency.Close(); err != nil {
			log.Warn("Failed to close idempotency store", zap.Error(err))
		}
	}
	if err := s.rt.Close(ctx); err != nil {
		log.Warn("Shutdown finished with errors", zap.Error(err))
	}
}

// importSales records one sale per line of a JSON lines file ("-" reads stdin).
// A failed line is logged and skipped; the command fails if any line failed.
func importSales(ctx context.Context, svc *services, args []string, tolerant, bookFinance bool) error {
	if len(args) < 1 {
		return errors.New("usage: ledger import-sales <file.jsonl|->")
	}
	in := os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	l := logger.L(ctx)
	var recorded, failed int
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var cmd tradeapp.CreateSaleCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			l.Warn("Skipping malformed sale", zap.Int("line", lineNo), zap.Error(err))
			failed++
			continue
		}
		cmd.Tolerant = cmd.Tolerant || tolerant
		cmd.BookFinance = cmd.BookFinance || bookFinance

		saleCtx, _ := logger.WithMarketplace(ctx, svc.rt.Logger, cmd.Marketplace)
		order, err := svc.sales.CreateSale(saleCtx, cmd)
		if err != nil {
			logger.L(saleCtx).Warn("Sale rejected", zap.Int("line", lineNo), zap.Error(err))
			failed++
			continue
		}
		recorded++
		logger.L(saleCtx).Debug("Sale imported",
			zap.Int("line", lineNo),
			zap.String("order_id", order.ID.String()),
		)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	l.Info("Sales import finished", zap.Int("recorded", recorded), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d sales failed", failed, recorded+failed)
	}
	return nil
}

// valuate logs the inventory value of one card or of all open lots.
// With watch it keeps publishing the value gauge until interrupted.
func valuate(ctx context.Context, svc *services, args []string, watch bool) error {
	l := logger.L(ctx)
	if len(args) > 0 {
		return withID(args, func(id uuid.UUID) error {
			v, err := svc.adjustments.ValuateCard(ctx, id)
			if err == nil {
				l.Info("Card valuation",
					zap.String("quantity", v.Quantity.String()),
					zap.String("value", v.Value.String()),
					zap.String("average_cost", v.AverageCost.String()),
					zap.Int("open_lots", v.OpenLots),
				)
			}
			return err
		})
	}

	total, err := persistence.NewGormValuationProvider(svc.rt.DB.DB).TotalInventoryValue(ctx)
	if err != nil {
		return err
	}
	l.Info("Inventory value", zap.String("value", total.String()))

	if !watch {
		return nil
	}
	interval := svc.rt.Config.Ledger.ValuationInterval
	l.Info("Publishing inventory value", zap.Duration("interval", interval))
	svc.rt.Metrics.StartPeriodicCollection(ctx, interval)
	<-ctx.Done()
	return nil
}

func withID(args []string, fn func(uuid.UUID) error) error {
	if len(args) < 1 {
		return errors.New("an ID argument is required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return shared.NewInvalidInputError(fmt.Sprintf("Invalid ID %q", args[0]))
	}
	return fn(id)
}

func printUsage() {
	fmt.Println(`Cost ledger operations

Usage:
  ledger [flags] <command> [arguments]

Commands:
  import-sales <file|->     Record sales from a JSON lines file
  cancel-sale <order-id>    Reverse a sale's allocations
  receive <order-id>        Receive a draft supplier order in full
  unreceive <order-id>      Undo a receipt whose lots are untouched
  write-off-loss <card-id>  Write off pending supply rejections of a card
  valuate [card-id]         Show remaining lot value

Flags:
  -tolerant                 Keep short and unknown-card sale lines
  -book-finance             Book sale income and marketplace fees
  -watch                    With valuate, publish the value gauge until interrupted`)
}
