package trade

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/application/validation"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/shared/valueobject"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService records marketplace sales and books their FIFO cost
type SaleService struct {
	scope       inventoryapp.TransactionScope
	ledger      *inventoryapp.Ledger
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
	metrics     inventoryapp.LedgerMetrics
}

// SaleServiceOption configures a SaleService
type SaleServiceOption func(*SaleService)

// WithIdempotencyStore puts a cache in front of the external ID lookup
func WithIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) SaleServiceOption {
	return func(s *SaleService) {
		s.idempotency = store
		s.idemConfig = cfg
	}
}

// WithSaleLogger sets the logger
func WithSaleLogger(logger *zap.Logger) SaleServiceOption {
	return func(s *SaleService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSaleMetrics sets the business metrics sink
func WithSaleMetrics(metrics inventoryapp.LedgerMetrics) SaleServiceOption {
	return func(s *SaleService) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewSaleService creates a new SaleService
func NewSaleService(scope inventoryapp.TransactionScope, ledger *inventoryapp.Ledger, opts ...SaleServiceOption) *SaleService {
	s := &SaleService{
		scope:      scope,
		ledger:     ledger,
		idemConfig: shared.DefaultIdempotencyConfig(),
		logger:     zap.NewNop(),
		metrics:    inventoryapp.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaleLineInput is one line of a sale to record
type SaleLineInput struct {
	CardID    uuid.UUID       `json:"card_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Fee       decimal.Decimal `json:"fee"`
	ExtraCost decimal.Decimal `json:"extra_cost"`
}

// UnmarshalJSON decodes a line from marketplace sync data. Missing or malformed
// amounts become zero instead of failing the sale; a decimal comma is accepted.
func (l *SaleLineInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		CardID    uuid.UUID `json:"card_id"`
		Quantity  any       `json:"quantity"`
		UnitPrice any       `json:"unit_price"`
		Fee       any       `json:"fee"`
		ExtraCost any       `json:"extra_cost"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode sale line: %w", err)
	}
	*l = SaleLineInput{
		CardID:    raw.CardID,
		Quantity:  valueobject.QtyFrom(raw.Quantity),
		UnitPrice: valueobject.MoneyFrom(raw.UnitPrice),
		Fee:       valueobject.MoneyFrom(raw.Fee),
		ExtraCost: valueobject.MoneyFrom(raw.ExtraCost),
	}
	return nil
}

// CreateSaleCommand records a sale.
// Tolerant mode clamps allocation to available stock and keeps lines with
// unknown cards at zero cost instead of failing the whole sale.
type CreateSaleCommand struct {
	UserID      uuid.UUID       `json:"user_id"`
	Marketplace string          `json:"marketplace" validate:"required,max=32"`
	ExternalID  *string         `json:"external_id" validate:"omitempty,max=128"`
	Lines       []SaleLineInput `json:"lines" validate:"min=1,dive"`
	Tolerant    bool            `json:"tolerant"`
	BookFinance bool            `json:"book_finance"`
}

func (c CreateSaleCommand) externalID() string {
	if c.ExternalID == nil {
		return ""
	}
	return strings.TrimSpace(*c.ExternalID)
}

func idempotencyKey(marketplace, externalID string) string {
	return fmt.Sprintf("sale:%s:%s", strings.TrimSpace(marketplace), externalID)
}

// CreateSale records a sale and allocates its cost.
// A sale whose (marketplace, external ID) was already recorded is returned as is.
func (s *SaleService) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*trade.SalesOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create_sale")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrMarketplace, cmd.Marketplace,
		"lines", len(cmd.Lines),
		"tolerant", cmd.Tolerant,
	)

	if err := validation.Struct(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	externalID := cmd.externalID()
	if externalID != "" {
		existing, err := s.findExisting(ctx, cmd.Marketplace, externalID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if existing != nil {
			telemetry.AddEvent(span, "duplicate_sale", telemetry.SpanAttrOrderID, existing.ID.String())
			s.logger.Info("Duplicate sale ignored",
				zap.String("marketplace", existing.Marketplace),
				zap.String("external_id", externalID),
				zap.String("order_id", existing.ID.String()),
			)
			telemetry.SetOK(span)
			return existing, nil
		}
	}

	order, err := trade.NewSalesOrder(cmd.Marketplace, cmd.ExternalID, cmd.UserID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, in := range cmd.Lines {
		if _, err := order.AddLine(in.CardID, in.Quantity, in.UnitPrice, in.Fee, in.ExtraCost); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	policy := inventory.ShortfallFail
	if cmd.Tolerant {
		policy = inventory.ShortfallClamp
	}

	err = s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		for _, line := range order.Lines {
			if _, err := repos.CardRepo().FindByID(ctx, line.CardID); err != nil {
				if cmd.Tolerant && errors.Is(err, shared.ErrNotFound) {
					line.MarkUnknownCard()
					s.logger.Warn("Sale line references unknown card",
						zap.String("card_id", line.CardID.String()),
						zap.String("marketplace", order.Marketplace),
					)
					continue
				}
				return err
			}
		}

		if err := repos.SalesOrderRepo().Create(ctx, order); err != nil {
			return err
		}

		for _, line := range order.Lines {
			if !line.CardKnown {
				continue
			}
			if _, err := s.ledger.AllocateForLine(ctx, repos, order, line, policy); err != nil {
				return err
			}
		}

		order.RecalculateTotals()
		if err := repos.SalesOrderRepo().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save sale totals: %w", err)
		}

		if cmd.BookFinance {
			return s.bookFinance(ctx, repos, order)
		}
		return nil
	})
	if err != nil {
		if externalID != "" && errors.Is(err, shared.ErrAlreadyExists) {
			// lost an insert race; the winner's sale is the result
			winner, findErr := s.findInDB(ctx, cmd.Marketplace, externalID)
			if findErr == nil && winner != nil {
				s.remember(ctx, cmd.Marketplace, externalID, winner.ID)
				telemetry.SetOK(span)
				return winner, nil
			}
		}
		telemetry.RecordError(span, err)
		s.logger.Error("Sale creation failed",
			zap.String("marketplace", cmd.Marketplace),
			zap.String("external_id", externalID),
			zap.Error(err),
		)
		return nil, err
	}

	if externalID != "" {
		s.remember(ctx, order.Marketplace, externalID, order.ID)
	}

	s.metrics.RecordSale(ctx, order.Marketplace, order.TotalRevenue, order.TotalCOGS)
	s.logger.Info("Sale recorded",
		zap.String("order_id", order.ID.String()),
		zap.String("marketplace", order.Marketplace),
		zap.String("revenue", order.TotalRevenue.String()),
		zap.String("cogs", order.TotalCOGS.String()),
		zap.String("gross_profit", order.TotalGrossProfit.String()),
	)
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, order.ID.String())
	telemetry.SetOK(span)
	return order, nil
}

// bookFinance books sale income and, when non-zero, marketplace fees.
// Deterministic external IDs make the bookings safe to repeat.
func (s *SaleService) bookFinance(ctx context.Context, repos inventoryapp.TransactionalRepositories, order *trade.SalesOrder) error {
	key := order.SaleKey()
	income, err := finance.NewTransaction(
		finance.KindIncome,
		finance.CategorySales,
		order.TotalRevenue,
		finance.SaleIncomeExternalID(order.Marketplace, key),
		fmt.Sprintf("Sale %s on %s", key, order.Marketplace),
	)
	if err != nil {
		return err
	}
	if _, _, err := repos.FinanceRepo().CreateIfAbsent(ctx, income); err != nil {
		return fmt.Errorf("failed to book sale income: %w", err)
	}

	if order.TotalFees.IsZero() {
		return nil
	}
	fees, err := finance.NewTransaction(
		finance.KindExpense,
		finance.CategoryMarketplaceFee,
		order.TotalFees,
		finance.SaleFeesExternalID(order.Marketplace, key),
		fmt.Sprintf("Marketplace fees for sale %s on %s", key, order.Marketplace),
	)
	if err != nil {
		return err
	}
	if _, _, err := repos.FinanceRepo().CreateIfAbsent(ctx, fees); err != nil {
		return fmt.Errorf("failed to book marketplace fees: %w", err)
	}
	return nil
}

// findExisting checks the idempotency cache first, then the database
func (s *SaleService) findExisting(ctx context.Context, marketplace, externalID string) (*trade.SalesOrder, error) {
	if s.idempotency != nil && s.idemConfig.Enabled {
		key := idempotencyKey(marketplace, externalID)
		value, ok, err := s.idempotency.Lookup(ctx, key)
		if err != nil {
			s.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if orderID, parseErr := uuid.Parse(value); parseErr == nil {
				order, err := s.GetSale(ctx, orderID)
				if err == nil {
					return order, nil
				}
				if !errors.Is(err, shared.ErrNotFound) {
					return nil, err
				}
			}
			if err := s.idempotency.Forget(ctx, key); err != nil {
				s.logger.Warn("Failed to drop stale idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return s.findInDB(ctx, marketplace, externalID)
}

func (s *SaleService) findInDB(ctx context.Context, marketplace, externalID string) (*trade.SalesOrder, error) {
	var found *trade.SalesOrder
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		order, err := repos.SalesOrderRepo().FindByExternalID(ctx, strings.TrimSpace(marketplace), externalID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		found = order
		return nil
	})
	return found, err
}

func (s *SaleService) remember(ctx context.Context, marketplace, externalID string, orderID uuid.UUID) {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	key := idempotencyKey(marketplace, externalID)
	if _, err := s.idempotency.Remember(ctx, key, orderID.String(), s.idemConfig.TTL); err != nil {
		s.logger.Warn("Failed to remember sale", zap.String("key", key), zap.Error(err))
	}
}

// CancelSale reverses the sale's allocations and marks it cancelled.
// Returns the number of allocations reversed; cancelling again returns 0.
func (s *SaleService) CancelSale(ctx context.Context, orderID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel_sale")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())

	reversed := 0
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		order, err := repos.SalesOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == trade.SalesOrderStatusCancelled {
			return nil
		}

		reversed, err = s.ledger.Reverse(ctx, repos, orderID)
		if err != nil {
			return err
		}

		order, err = repos.SalesOrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		return repos.SalesOrderRepo().Save(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Sale cancellation failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return 0, err
	}

	s.logger.Info("Sale cancelled",
		zap.String("order_id", orderID.String()),
		zap.Int("reversed", reversed),
	)
	telemetry.SetOK(span)
	return reversed, nil
}

// GetSale loads a sale with its lines
func (s *SaleService) GetSale(ctx context.Context, orderID uuid.UUID) (*trade.SalesOrder, error) {
	var order *trade.SalesOrder
	err := s.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		var err error
		order, err = repos.SalesOrderRepo().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
