package persistence

import (
	"context"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares one *gorm.DB transaction, so row locks
// taken by a ForUpdate finder are held until the scope commits or rolls back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos inventoryapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) CardRepo() catalog.CardRepository {
	return NewGormCardRepository(r.tx)
}

func (r *gormTransactionalRepositories) LotRepo() inventory.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r *gormTransactionalRepositories) AllocationRepo() inventory.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) RejectionRepo() inventory.RejectionRepository {
	return NewGormRejectionRepository(r.tx)
}

func (r *gormTransactionalRepositories) SalesOrderRepo() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) SupplierOrderRepo() trade.SupplierOrderRepository {
	return NewGormSupplierOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) FinanceRepo() finance.TransactionRepository {
	return NewGormFinanceTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) PlanRepo() planning.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ inventoryapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ inventoryapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
