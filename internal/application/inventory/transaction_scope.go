package inventory

import (
	"context"

	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/planning"
	"github.com/erp/costledger/internal/domain/trade"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction, so row
// locks taken through one of them are held until the scope commits or rolls back.
//
// Aggregate boundary notes:
//   - LotRepo owns remaining_qty. Every read-then-write of it goes through a ForUpdate finder.
//   - AllocationRepo rows are created and deleted together with lot deductions and restores.
//   - MovementRepo is append-only.
//   - CardRepo, SupplierOrderRepo, RejectionRepo and FinanceRepo hold collaborator-owned
//     records the workflows read and append to.
type TransactionalRepositories interface {
	CardRepo() catalog.CardRepository
	LotRepo() inventory.LotRepository
	AllocationRepo() inventory.AllocationRepository
	MovementRepo() inventory.MovementRepository
	RejectionRepo() inventory.RejectionRepository
	SalesOrderRepo() trade.SalesOrderRepository
	SupplierOrderRepo() trade.SupplierOrderRepository
	FinanceRepo() finance.TransactionRepository
	PlanRepo() planning.PlanRepository
}

// Repositories is a plain set of repositories. It satisfies TransactionalRepositories
// and is used with NoOpTransactionScope.
type Repositories struct {
	Cards          catalog.CardRepository
	Lots           inventory.LotRepository
	Allocations    inventory.AllocationRepository
	Movements      inventory.MovementRepository
	Rejections     inventory.RejectionRepository
	SalesOrders    trade.SalesOrderRepository
	SupplierOrders trade.SupplierOrderRepository
	Finance        finance.TransactionRepository
	Plans          planning.PlanRepository
}

func (r *Repositories) CardRepo() catalog.CardRepository                 { return r.Cards }
func (r *Repositories) LotRepo() inventory.LotRepository                 { return r.Lots }
func (r *Repositories) AllocationRepo() inventory.AllocationRepository   { return r.Allocations }
func (r *Repositories) MovementRepo() inventory.MovementRepository       { return r.Movements }
func (r *Repositories) RejectionRepo() inventory.RejectionRepository     { return r.Rejections }
func (r *Repositories) SalesOrderRepo() trade.SalesOrderRepository       { return r.SalesOrders }
func (r *Repositories) SupplierOrderRepo() trade.SupplierOrderRepository { return r.SupplierOrders }
func (r *Repositories) FinanceRepo() finance.TransactionRepository       { return r.Finance }
func (r *Repositories) PlanRepo() planning.PlanRepository                { return r.Plans }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// Ensure implementations satisfy the interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*Repositories)(nil)
