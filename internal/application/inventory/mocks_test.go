package inventory

import (
	"context"

	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/finance"
	"github.com/erp/costledger/internal/domain/inventory"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLotRepository is a mock implementation of inventory.LotRepository
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryLot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) FindOpenByCard(ctx context.Context, cardID uuid.UUID) ([]*inventory.InventoryLot, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).([]*inventory.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) FindOpenByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*inventory.InventoryLot, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).([]*inventory.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*inventory.InventoryLot, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*inventory.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) FindBySupplierOrderForUpdate(ctx context.Context, orderID uuid.UUID) ([]*inventory.InventoryLot, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]*inventory.InventoryLot), args.Error(1)
}

func (m *MockLotRepository) Create(ctx context.Context, lot *inventory.InventoryLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) UpdateRemaining(ctx context.Context, lot *inventory.InventoryLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockAllocationRepository is a mock implementation of inventory.AllocationRepository
type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) CreateBatch(ctx context.Context, allocations []*inventory.FifoAllocation) error {
	args := m.Called(ctx, allocations)
	return args.Error(0)
}

func (m *MockAllocationRepository) FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]*inventory.FifoAllocation, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]*inventory.FifoAllocation), args.Error(1)
}

func (m *MockAllocationRepository) DeleteBySalesOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMovementRepository is a mock implementation of inventory.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByCard(ctx context.Context, cardID uuid.UUID) ([]*inventory.StockMovement, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).([]*inventory.StockMovement), args.Error(1)
}

// MockRejectionRepository is a mock implementation of inventory.RejectionRepository
type MockRejectionRepository struct {
	mock.Mock
}

func (m *MockRejectionRepository) Create(ctx context.Context, rejection *inventory.SupplyRejection) error {
	args := m.Called(ctx, rejection)
	return args.Error(0)
}

func (m *MockRejectionRepository) FindPendingByCardForUpdate(ctx context.Context, cardID uuid.UUID) ([]*inventory.SupplyRejection, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).([]*inventory.SupplyRejection), args.Error(1)
}

func (m *MockRejectionRepository) MarkWrittenOff(ctx context.Context, rejections []*inventory.SupplyRejection) error {
	args := m.Called(ctx, rejections)
	return args.Error(0)
}

// MockCardRepository is a mock implementation of catalog.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductCard), args.Error(1)
}

func (m *MockCardRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.ProductCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductCard), args.Error(1)
}

func (m *MockCardRepository) FindBySKU(ctx context.Context, sku string) (*catalog.ProductCard, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductCard), args.Error(1)
}

func (m *MockCardRepository) FindAll(ctx context.Context) ([]*catalog.ProductCard, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*catalog.ProductCard), args.Error(1)
}

func (m *MockCardRepository) Create(ctx context.Context, card *catalog.ProductCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateStock(ctx context.Context, card *catalog.ProductCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

// MockFinanceRepository is a mock implementation of finance.TransactionRepository
type MockFinanceRepository struct {
	mock.Mock
}

func (m *MockFinanceRepository) CreateIfAbsent(ctx context.Context, tx *finance.Transaction) (*finance.Transaction, bool, error) {
	args := m.Called(ctx, tx)
	if fn, ok := args.Get(0).(func(context.Context, *finance.Transaction) *finance.Transaction); ok {
		return fn(ctx, tx), args.Bool(1), args.Error(2)
	}
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*finance.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockFinanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Transaction), args.Error(1)
}

func (m *MockFinanceRepository) FindByExternalID(ctx context.Context, externalID string) (*finance.Transaction, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Transaction), args.Error(1)
}

func (m *MockFinanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSalesOrderRepository is a mock implementation of trade.SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByExternalID(ctx context.Context, marketplace, externalID string) (*trade.SalesOrder, error) {
	args := m.Called(ctx, marketplace, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// testRepos wires mocks into a NoOpTransactionScope
type testRepos struct {
	lots        *MockLotRepository
	allocations *MockAllocationRepository
	movements   *MockMovementRepository
	rejections  *MockRejectionRepository
	cards       *MockCardRepository
	finance     *MockFinanceRepository
	sales       *MockSalesOrderRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		lots:        new(MockLotRepository),
		allocations: new(MockAllocationRepository),
		movements:   new(MockMovementRepository),
		rejections:  new(MockRejectionRepository),
		cards:       new(MockCardRepository),
		finance:     new(MockFinanceRepository),
		sales:       new(MockSalesOrderRepository),
	}
}

func (r *testRepos) repositories() *Repositories {
	return &Repositories{
		Cards:       r.cards,
		Lots:        r.lots,
		Allocations: r.allocations,
		Movements:   r.movements,
		Rejections:  r.rejections,
		SalesOrders: r.sales,
		Finance:     r.finance,
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.repositories())
}
