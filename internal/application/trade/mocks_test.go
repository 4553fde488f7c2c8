package trade

import (
	"context"
	"time"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

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

// MockSupplierOrderRepository is a mock implementation of trade.SupplierOrderRepository
type MockSupplierOrderRepository struct {
	mock.Mock
}

func (m *MockSupplierOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SupplierOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SupplierOrder), args.Error(1)
}

func (m *MockSupplierOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.SupplierOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SupplierOrder), args.Error(1)
}

func (m *MockSupplierOrderRepository) Create(ctx context.Context, order *trade.SupplierOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockSupplierOrderRepository) Save(ctx context.Context, order *trade.SupplierOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type testRepos struct {
	cards          *MockCardRepository
	sales          *MockSalesOrderRepository
	supplierOrders *MockSupplierOrderRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		cards:          new(MockCardRepository),
		sales:          new(MockSalesOrderRepository),
		supplierOrders: new(MockSupplierOrderRepository),
	}
}

func (r *testRepos) scope() *inventoryapp.NoOpTransactionScope {
	return inventoryapp.NewNoOpTransactionScope(&inventoryapp.Repositories{
		Cards:          r.cards,
		SalesOrders:    r.sales,
		SupplierOrders: r.supplierOrders,
	})
}
