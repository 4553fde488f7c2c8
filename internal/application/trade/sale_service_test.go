package trade

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	inventoryapp "github.com/erp/costledger/internal/application/inventory"
	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/domain/shared"
	"github.com/erp/costledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const saleKey = "sale:ozon:ORD-1"

func strPtr(s string) *string {
	return &s
}

func saleCommand(cardID uuid.UUID) CreateSaleCommand {
	return CreateSaleCommand{
		UserID:      uuid.New(),
		Marketplace: "ozon",
		ExternalID:  strPtr(" ORD-1 "),
		Lines: []SaleLineInput{{
			CardID:    cardID,
			Quantity:  decimal.NewFromInt(2),
			UnitPrice: decimal.NewFromInt(100),
		}},
	}
}

func existingSale(t *testing.T) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder("ozon", strPtr("ORD-1"), uuid.New())
	require.NoError(t, err)
	return order
}

func newCachedSaleService(repos *testRepos, store *MockIdempotencyStore) *SaleService {
	return NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil),
		WithIdempotencyStore(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}))
}

func TestSaleService_CreateSale_RejectsInvalidCommand(t *testing.T) {
	repos := newTestRepos()
	service := NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil))

	cmd := saleCommand(uuid.New())
	cmd.Lines = nil

	_, err := service.CreateSale(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	repos.sales.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything, mock.Anything)
	repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleService_CreateSale_CacheHitReturnsRecordedSale(t *testing.T) {
	repos := newTestRepos()
	store := new(MockIdempotencyStore)
	service := newCachedSaleService(repos, store)
	existing := existingSale(t)

	store.On("Lookup", mock.Anything, saleKey).Return(existing.ID.String(), true, nil)
	repos.sales.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)

	order, err := service.CreateSale(context.Background(), saleCommand(uuid.New()))
	require.NoError(t, err)
	assert.Same(t, existing, order)

	repos.sales.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything, mock.Anything)
	repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSaleService_CreateSale_StaleCacheKeyIsForgotten(t *testing.T) {
	repos := newTestRepos()
	store := new(MockIdempotencyStore)
	service := newCachedSaleService(repos, store)
	existing := existingSale(t)
	staleID := uuid.New()

	store.On("Lookup", mock.Anything, saleKey).Return(staleID.String(), true, nil)
	store.On("Forget", mock.Anything, saleKey).Return(nil)
	repos.sales.On("FindByID", mock.Anything, staleID).Return(nil, shared.ErrNotFound)
	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(existing, nil)

	order, err := service.CreateSale(context.Background(), saleCommand(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, order.ID)

	store.AssertExpectations(t)
	repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleService_CreateSale_LookupErrorFallsBackToDatabase(t *testing.T) {
	repos := newTestRepos()
	store := new(MockIdempotencyStore)
	service := newCachedSaleService(repos, store)
	existing := existingSale(t)

	store.On("Lookup", mock.Anything, saleKey).Return("", false, errors.New("redis down"))
	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(existing, nil)

	order, err := service.CreateSale(context.Background(), saleCommand(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, order.ID)
	repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleService_CreateSale_DisabledCacheIsNotConsulted(t *testing.T) {
	repos := newTestRepos()
	store := new(MockIdempotencyStore)
	service := NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil),
		WithIdempotencyStore(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: false}))
	existing := existingSale(t)

	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(existing, nil)

	_, err := service.CreateSale(context.Background(), saleCommand(uuid.New()))
	require.NoError(t, err)
	store.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestSaleService_CreateSale_LostInsertRaceReturnsWinner(t *testing.T) {
	repos := newTestRepos()
	store := new(MockIdempotencyStore)
	service := newCachedSaleService(repos, store)

	card, err := catalog.NewProductCard("SKU-1", "Mug")
	require.NoError(t, err)
	winner := existingSale(t)

	store.On("Lookup", mock.Anything, saleKey).Return("", false, nil)
	store.On("Remember", mock.Anything, saleKey, winner.ID.String(), time.Hour).Return(true, nil)
	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(nil, shared.ErrNotFound).Once()
	repos.cards.On("FindByID", mock.Anything, card.ID).Return(card, nil)
	repos.sales.On("Create", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).Return(shared.ErrAlreadyExists)
	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(winner, nil).Once()

	order, err := service.CreateSale(context.Background(), saleCommand(card.ID))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, order.ID)

	store.AssertExpectations(t)
	repos.sales.AssertExpectations(t)
}

func TestSaleService_CreateSale_StrictUnknownCardFails(t *testing.T) {
	repos := newTestRepos()
	service := NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil))
	cardID := uuid.New()

	repos.sales.On("FindByExternalID", mock.Anything, "ozon", "ORD-1").Return(nil, shared.ErrNotFound)
	repos.cards.On("FindByID", mock.Anything, cardID).Return(nil, shared.NewNotFoundError("card not found"))

	_, err := service.CreateSale(context.Background(), saleCommand(cardID))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	repos.sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleService_CancelSale_AlreadyCancelledIsNoOp(t *testing.T) {
	repos := newTestRepos()
	service := NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil))

	order := existingSale(t)
	order.Status = trade.SalesOrderStatusCancelled
	repos.sales.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	reversed, err := service.CancelSale(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Zero(t, reversed)
	repos.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaleService_CancelSale_UnknownOrder(t *testing.T) {
	repos := newTestRepos()
	service := NewSaleService(repos.scope(), inventoryapp.NewLedger(nil, nil))
	id := uuid.New()

	repos.sales.On("FindByIDForUpdate", mock.Anything, id).Return(nil, shared.NewNotFoundError("sale not found"))

	_, err := service.CancelSale(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSaleLineInput_UnmarshalJSON_CoercesMalformedAmounts(t *testing.T) {
	cardID := uuid.New()
	payload := `{"marketplace":"ozon","external_id":"ORD-7","lines":[` +
		`{"card_id":"` + cardID.String() + `","quantity":2,"unit_price":"12,50","fee":"n/a","extra_cost":null},` +
		`{"card_id":"` + cardID.String() + `","quantity":"1.0005","unit_price":99.999,"fee":true}]}`

	var cmd CreateSaleCommand
	require.NoError(t, json.Unmarshal([]byte(payload), &cmd))
	require.Len(t, cmd.Lines, 2)

	first := cmd.Lines[0]
	assert.Equal(t, cardID, first.CardID)
	assert.True(t, decimal.NewFromInt(2).Equal(first.Quantity))
	assert.True(t, decimal.RequireFromString("12.50").Equal(first.UnitPrice))
	assert.True(t, first.Fee.IsZero())
	assert.True(t, first.ExtraCost.IsZero())

	second := cmd.Lines[1]
	assert.True(t, decimal.RequireFromString("1.001").Equal(second.Quantity))
	assert.True(t, decimal.RequireFromString("100").Equal(second.UnitPrice))
	assert.True(t, second.Fee.IsZero())
}

func TestSaleLineInput_UnmarshalJSON_RejectsMalformedCardID(t *testing.T) {
	var line SaleLineInput
	err := json.Unmarshal([]byte(`{"card_id":"not-a-uuid","quantity":1}`), &line)
	assert.Error(t, err)
}
