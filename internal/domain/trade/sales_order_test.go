package trade

import (
	"errors"
	"testing"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func TestNewSalesOrder(t *testing.T) {
	t.Run("requires marketplace", func(t *testing.T) {
		_, err := NewSalesOrder("  ", nil, uuid.New())
		require.Error(t, err)
	})

	t.Run("blank external ID is dropped", func(t *testing.T) {
		order, err := NewSalesOrder("ozon", strPtr("  "), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, order.ExternalID)
		assert.Equal(t, order.ID.String(), order.SaleKey())
	})

	t.Run("sale key prefers external ID", func(t *testing.T) {
		order, err := NewSalesOrder("ozon", strPtr(" 123-45 "), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "123-45", order.SaleKey())
		assert.Equal(t, SalesOrderStatusActive, order.Status)
	})
}

func TestSaleLine_GrossProfit(t *testing.T) {
	order, err := NewSalesOrder("wb", nil, uuid.New())
	require.NoError(t, err)

	line, err := order.AddLine(uuid.New(), dec("2"), dec("300"), dec("50"), dec("10"))
	require.NoError(t, err)
	assert.True(t, dec("600").Equal(line.Revenue))
	assert.True(t, dec("540").Equal(line.GrossProfit))
	assert.Equal(t, AllocationUnallocated, line.AllocationStatus)

	require.NoError(t, line.ApplyAllocation(dec("2"), dec("200")))
	assert.True(t, dec("200").Equal(line.COGS))
	assert.True(t, dec("340").Equal(line.GrossProfit))
	assert.Equal(t, AllocationAllocated, line.AllocationStatus)
	assert.True(t, line.ShortageQty.IsZero())

	order.RecalculateTotals()
	assert.True(t, dec("600").Equal(order.TotalRevenue))
	assert.True(t, dec("50").Equal(order.TotalFees))
	assert.True(t, dec("10").Equal(order.TotalExtraCosts))
	assert.True(t, dec("200").Equal(order.TotalCOGS))
	assert.True(t, dec("340").Equal(order.TotalGrossProfit))

	t.Run("cannot allocate twice", func(t *testing.T) {
		err := line.ApplyAllocation(dec("2"), dec("200"))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestSaleLine_Validation(t *testing.T) {
	order, err := NewSalesOrder("wb", nil, uuid.New())
	require.NoError(t, err)

	_, err = order.AddLine(uuid.New(), decimal.Zero, dec("1"), decimal.Zero, decimal.Zero)
	assert.Error(t, err)

	_, err = order.AddLine(uuid.New(), dec("1"), dec("-1"), decimal.Zero, decimal.Zero)
	assert.Error(t, err)

	assert.Empty(t, order.Lines)
}

func TestSaleLine_PartialAllocation(t *testing.T) {
	order, err := NewSalesOrder("wb", nil, uuid.New())
	require.NoError(t, err)
	line, err := order.AddLine(uuid.New(), dec("5"), dec("10"), decimal.Zero, decimal.Zero)
	require.NoError(t, err)

	t.Run("nothing available keeps line unallocated", func(t *testing.T) {
		require.NoError(t, line.ApplyAllocation(decimal.Zero, decimal.Zero))
		assert.Equal(t, AllocationUnallocated, line.AllocationStatus)
		assert.True(t, dec("5").Equal(line.ShortageQty))
	})
}

func TestSalesOrder_Reversal(t *testing.T) {
	order, err := NewSalesOrder("wb", strPtr("A-1"), uuid.New())
	require.NoError(t, err)
	sold, err := order.AddLine(uuid.New(), dec("2"), dec("300"), dec("50"), dec("10"))
	require.NoError(t, err)
	require.NoError(t, sold.ApplyAllocation(dec("2"), dec("200")))
	unknown, err := order.AddLine(uuid.New(), dec("1"), dec("100"), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	unknown.MarkUnknownCard()
	order.RecalculateTotals()

	reversed := order.ApplyReversal()
	assert.Equal(t, 1, reversed)
	assert.Equal(t, AllocationReversed, sold.AllocationStatus)
	assert.True(t, sold.COGS.IsZero())
	assert.True(t, sold.GrossProfit.IsZero())
	assert.Equal(t, AllocationUnallocated, unknown.AllocationStatus)
	assert.False(t, unknown.CardKnown)
	assert.True(t, unknown.GrossProfit.IsZero())
	assert.True(t, dec("100").Equal(unknown.Revenue))

	assert.True(t, dec("700").Equal(order.TotalRevenue))
	assert.True(t, order.TotalCOGS.IsZero())
	assert.True(t, order.TotalGrossProfit.IsZero())

	t.Run("second reversal changes nothing", func(t *testing.T) {
		assert.Equal(t, 0, order.ApplyReversal())
	})

	t.Run("cancel is one-way", func(t *testing.T) {
		require.NoError(t, order.Cancel())
		assert.NotNil(t, order.CancelledAt)
		assert.True(t, errors.Is(order.Cancel(), shared.ErrInvalidState))
		_, err := order.AddLine(uuid.New(), dec("1"), dec("1"), decimal.Zero, decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestAllocationStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, AllocationUnallocated.CanTransitionTo(AllocationAllocated))
	assert.False(t, AllocationUnallocated.CanTransitionTo(AllocationReversed))
	assert.True(t, AllocationAllocated.CanTransitionTo(AllocationReversed))
	assert.False(t, AllocationAllocated.CanTransitionTo(AllocationUnallocated))
	assert.False(t, AllocationReversed.CanTransitionTo(AllocationAllocated))
}
