package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func TestCounter(t *testing.T) {
	mp, reader := newManualMeter(t)
	counter, err := telemetry.NewCounter(mp.Meter("test"), "sales", "Sales", "{sales}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 4, telemetry.AttrMarketplace.String("ozon"))
	counter.Inc(ctx, telemetry.AttrMarketplace.String("ozon"))

	assert.Equal(t, int64(5), intSum(t, collect(t, reader)["sales"]))
}

func TestFloatCounter_IgnoresNegative(t *testing.T) {
	mp, reader := newManualMeter(t)
	counter, err := telemetry.NewFloatCounter(mp.Meter("test"), "revenue", "Revenue", "{currency}")
	require.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 12.5)
	counter.Add(ctx, -3)
	counter.Add(ctx, 0.5)

	assert.InDelta(t, 13.0, floatSum(t, collect(t, reader)["revenue"]), 1e-9)
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	mp, reader := newManualMeter(t)
	hist, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:        "plan_rows",
		Description: "Rows per plan",
		Unit:        "{rows}",
		Boundaries:  telemetry.CountBuckets,
	})
	require.NoError(t, err)

	ctx := context.Background()
	hist.Record(ctx, 3)
	hist.Record(ctx, 30)

	data, ok := collect(t, reader)["plan_rows"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	dp := data.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 33.0, dp.Sum, 1e-9)
	assert.Equal(t, telemetry.CountBuckets, dp.Bounds)
}

func TestHistogram_RecordDuration(t *testing.T) {
	mp, reader := newManualMeter(t)
	hist, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:       "query_seconds",
		Unit:       "s",
		Boundaries: telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	hist.RecordDuration(context.Background(), 250*time.Millisecond, telemetry.AttrDBOperation.String("SELECT"))

	data, ok := collect(t, reader)["query_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.InDelta(t, 0.25, data.DataPoints[0].Sum, 1e-9)
	op, found := data.DataPoints[0].Attributes.Value(telemetry.AttrDBOperation)
	require.True(t, found)
	assert.Equal(t, "SELECT", op.AsString())
}

func TestDefaultBuckets_Ascending(t *testing.T) {
	for _, buckets := range [][]float64{telemetry.DBDurationBuckets, telemetry.CountBuckets} {
		require.NotEmpty(t, buckets)
		for i := 1; i < len(buckets); i++ {
			assert.Greater(t, buckets[i], buckets[i-1])
		}
	}
}
