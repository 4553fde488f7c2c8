package planning

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

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func singleCluster(sku string, available string, ads *decimal.Decimal) CardSnapshot {
	return CardSnapshot{
		CardID:      uuid.New(),
		SKU:         sku,
		StockAtHome: decimal.Zero,
		Pipeline:    decimal.Zero,
		Params:      DefaultParams(),
		Clusters: []ClusterStock{
			{Cluster: "central", Available: dec(available), InTransit: decimal.Zero, ADS: ads},
		},
	}
}

func TestGenerate_TwoHorizonScenario(t *testing.T) {
	card := singleCluster("SKU-1", "50", decPtr("2"))

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 45, BufferDays: 60})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	require.Len(t, rec.Clusters, 1)
	line := rec.Clusters[0]
	assertDec(t, "90", line.Depletion)
	assertDec(t, "0", line.StockAtArrival)
	assertDec(t, "120", line.Need)
	assertDec(t, "120", line.Gap)
	assert.Equal(t, ADSSourceAnalytics, line.ADSSource)

	assertDec(t, "120", rec.TotalGap)
	assertDec(t, "120", rec.RawQty)
	assertDec(t, "120", rec.RecommendedQty)
	require.NotNil(t, rec.DaysOfCover)
	assertDec(t, "25", *rec.DaysOfCover)
}

func TestGenerate_HomeStockAndPipelineReduceOrder(t *testing.T) {
	card := singleCluster("SKU-1", "50", decPtr("2"))
	card.StockAtHome = dec("30")
	card.Pipeline = dec("50")

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 45, BufferDays: 60})
	require.NoError(t, err)
	assertDec(t, "40", recs[0].RawQty)
	assertDec(t, "40", recs[0].RecommendedQty)

	card.StockAtHome = dec("500")
	recs, err = Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 45, BufferDays: 60})
	require.NoError(t, err)
	assertDec(t, "0", recs[0].RawQty)
	assertDec(t, "0", recs[0].RecommendedQty)
}

func TestGenerate_LotSizing(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		buffer   int
		expected string
	}{
		{"single units", DefaultParams(), 23, "23"},
		{"rounded up to pack", Params{PackSize: dec("10"), MOQ: decimal.Zero, SafetyStock: decimal.Zero}, 23, "30"},
		{"exact pack multiple", Params{PackSize: dec("10"), MOQ: decimal.Zero, SafetyStock: decimal.Zero}, 20, "20"},
		{"lifted to MOQ after pack rounding", Params{PackSize: dec("10"), MOQ: dec("50"), SafetyStock: decimal.Zero}, 23, "50"},
		{"MOQ below rounded quantity", Params{PackSize: dec("10"), MOQ: dec("25"), SafetyStock: decimal.Zero}, 23, "30"},
		{"nothing needed ignores MOQ", Params{PackSize: dec("10"), MOQ: dec("50"), SafetyStock: decimal.Zero}, 0, "0"},
		{"non-positive pack treated as one", Params{PackSize: decimal.Zero, MOQ: decimal.Zero, SafetyStock: decimal.Zero}, 7, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := singleCluster("SKU-1", "0", decPtr("1"))
			card.Params = tt.params

			recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 0, BufferDays: tt.buffer})
			require.NoError(t, err)
			assertDec(t, tt.expected, recs[0].RecommendedQty)
		})
	}
}

func TestGenerate_SafetyStockPerCluster(t *testing.T) {
	card := CardSnapshot{
		CardID: uuid.New(),
		SKU:    "SKU-1",
		Params: Params{PackSize: dec("1"), MOQ: decimal.Zero, SafetyStock: dec("5")},
		Clusters: []ClusterStock{
			{Cluster: "east", Available: dec("2"), InTransit: decimal.Zero, ADS: decPtr("0")},
			{Cluster: "west", Available: dec("10"), InTransit: decimal.Zero, ADS: decPtr("0")},
		},
	}

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 10, BufferDays: 10})
	require.NoError(t, err)
	rec := recs[0]

	assertDec(t, "3", rec.Clusters[0].Gap)
	assertDec(t, "0", rec.Clusters[1].Gap)
	assertDec(t, "3", rec.TotalGap)
	assert.Nil(t, rec.DaysOfCover)
}

func TestGenerate_ManualEstimates(t *testing.T) {
	card := CardSnapshot{
		CardID: uuid.New(),
		SKU:    "SKU-1",
		Params: DefaultParams(),
		Clusters: []ClusterStock{
			{Cluster: "central", Available: dec("20"), InTransit: decimal.Zero, ADS: nil},
			{Cluster: "south", Available: dec("4"), InTransit: dec("1"), ADS: nil},
		},
		ManualEstimates: map[string]decimal.Decimal{
			"central": dec("1.5"),
			"north":   dec("0.5"),
		},
	}

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 10, BufferDays: 10})
	require.NoError(t, err)
	rec := recs[0]
	require.Len(t, rec.Clusters, 3)

	central, north, south := rec.Clusters[0], rec.Clusters[1], rec.Clusters[2]

	assert.Equal(t, "central", central.Cluster)
	assert.Equal(t, ADSSourceManual, central.ADSSource)
	assertDec(t, "15", central.Depletion)
	assertDec(t, "5", central.StockAtArrival)
	assertDec(t, "15", central.Need)
	assertDec(t, "10", central.Gap)

	assert.Equal(t, "north", north.Cluster)
	assert.Equal(t, ADSSourceManual, north.ADSSource)
	assertDec(t, "0", north.Available)
	assertDec(t, "5", north.Gap)

	assert.Equal(t, "south", south.Cluster)
	assert.Equal(t, ADSSourceNone, south.ADSSource)
	assertDec(t, "0", south.ADS)
	assertDec(t, "0", south.Gap)

	assertDec(t, "15", rec.TotalGap)
	assertDec(t, "2", rec.TotalADS)
}

func TestGenerate_AnalyticsWinOverManual(t *testing.T) {
	card := singleCluster("SKU-1", "0", decPtr("1"))
	card.ManualEstimates = map[string]decimal.Decimal{"central": dec("100")}

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 0, BufferDays: 10})
	require.NoError(t, err)
	assert.Equal(t, ADSSourceAnalytics, recs[0].Clusters[0].ADSSource)
	assertDec(t, "10", recs[0].Clusters[0].Gap)
}

func TestGenerate_NegativeADSTreatedAsZero(t *testing.T) {
	card := singleCluster("SKU-1", "3", decPtr("-4"))

	recs, err := Generate(Snapshot{Cards: []CardSnapshot{card}}, Input{LeadTimeDays: 10, BufferDays: 10})
	require.NoError(t, err)
	assertDec(t, "0", recs[0].Clusters[0].ADS)
	assertDec(t, "3", recs[0].Clusters[0].StockAtArrival)
	assertDec(t, "0", recs[0].TotalGap)
}

func TestGenerate_RejectsNegativeHorizons(t *testing.T) {
	_, err := Generate(Snapshot{}, Input{LeadTimeDays: -1, BufferDays: 10})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = Generate(Snapshot{}, Input{LeadTimeDays: 1, BufferDays: -10})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestGenerate_EmptySnapshot(t *testing.T) {
	recs, err := Generate(Snapshot{}, Input{LeadTimeDays: 1, BufferDays: 1})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSortRecommendations(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	recs := []Recommendation{
		{SKU: "small-gap", TotalGap: dec("10"), DaysOfCover: decPtr("1")},
		{SKU: "no-demand", TotalGap: dec("30"), DaysOfCover: nil},
		{SKU: "slow", TotalGap: dec("30"), DaysOfCover: decPtr("5")},
		{SKU: "fast", TotalGap: dec("30"), DaysOfCover: decPtr("2")},
		{SKU: "twin", CardID: idB, TotalGap: dec("0")},
		{SKU: "twin", CardID: idA, TotalGap: dec("0")},
	}

	SortRecommendations(recs)

	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = r.SKU
	}
	assert.Equal(t, []string{"fast", "slow", "no-demand", "small-gap", "twin", "twin"}, got)
	assert.Equal(t, idA, recs[4].CardID)
	assert.Equal(t, idB, recs[5].CardID)
}

func TestGenerate_Deterministic(t *testing.T) {
	cards := []CardSnapshot{
		singleCluster("A", "10", decPtr("1")),
		singleCluster("B", "50", decPtr("2")),
		singleCluster("C", "0", decPtr("0.5")),
		singleCluster("D", "5", nil),
	}
	reversed := []CardSnapshot{cards[3], cards[2], cards[1], cards[0]}
	in := Input{LeadTimeDays: 30, BufferDays: 30}

	first, err := Generate(Snapshot{Cards: cards}, in)
	require.NoError(t, err)
	second, err := Generate(Snapshot{Cards: reversed}, in)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].CardID, second[i].CardID)
		assert.True(t, first[i].RecommendedQty.Equal(second[i].RecommendedQty))
		assert.True(t, first[i].TotalGap.Equal(second[i].TotalGap))
	}
}
