package planning

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ADSSource records where a cluster's average daily sales came from
type ADSSource string

const (
	ADSSourceAnalytics ADSSource = "analytics"
	ADSSourceManual    ADSSource = "manual"
	ADSSourceNone      ADSSource = "none"
)

// String returns the string representation of ADSSource
func (s ADSSource) String() string {
	return string(s)
}

// Params are per-SKU replenishment rules
type Params struct {
	PackSize    decimal.Decimal
	MOQ         decimal.Decimal
	SafetyStock decimal.Decimal
}

// DefaultParams orders in single units with no minimum and no safety stock
func DefaultParams() Params {
	return Params{
		PackSize:    decimal.NewFromInt(1),
		MOQ:         decimal.Zero,
		SafetyStock: decimal.Zero,
	}
}

// ClusterStock is the marketplace stock of one SKU in one cluster.
// ADS is nil when analytics have no sales figure for the cluster.
type ClusterStock struct {
	Cluster   string
	Available decimal.Decimal
	InTransit decimal.Decimal
	ADS       *decimal.Decimal
}

// CardSnapshot is everything the engine needs about one SKU
type CardSnapshot struct {
	CardID          uuid.UUID
	SKU             string
	StockAtHome     decimal.Decimal
	Pipeline        decimal.Decimal
	Params          Params
	Clusters        []ClusterStock
	ManualEstimates map[string]decimal.Decimal
}

// Snapshot is the full planning input at one point in time
type Snapshot struct {
	Cards []CardSnapshot
}

// Input are the two planning horizons, in days
type Input struct {
	LeadTimeDays int
	BufferDays   int
}

// Validate checks the horizons
func (in Input) Validate() error {
	if in.LeadTimeDays < 0 {
		return shared.NewInvalidInputError(fmt.Sprintf("Lead time cannot be negative, got %d", in.LeadTimeDays))
	}
	if in.BufferDays < 0 {
		return shared.NewInvalidInputError(fmt.Sprintf("Buffer days cannot be negative, got %d", in.BufferDays))
	}
	return nil
}

// ClusterLine is the computed projection for one cluster
type ClusterLine struct {
	Cluster        string
	Available      decimal.Decimal
	InTransit      decimal.Decimal
	ADS            decimal.Decimal
	ADSSource      ADSSource
	Depletion      decimal.Decimal
	StockAtArrival decimal.Decimal
	Need           decimal.Decimal
	Gap            decimal.Decimal
}

// Recommendation is the computed replenishment for one SKU
type Recommendation struct {
	CardID         uuid.UUID
	SKU            string
	Clusters       []ClusterLine
	TotalGap       decimal.Decimal
	TotalADS       decimal.Decimal
	StockAtHome    decimal.Decimal
	Pipeline       decimal.Decimal
	RawQty         decimal.Decimal
	RecommendedQty decimal.Decimal
	// DaysOfCover is nil when the SKU has no demand
	DaysOfCover *decimal.Decimal
}

// Generate projects stock per cluster over the lead time and recommends how much
// to order so every cluster can cover the buffer period after arrival.
// The result is a pure function of its arguments.
func Generate(snapshot Snapshot, in Input) ([]Recommendation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lead := decimal.NewFromInt(int64(in.LeadTimeDays))
	buffer := decimal.NewFromInt(int64(in.BufferDays))

	recs := make([]Recommendation, 0, len(snapshot.Cards))
	for _, card := range snapshot.Cards {
		recs = append(recs, recommend(card, lead, buffer))
	}

	SortRecommendations(recs)
	return recs, nil
}

func recommend(card CardSnapshot, lead, buffer decimal.Decimal) Recommendation {
	params := normalizeParams(card.Params)

	clusters := mergeClusters(card.Clusters, card.ManualEstimates)
	lines := make([]ClusterLine, 0, len(clusters))
	totalGap := decimal.Zero
	totalADS := decimal.Zero
	totalStock := decimal.Zero

	for _, c := range clusters {
		line := projectCluster(c, card.ManualEstimates, lead, buffer, params.SafetyStock)
		lines = append(lines, line)
		totalGap = totalGap.Add(line.Gap)
		totalADS = totalADS.Add(line.ADS)
		totalStock = totalStock.Add(line.Available).Add(line.InTransit)
	}

	raw := decimal.Max(decimal.Zero, totalGap.Sub(card.StockAtHome).Sub(card.Pipeline))

	rec := Recommendation{
		CardID:         card.CardID,
		SKU:            card.SKU,
		Clusters:       lines,
		TotalGap:       totalGap,
		TotalADS:       totalADS,
		StockAtHome:    card.StockAtHome,
		Pipeline:       card.Pipeline,
		RawQty:         raw,
		RecommendedQty: applyLotSizing(raw, params),
	}
	if totalADS.IsPositive() {
		cover := totalStock.Div(totalADS).Round(2)
		rec.DaysOfCover = &cover
	}
	return rec
}

// projectCluster applies the two-horizon formula to one cluster:
//
//	depletion        = ceil(lead × ads)
//	stockAtArrival   = max(0, available + inTransit − depletion)
//	need             = ceil(buffer × ads) + safetyStock
//	gap              = max(0, need − stockAtArrival)
func projectCluster(c ClusterStock, manual map[string]decimal.Decimal, lead, buffer, safetyStock decimal.Decimal) ClusterLine {
	ads, source := resolveADS(c, manual)

	depletion := lead.Mul(ads).Ceil()
	stockAtArrival := decimal.Max(decimal.Zero, c.Available.Add(c.InTransit).Sub(depletion))
	need := buffer.Mul(ads).Ceil().Add(safetyStock)
	gap := decimal.Max(decimal.Zero, need.Sub(stockAtArrival))

	return ClusterLine{
		Cluster:        c.Cluster,
		Available:      c.Available,
		InTransit:      c.InTransit,
		ADS:            ads,
		ADSSource:      source,
		Depletion:      depletion,
		StockAtArrival: stockAtArrival,
		Need:           need,
		Gap:            gap,
	}
}

func resolveADS(c ClusterStock, manual map[string]decimal.Decimal) (decimal.Decimal, ADSSource) {
	if c.ADS != nil {
		return decimal.Max(decimal.Zero, *c.ADS), ADSSourceAnalytics
	}
	if est, ok := manual[c.Cluster]; ok {
		return decimal.Max(decimal.Zero, est), ADSSourceManual
	}
	return decimal.Zero, ADSSourceNone
}

// mergeClusters adds an empty stock row for every manually estimated cluster the
// analytics do not mention, then orders clusters by name.
func mergeClusters(stock []ClusterStock, manual map[string]decimal.Decimal) []ClusterStock {
	out := make([]ClusterStock, 0, len(stock)+len(manual))
	seen := make(map[string]bool, len(stock))
	for _, c := range stock {
		if seen[c.Cluster] {
			continue
		}
		seen[c.Cluster] = true
		out = append(out, c)
	}
	for cluster := range manual {
		if seen[cluster] {
			continue
		}
		out = append(out, ClusterStock{
			Cluster:   cluster,
			Available: decimal.Zero,
			InTransit: decimal.Zero,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cluster < out[j].Cluster
	})
	return out
}

func normalizeParams(p Params) Params {
	if !p.PackSize.IsPositive() {
		p.PackSize = decimal.NewFromInt(1)
	}
	if p.MOQ.IsNegative() {
		p.MOQ = decimal.Zero
	}
	if p.SafetyStock.IsNegative() {
		p.SafetyStock = decimal.Zero
	}
	return p
}

// applyLotSizing rounds raw up to a whole number of packs, then lifts a
// positive result below the minimum order quantity to the minimum.
func applyLotSizing(raw decimal.Decimal, p Params) decimal.Decimal {
	if !raw.IsPositive() {
		return decimal.Zero
	}
	packs := raw.Div(p.PackSize).Ceil()
	qty := packs.Mul(p.PackSize)
	if qty.IsPositive() && qty.LessThan(p.MOQ) {
		qty = p.MOQ
	}
	return qty
}

// SortRecommendations orders by total gap descending, then days of cover
// ascending with no-demand SKUs last, then SKU and card ID.
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if c := a.TotalGap.Cmp(b.TotalGap); c != 0 {
			return c > 0
		}
		switch {
		case a.DaysOfCover != nil && b.DaysOfCover == nil:
			return true
		case a.DaysOfCover == nil && b.DaysOfCover != nil:
			return false
		case a.DaysOfCover != nil && b.DaysOfCover != nil:
			if c := a.DaysOfCover.Cmp(*b.DaysOfCover); c != 0 {
				return c < 0
			}
		}
		if a.SKU != b.SKU {
			return a.SKU < b.SKU
		}
		return bytes.Compare(a.CardID[:], b.CardID[:]) < 0
	})
}
