package sectors

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
)

// mapPools serves sector pools from a fixture map.
type mapPools map[string][]string

func (p mapPools) TickersBySector(sector string) []string { return p[sector] }

var adjusterLookup = mapLookup(map[string]string{
	"AAPL":  "Information Technology",
	"MSFT":  "Information Technology",
	"GOOGL": "Information Technology",
	"KO":    "Consumer Staples",
	"PG":    "Consumer Staples",
	"JNJ":   "Health Care",
	"NEE":   "Utilities",
})

var adjusterPools = mapPools{
	"Consumer Staples": {"KO", "PG"},
	"Health Care":      {"JNJ"},
	"Utilities":        {"NEE"},
}

func TestRebalance_ConvergesOnConcentratedPortfolio(t *testing.T) {
	adjuster := NewAdjuster(adjusterLookup, adjusterPools, zerolog.Nop())

	holdings := techOnlyHoldings()
	result := adjuster.Rebalance(holdings)

	report := Evaluate(result, adjusterLookup)
	if report.HardViolations != 0 {
		t.Errorf("Expected no hard violations after rebalance, got %d", report.HardViolations)
	}
	if report.SoftWarnings != 0 {
		t.Errorf("Expected no soft warnings after rebalance, got %d", report.SoftWarnings)
	}

	var sum float64
	for _, h := range result {
		sum += h.Allocation
		if h.Allocation < 0 {
			t.Errorf("Negative allocation for %s: %f", h.Ticker, h.Allocation)
		}
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("Allocations must sum to 100, got %f", sum)
	}
}

func TestRebalance_OpensDefensivePositions(t *testing.T) {
	adjuster := NewAdjuster(adjusterLookup, adjusterPools, zerolog.Nop())

	result := adjuster.Rebalance(techOnlyHoldings())

	bySector := SectorWeights(result, adjusterLookup)
	for _, sector := range []string{"Consumer Staples", "Health Care", "Utilities"} {
		if bySector[sector] <= 0 {
			t.Errorf("Expected new positions in %s, got none", sector)
		}
	}
}

func TestRebalance_DoesNotMutateInput(t *testing.T) {
	adjuster := NewAdjuster(adjusterLookup, adjusterPools, zerolog.Nop())

	holdings := techOnlyHoldings()
	before := domain.CloneHoldings(holdings)

	adjuster.Rebalance(holdings)

	for i := range holdings {
		if holdings[i] != before[i] {
			t.Fatalf("Input holdings mutated at %d: %+v != %+v", i, holdings[i], before[i])
		}
	}
}

func TestRebalance_CompliantInputReturnedUnchanged(t *testing.T) {
	adjuster := NewAdjuster(adjusterLookup, adjusterPools, zerolog.Nop())

	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 25},
		{Ticker: "KO", Allocation: 25},
		{Ticker: "JNJ", Allocation: 25},
		{Ticker: "NEE", Allocation: 25},
	}
	result := adjuster.Rebalance(holdings)

	if len(result) != len(holdings) {
		t.Fatalf("Compliant holdings should keep their positions, got %d", len(result))
	}
	for i := range result {
		if result[i] != holdings[i] {
			t.Errorf("Position %d changed: %+v != %+v", i, result[i], holdings[i])
		}
	}

	// Still an independent copy.
	result[0].Allocation = 0
	if holdings[0].Allocation != 25 {
		t.Error("Result must be an independent copy of the input")
	}
}

func TestRebalance_EmptyPoolsStillReturnsCopy(t *testing.T) {
	adjuster := NewAdjuster(adjusterLookup, mapPools{}, zerolog.Nop())

	result := adjuster.Rebalance(techOnlyHoldings())

	if len(result) == 0 {
		t.Fatal("Expected a non-empty best-effort result")
	}
	var sum float64
	for _, h := range result {
		sum += h.Allocation
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("Best-effort result must still sum to 100, got %f", sum)
	}
}
