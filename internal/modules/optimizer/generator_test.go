package optimizer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
)

var testUniverse = []string{"AAPL", "MSFT", "GOOGL", "JNJ", "KO", "NEE", "JPM", "XOM"}

var testSectorMap = map[string]string{
	"AAPL":  "Information Technology",
	"MSFT":  "Information Technology",
	"GOOGL": "Information Technology",
	"JNJ":   "Health Care",
	"KO":    "Consumer Staples",
	"NEE":   "Utilities",
	"JPM":   "Financials",
	"XOM":   "Energy",
}

func testLookup() sectors.Lookup {
	return sectors.LookupFunc(func(ticker string) string {
		if s, ok := testSectorMap[ticker]; ok {
			return s
		}
		return "Unknown"
	})
}

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), testLookup())
}

func assertSums(t *testing.T, holdings []domain.Holding) {
	t.Helper()
	var sum float64
	for _, h := range holdings {
		sum += h.Allocation
		if h.Allocation < 0 {
			t.Errorf("Negative allocation for %s: %f", h.Ticker, h.Allocation)
		}
	}
	if math.Abs(sum-100) > 0.01 {
		t.Errorf("Allocations must sum to 100, got %f", sum)
	}
}

func TestRandom_SumAndMustInclude(t *testing.T) {
	gen := newTestGenerator(7)

	for i := 0; i < 20; i++ {
		candidate := gen.Random(testUniverse, []string{"AAPL", "JNJ"}, 5)
		assertSums(t, candidate)

		if len(candidate) != 5 {
			t.Fatalf("Expected 5 holdings, got %d", len(candidate))
		}

		held := make(map[string]bool)
		for _, h := range candidate {
			held[h.Ticker] = true
		}
		if !held["AAPL"] || !held["JNJ"] {
			t.Errorf("Must-include tickers missing from %v", candidate)
		}
	}
}

func TestRandom_Deterministic(t *testing.T) {
	first := newTestGenerator(42).Random(testUniverse, nil, 5)
	second := newTestGenerator(42).Random(testUniverse, nil, 5)

	if len(first) != len(second) {
		t.Fatalf("Seeded runs differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Seeded runs differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSectorBiased_KeepsMustIncludeThroughDustFilter(t *testing.T) {
	gen := newTestGenerator(3)

	// A huge negative delta shrinks IT weights toward the reduction floor;
	// the must-include IT ticker has to survive anyway.
	targets := map[string]sectors.TargetAdjustment{
		"Information Technology": {Current: 90, Target: 25, Delta: -65, Priority: sectors.StatusHardViolation},
	}

	for i := 0; i < 20; i++ {
		candidate := gen.SectorBiased(testUniverse, []string{"AAPL"}, 6, targets, 1.0)
		assertSums(t, candidate)

		found := false
		for _, h := range candidate {
			if h.Ticker == "AAPL" {
				found = true
			}
		}
		if !found {
			t.Fatal("Must-include ticker dropped by dust filter")
		}
	}
}

func TestSectorBiased_BoostsUnderweightSector(t *testing.T) {
	// Averaged over many samples the boosted sector should outweigh the
	// reduced one.
	gen := newTestGenerator(11)
	targets := map[string]sectors.TargetAdjustment{
		"Health Care":            {Current: 0, Target: 8, Delta: 8, Priority: sectors.StatusHardViolation},
		"Information Technology": {Current: 70, Target: 25, Delta: -45, Priority: sectors.StatusHardViolation},
	}

	lookup := testLookup()
	var healthCare, tech float64
	for i := 0; i < 200; i++ {
		candidate := gen.SectorBiased(testUniverse, nil, len(testUniverse), targets, 1.0)
		for _, h := range candidate {
			switch lookup.Sector(h.Ticker) {
			case "Health Care":
				healthCare += h.Allocation
			case "Information Technology":
				tech += h.Allocation
			}
		}
	}

	// Three IT tickers vs one Health Care ticker; per-ticker averages are
	// the fair comparison.
	if healthCare <= tech/3 {
		t.Errorf("Boosted sector should outweigh reduced one per ticker: HC %f vs IT/3 %f", healthCare, tech/3)
	}
}

func TestPerturb_PreservesTickersAndSum(t *testing.T) {
	gen := newTestGenerator(5)
	original := []domain.Holding{
		{Ticker: "AAPL", Allocation: 60},
		{Ticker: "JNJ", Allocation: 40},
	}

	mutated := gen.Perturb(original, 0.25)
	assertSums(t, mutated)

	if len(mutated) != 2 || mutated[0].Ticker != "AAPL" || mutated[1].Ticker != "JNJ" {
		t.Errorf("Perturb must keep the ticker set, got %v", mutated)
	}
	if original[0].Allocation != 60 || original[1].Allocation != 40 {
		t.Error("Perturb must not mutate its input")
	}
}

func TestSwapTicker_ReplacesExactlyOne(t *testing.T) {
	gen := newTestGenerator(9)
	original := []domain.Holding{
		{Ticker: "AAPL", Allocation: 50},
		{Ticker: "JNJ", Allocation: 30},
		{Ticker: "KO", Allocation: 20},
	}

	mutated := gen.SwapTicker(original, testUniverse)
	assertSums(t, mutated)

	if len(mutated) != 3 {
		t.Fatalf("Swap must keep the position count, got %d", len(mutated))
	}

	before := map[string]bool{"AAPL": true, "JNJ": true, "KO": true}
	var added, kept int
	for _, h := range mutated {
		if before[h.Ticker] {
			kept++
		} else {
			added++
		}
	}
	if added != 1 || kept != 2 {
		t.Errorf("Expected exactly one replacement, got %d added / %d kept", added, kept)
	}
}

func TestSwapTicker_ExhaustedUniverseIsNoop(t *testing.T) {
	gen := newTestGenerator(1)
	original := []domain.Holding{
		{Ticker: "AAPL", Allocation: 50},
		{Ticker: "JNJ", Allocation: 50},
	}

	mutated := gen.SwapTicker(original, []string{"AAPL", "JNJ"})
	if len(mutated) != 2 {
		t.Fatalf("Expected unchanged position count, got %d", len(mutated))
	}
	for i := range mutated {
		if mutated[i] != original[i] {
			t.Errorf("No unseen tickers available; position %d changed: %+v", i, mutated[i])
		}
	}
}

func TestApplyRiskProfile_ConservativeCap(t *testing.T) {
	gen := newTestGenerator(2)
	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 70},
		{Ticker: "JNJ", Allocation: 10},
		{Ticker: "KO", Allocation: 10},
		{Ticker: "NEE", Allocation: 10},
	}

	capped := gen.ApplyRiskProfile(holdings, domain.RiskConservative)
	assertSums(t, capped)

	for _, h := range capped {
		if h.Allocation > 30+0.01 {
			t.Errorf("Conservative position %s exceeds 30%%: %f", h.Ticker, h.Allocation)
		}
	}
	if holdings[0].Allocation != 70 {
		t.Error("ApplyRiskProfile must not mutate its input")
	}
}

func TestApplyRiskProfile_AggressiveBoost(t *testing.T) {
	gen := newTestGenerator(2)
	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 25},
		{Ticker: "JNJ", Allocation: 25},
		{Ticker: "KO", Allocation: 25},
		{Ticker: "NEE", Allocation: 25},
	}

	boosted := gen.ApplyRiskProfile(holdings, domain.RiskAggressive)
	assertSums(t, boosted)

	// Equal-weight share after boosting two positions to 1.5x and
	// renormalizing: the top two must still dominate.
	var top, second float64
	for _, h := range boosted {
		if h.Allocation > top {
			top, second = h.Allocation, top
		} else if h.Allocation > second {
			second = h.Allocation
		}
	}
	equalWeight := 100.0 / 4
	if top <= equalWeight || second <= equalWeight {
		t.Errorf("Aggressive profile must concentrate the top two positions, got %f / %f", top, second)
	}
}

func TestApplyRiskProfile_ModeratePassthrough(t *testing.T) {
	gen := newTestGenerator(2)
	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 70},
		{Ticker: "JNJ", Allocation: 30},
	}

	result := gen.ApplyRiskProfile(holdings, domain.RiskModerate)
	for i := range result {
		if result[i] != holdings[i] {
			t.Errorf("Moderate profile must pass through, position %d changed: %+v", i, result[i])
		}
	}
}
