package sectors

import (
	"reflect"
	"testing"

	"github.com/aristath/stock-optimizer/internal/domain"
)

// mapLookup resolves sectors from a fixture map, "Unknown" otherwise.
func mapLookup(m map[string]string) Lookup {
	return LookupFunc(func(ticker string) string {
		if sector, ok := m[ticker]; ok {
			return sector
		}
		return "Unknown"
	})
}

var techOnlyLookup = mapLookup(map[string]string{
	"AAPL":  "Information Technology",
	"MSFT":  "Information Technology",
	"GOOGL": "Information Technology",
})

func techOnlyHoldings() []domain.Holding {
	return []domain.Holding{
		{Ticker: "AAPL", Allocation: 50},
		{Ticker: "MSFT", Allocation: 30},
		{Ticker: "GOOGL", Allocation: 20},
	}
}

func findCheck(t *testing.T, report Report, rule int) *Check {
	t.Helper()
	for i := range report.Checks {
		if report.Checks[i].Rule == rule {
			return &report.Checks[i]
		}
	}
	return nil
}

func TestEvaluate_AllTechWorkedExample(t *testing.T) {
	report := Evaluate(techOnlyHoldings(), techOnlyLookup)

	rule1 := findCheck(t, report, 1)
	if rule1 == nil || rule1.Status != StatusHardViolation {
		t.Fatalf("Expected rule 1 HARD_VIOLATION, got %+v", rule1)
	}
	if rule1.Sector != "Information Technology" {
		t.Errorf("Expected IT as largest sector, got %q", rule1.Sector)
	}

	rule3 := findCheck(t, report, 3)
	if rule3 == nil || rule3.Status != StatusHardViolation {
		t.Fatalf("Expected rule 3 HARD_VIOLATION, got %+v", rule3)
	}

	if report.HardViolations != 2 {
		t.Errorf("Expected 2 hard violations, got %d", report.HardViolations)
	}
	if report.OverallScore != 40 {
		t.Errorf("Expected score 40, got %f", report.OverallScore)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	first := Evaluate(techOnlyHoldings(), techOnlyLookup)
	second := Evaluate(techOnlyHoldings(), techOnlyLookup)

	if !reflect.DeepEqual(first, second) {
		t.Error("Evaluating identical holdings twice must yield identical reports")
	}
}

func TestEvaluate_NormalizesWeights(t *testing.T) {
	// Allocations that sum to 50 still normalize to 100%.
	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 25},
		{Ticker: "MSFT", Allocation: 25},
	}
	report := Evaluate(holdings, techOnlyLookup)

	if w := report.SectorWeights["Information Technology"]; w != 100 {
		t.Errorf("Expected normalized IT weight 100, got %f", w)
	}
}

func TestEvaluate_CorrelatedGroup(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"AAPL": "Information Technology",
		"META": "Communication Services",
		"JNJ":  "Health Care",
		"KO":   "Consumer Staples",
	})

	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 35},
		{Ticker: "META", Allocation: 30}, // IT + CommServices = 65% > 60%
		{Ticker: "JNJ", Allocation: 20},
		{Ticker: "KO", Allocation: 15},
	}

	report := Evaluate(holdings, lookup)

	rule2 := findCheck(t, report, 2)
	if rule2 == nil {
		t.Fatal("Expected a rule 2 check for the correlated IT + Communication Services group")
	}
	if rule2.Status != StatusHardViolation {
		t.Errorf("Expected HARD_VIOLATION at 65%%, got %s", rule2.Status)
	}
	want := []string{"Communication Services", "Information Technology"}
	if !reflect.DeepEqual(rule2.Members, want) {
		t.Errorf("Expected members %v, got %v", want, rule2.Members)
	}
}

func TestEvaluate_CorrelatedGroupNotFlaggedWhenOK(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"AAPL": "Information Technology",
		"META": "Communication Services",
		"JNJ":  "Health Care",
		"KO":   "Consumer Staples",
		"NEE":  "Utilities",
	})

	holdings := []domain.Holding{
		{Ticker: "AAPL", Allocation: 20},
		{Ticker: "META", Allocation: 20},
		{Ticker: "JNJ", Allocation: 20},
		{Ticker: "KO", Allocation: 20},
		{Ticker: "NEE", Allocation: 20},
	}

	report := Evaluate(holdings, lookup)

	if c := findCheck(t, report, 2); c != nil && (c.Members[0] == "Communication Services") {
		// IT + CommServices at 40% is fine; Staples + Health Care at 40% too.
		t.Errorf("Passing correlated groups must not be flagged, got %+v", c)
	}
}

func TestEvaluate_EnergyMaterialsAdvisory(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"XOM": "Energy",
		"LIN": "Materials",
		"JNJ": "Health Care",
		"KO":  "Consumer Staples",
		"PG":  "Consumer Staples",
	})

	holdings := []domain.Holding{
		{Ticker: "XOM", Allocation: 10},
		{Ticker: "LIN", Allocation: 8}, // Energy+Materials = 18% -> ADVISORY
		{Ticker: "JNJ", Allocation: 30},
		{Ticker: "KO", Allocation: 30},
		{Ticker: "PG", Allocation: 22},
	}

	report := Evaluate(holdings, lookup)

	rule5 := findCheck(t, report, 5)
	if rule5 == nil || rule5.Status != StatusAdvisory {
		t.Fatalf("Expected rule 5 ADVISORY at 18%%, got %+v", rule5)
	}
	if report.Advisories != 1 {
		t.Errorf("Expected 1 advisory, got %d", report.Advisories)
	}
}

func TestEvaluate_REITCeiling(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"O":   "Real Estate",
		"SPG": "Real Estate Investment Trusts",
		"JNJ": "Health Care",
		"KO":  "Consumer Staples",
	})

	holdings := []domain.Holding{
		{Ticker: "O", Allocation: 12},
		{Ticker: "SPG", Allocation: 10}, // 22% REIT > 20%
		{Ticker: "JNJ", Allocation: 40},
		{Ticker: "KO", Allocation: 38},
	}

	report := Evaluate(holdings, lookup)

	rule4 := findCheck(t, report, 4)
	if rule4 == nil || rule4.Status != StatusHardViolation {
		t.Fatalf("Expected rule 4 HARD_VIOLATION at 22%%, got %+v", rule4)
	}
}

func TestOverallScore_MonotonicInViolations(t *testing.T) {
	// Balanced book with no findings.
	cleanLookup := mapLookup(map[string]string{
		"JNJ": "Health Care", "KO": "Consumer Staples", "NEE": "Utilities",
		"JPM": "Financials", "AAPL": "Information Technology",
	})
	clean := Evaluate([]domain.Holding{
		{Ticker: "JNJ", Allocation: 20},
		{Ticker: "KO", Allocation: 20},
		{Ticker: "NEE", Allocation: 20},
		{Ticker: "JPM", Allocation: 20},
		{Ticker: "AAPL", Allocation: 20},
	}, cleanLookup)

	worse := Evaluate(techOnlyHoldings(), techOnlyLookup)

	if worse.OverallScore > clean.OverallScore {
		t.Errorf("Adding violations must not raise the score: %f > %f",
			worse.OverallScore, clean.OverallScore)
	}
	if clean.OverallScore != 100 {
		t.Errorf("Expected clean portfolio to score 100, got %f", clean.OverallScore)
	}
}

func TestOverallScore_FloorsAtZero(t *testing.T) {
	// Everything wrong at once: concentrated REITs plus Energy+Materials
	// and no defensive exposure.
	lookup := mapLookup(map[string]string{
		"O":   "Real Estate",
		"XOM": "Energy",
		"LIN": "Materials",
	})
	report := Evaluate([]domain.Holding{
		{Ticker: "O", Allocation: 50},
		{Ticker: "XOM", Allocation: 30},
		{Ticker: "LIN", Allocation: 20},
	}, lookup)

	if report.OverallScore < 0 {
		t.Errorf("Score must not go below zero, got %f", report.OverallScore)
	}
}

func TestDeriveTargets_OverweightAndDefensive(t *testing.T) {
	report := Evaluate(techOnlyHoldings(), techOnlyLookup)
	targets := DeriveTargets(report)

	it, ok := targets["Information Technology"]
	if !ok {
		t.Fatal("Expected a target for the overweight IT sector")
	}
	if it.Target != 25 {
		t.Errorf("Hard overweight should target 25, got %f", it.Target)
	}
	if it.Delta >= 0 {
		t.Errorf("Overweight delta must be negative, got %f", it.Delta)
	}
	if it.Priority != StatusHardViolation {
		t.Errorf("Priority must mirror severity, got %s", it.Priority)
	}

	for _, sector := range []string{"Consumer Staples", "Health Care", "Utilities"} {
		adj, ok := targets[sector]
		if !ok {
			t.Fatalf("Expected a defensive target for %s", sector)
		}
		if adj.Delta <= 0 {
			t.Errorf("Defensive shortfall delta must be positive for %s, got %f", sector, adj.Delta)
		}
	}
}
