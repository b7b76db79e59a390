package optimizer

import (
	"math"
	"sort"

	"github.com/aristath/stock-optimizer/internal/domain"
)

// minReportedChange hides sub-point noise from the recommendation list.
const minReportedChange = 1.0

// BuildRecommendations diffs baseline against optimized holdings per ticker
// and emits actionable changes of at least one percentage point, largest
// first.
func BuildRecommendations(baseline, optimized []domain.Holding, tolerance domain.RiskTolerance) []Recommendation {
	base := make(map[string]float64, len(baseline))
	for _, h := range baseline {
		base[h.Ticker] = h.Allocation
	}
	target := make(map[string]float64, len(optimized))
	for _, h := range optimized {
		target[h.Ticker] = h.Allocation
	}

	tickers := make(map[string]bool, len(base)+len(target))
	for t := range base {
		tickers[t] = true
	}
	for t := range target {
		tickers[t] = true
	}

	var recs []Recommendation
	for ticker := range tickers {
		current := base[ticker]
		suggested := target[ticker]
		change := suggested - current
		if math.Abs(change) < minReportedChange {
			continue
		}

		var action string
		switch {
		case current == 0:
			action = "Add position"
		case suggested == 0:
			action = "Remove position"
		case change > 0:
			action = "Increase allocation"
		default:
			action = "Decrease allocation"
		}

		recs = append(recs, Recommendation{
			Ticker:            ticker,
			Action:            action,
			CurrentAllocation: current,
			TargetAllocation:  suggested,
			Change:            change,
			Rationale:         rationale(action, tolerance),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if math.Abs(recs[i].Change) != math.Abs(recs[j].Change) {
			return math.Abs(recs[i].Change) > math.Abs(recs[j].Change)
		}
		return recs[i].Ticker < recs[j].Ticker
	})

	return recs
}

func rationale(action string, tolerance domain.RiskTolerance) string {
	switch tolerance {
	case domain.RiskConservative:
		switch action {
		case "Add position", "Increase allocation":
			return "Improves diversification and lowers overall portfolio volatility"
		default:
			return "Reduces concentration risk in line with a conservative profile"
		}
	case domain.RiskAggressive:
		switch action {
		case "Add position", "Increase allocation":
			return "Concentrates capital in positions with stronger expected returns"
		default:
			return "Frees capital for higher-return opportunities"
		}
	default:
		switch action {
		case "Add position", "Increase allocation":
			return "Improves the portfolio's risk-adjusted return"
		default:
			return "Trims exposure with weak contribution to risk-adjusted return"
		}
	}
}
