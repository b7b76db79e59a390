package optimizer

import (
	"sort"

	"github.com/aristath/stock-optimizer/internal/modules/metrics"
)

// frontierSamples is the rough size of the presentable scatter.
const frontierSamples = 50

// BuildFrontier reduces the candidate pool into a bounded risk/return
// scatter: candidates sorted by volatility, sampled evenly, with marker
// points appended for the current portfolio, the selected optimum, and the
// sector-balanced intermediate when one was computed.
func BuildFrontier(pool []Candidate, current, optimal metrics.PerformanceMetrics, intermediate *metrics.PerformanceMetrics) []FrontierPoint {
	sorted := append([]Candidate(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.Volatility < sorted[j].Metrics.Volatility
	})

	var points []FrontierPoint
	if len(sorted) > 0 {
		step := len(sorted) / frontierSamples
		if step < 1 {
			step = 1
		}
		for i := 0; i < len(sorted); i += step {
			points = append(points, FrontierPoint{
				Volatility:       sorted[i].Metrics.Volatility,
				AnnualizedReturn: sorted[i].Metrics.AnnualizedReturn,
				SharpeRatio:      sorted[i].Metrics.SharpeRatio,
			})
		}
	}

	points = append(points, FrontierPoint{
		Volatility:       current.Volatility,
		AnnualizedReturn: current.AnnualizedReturn,
		SharpeRatio:      current.SharpeRatio,
		IsCurrent:        true,
	})
	points = append(points, FrontierPoint{
		Volatility:       optimal.Volatility,
		AnnualizedReturn: optimal.AnnualizedReturn,
		SharpeRatio:      optimal.SharpeRatio,
		IsOptimal:        true,
	})
	if intermediate != nil {
		points = append(points, FrontierPoint{
			Volatility:       intermediate.Volatility,
			AnnualizedReturn: intermediate.AnnualizedReturn,
			SharpeRatio:      intermediate.SharpeRatio,
			IsSectorBalanced: true,
		})
	}

	return points
}
