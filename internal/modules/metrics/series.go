package metrics

import (
	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/store"
)

// InitialCapital is the notional starting value every simulated portfolio is
// normalized to.
const InitialCapital = 10000.0

// BuildValueSeries simulates holding the given allocations over an aligned
// price range. Allocations are converted to share counts at the first
// aligned price and carried forward; the aligned series already fills price
// gaps with the most recent prior close.
func BuildValueSeries(holdings []domain.Holding, aligned *store.AlignedSeries) []domain.ValuePoint {
	if aligned == nil || len(aligned.Dates) == 0 {
		return nil
	}

	shares := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		closes, ok := aligned.Closes[h.Ticker]
		if !ok || len(closes) == 0 || closes[0] <= 0 {
			continue
		}
		invested := InitialCapital * h.Allocation / 100
		shares[h.Ticker] = invested / closes[0]
	}

	series := make([]domain.ValuePoint, len(aligned.Dates))
	for i, date := range aligned.Dates {
		var value float64
		for ticker, count := range shares {
			value += count * aligned.Closes[ticker][i]
		}
		series[i] = domain.ValuePoint{Date: date, Value: value}
	}

	return series
}
