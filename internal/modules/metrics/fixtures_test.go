package metrics

import (
	"testing"
	"time"

	"github.com/aristath/stock-optimizer/internal/store"
)

// alignedFixture builds an aligned series with daily dates from the given
// per-ticker closes. All slices must have equal length.
func alignedFixture(t *testing.T, closes map[string][]float64) *store.AlignedSeries {
	t.Helper()

	length := -1
	for ticker, series := range closes {
		if length == -1 {
			length = len(series)
		} else if len(series) != length {
			t.Fatalf("fixture series %s has length %d, want %d", ticker, len(series), length)
		}
	}

	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, length)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	return &store.AlignedSeries{Dates: dates, Closes: closes}
}
