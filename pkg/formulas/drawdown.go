package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series, tracked against a running peak.
//
// Drawdown Formula:
//
//	Drawdown = (Value - Peak) / Peak
//
// Returns the most negative drawdown as a percentage (e.g. -25 for a 25%
// decline), or 0 for series shorter than 2 points.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (v - peak) / peak * 100
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// DrawdownSeries returns the per-point percentage drawdown from the running
// peak, aligned with the input series.
func DrawdownSeries(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = (v - peak) / peak * 100
		}
	}

	return out
}
