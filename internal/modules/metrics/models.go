package metrics

// PerformanceMetrics is the derived risk/return record for one holdings set.
// All percentage fields are expressed in percent (e.g. 12.5 for 12.5%).
// The record is computed fresh per holdings set and never mutated afterwards.
type PerformanceMetrics struct {
	TotalReturn       float64 `json:"total_return"`
	AnnualizedReturn  float64 `json:"annualized_return"`
	Volatility        float64 `json:"volatility"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	DownsideDeviation float64 `json:"downside_deviation"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	BestYear          float64 `json:"best_year"`
	WorstYear         float64 `json:"worst_year"`
	PositiveYears     int     `json:"positive_years"`
	NegativeYears     int     `json:"negative_years"`
	Beta              float64 `json:"beta"`
	Alpha             float64 `json:"alpha"`
	InformationRatio  float64 `json:"information_ratio"`
	TrackingError     float64 `json:"tracking_error"`
	RSquared          float64 `json:"r_squared"`
}

// YearlyReturn is the calendar-year return of a value series.
type YearlyReturn struct {
	Year   int     `json:"year"`
	Return float64 `json:"return"`
}
