package metrics

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/pkg/formulas"
)

// Engine turns a portfolio value series (and an optional benchmark series)
// into a PerformanceMetrics record. Pure computation, no I/O.
type Engine struct {
	riskFreeRate float64 // annual, percent
	log          zerolog.Logger
}

// NewEngine creates a metrics engine with the given annual risk-free rate
// (in percent).
func NewEngine(riskFreeRate float64, log zerolog.Logger) *Engine {
	return &Engine{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "metrics").Logger(),
	}
}

// RiskFreeRate returns the configured annual risk-free rate in percent.
func (e *Engine) RiskFreeRate() float64 {
	return e.riskFreeRate
}

// Compute derives the full metrics record from a value series. The benchmark
// may be nil; benchmark-relative metrics require an identical-length series
// and default to 0 otherwise. Fewer than 2 points produces an all-zero
// record, the sentinel for insufficient data.
func (e *Engine) Compute(series []domain.ValuePoint, benchmark []domain.ValuePoint) PerformanceMetrics {
	if len(series) < 2 {
		return PerformanceMetrics{}
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	returns := formulas.DailyReturns(values)
	volatility := formulas.AnnualizedVolatility(returns) * 100

	first := values[0]
	last := values[len(values)-1]

	totalReturn := 0.0
	if first != 0 {
		totalReturn = (last - first) / first * 100
	}

	annualized := e.annualizedReturn(series, first, last)

	sharpe := 0.0
	if volatility != 0 {
		sharpe = (annualized - e.riskFreeRate) / volatility
	}

	downside := e.downsideDeviation(returns)
	sortino := 0.0
	if downside != 0 {
		annualizedDownside := downside * math.Sqrt(formulas.TradingDaysPerYear)
		sortino = (annualized - e.riskFreeRate) / annualizedDownside
	}

	yearly := e.YearlyReturns(series)
	best, worst, positive, negative := summarizeYears(yearly)

	m := PerformanceMetrics{
		TotalReturn:       totalReturn,
		AnnualizedReturn:  annualized,
		Volatility:        volatility,
		SharpeRatio:       sharpe,
		SortinoRatio:      sortino,
		DownsideDeviation: downside,
		MaxDrawdown:       formulas.MaxDrawdown(values),
		BestYear:          best,
		WorstYear:         worst,
		PositiveYears:     positive,
		NegativeYears:     negative,
	}

	if len(benchmark) == len(series) && len(benchmark) >= 2 {
		benchValues := make([]float64, len(benchmark))
		for i, p := range benchmark {
			benchValues[i] = p.Value
		}
		e.relativeMetrics(&m, returns, formulas.DailyReturns(benchValues))
	}

	return sanitize(m)
}

// annualizedReturn uses the calendar span of the series; when dates carry no
// span it falls back to trading-day counting.
func (e *Engine) annualizedReturn(series []domain.ValuePoint, first, last float64) float64 {
	if first <= 0 || last <= 0 {
		return 0
	}

	years := series[len(series)-1].Date.Sub(series[0].Date).Hours() / 24 / 365.25
	if years <= 0 {
		years = float64(len(series)-1) / formulas.TradingDaysPerYear
	}
	if years <= 0 {
		return 0
	}

	return (math.Pow(last/first, 1/years) - 1) * 100
}

// downsideDeviation is the RMS of daily shortfalls below the daily risk-free
// rate, in percent.
func (e *Engine) downsideDeviation(returns []float64) float64 {
	dailyRf := e.riskFreeRate / formulas.TradingDaysPerYear

	var sumSquares float64
	count := 0
	for _, r := range returns {
		pct := r * 100
		if pct < dailyRf {
			diff := pct - dailyRf
			sumSquares += diff * diff
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquares / float64(count))
}

// YearlyReturns groups the value series by calendar year and computes each
// year's return from its first to last observation, in percent.
func (e *Engine) YearlyReturns(series []domain.ValuePoint) []YearlyReturn {
	if len(series) < 2 {
		return nil
	}

	type yearSpan struct {
		start float64
		end   float64
	}
	spans := make(map[int]*yearSpan)
	var years []int

	for _, p := range series {
		y := p.Date.Year()
		span, ok := spans[y]
		if !ok {
			spans[y] = &yearSpan{start: p.Value, end: p.Value}
			years = append(years, y)
			continue
		}
		span.end = p.Value
	}

	out := make([]YearlyReturn, 0, len(years))
	for _, y := range years {
		span := spans[y]
		if span.start == 0 {
			continue
		}
		out = append(out, YearlyReturn{
			Year:   y,
			Return: (span.end - span.start) / span.start * 100,
		})
	}
	return out
}

// relativeMetrics fills beta, alpha, R², tracking error and information
// ratio from equal-length daily return streams. Zero-variance inputs leave
// the dependent metrics at 0.
func (e *Engine) relativeMetrics(m *PerformanceMetrics, portReturns, benchReturns []float64) {
	if len(portReturns) != len(benchReturns) || len(portReturns) == 0 {
		return
	}

	benchVar := formulas.Variance(benchReturns)
	portVar := formulas.Variance(portReturns)
	cov := formulas.Covariance(portReturns, benchReturns)

	if benchVar != 0 {
		beta := cov / benchVar
		if !math.IsNaN(beta) && !math.IsInf(beta, 0) {
			m.Beta = beta
		}
	}

	dailyRf := e.riskFreeRate / 100 / formulas.TradingDaysPerYear
	var portExcess, benchExcess float64
	diffs := make([]float64, len(portReturns))
	for i := range portReturns {
		portExcess += portReturns[i] - dailyRf
		benchExcess += benchReturns[i] - dailyRf
		diffs[i] = portReturns[i] - benchReturns[i]
	}
	n := float64(len(portReturns))
	meanPortExcess := portExcess / n
	meanBenchExcess := benchExcess / n

	m.Alpha = (meanPortExcess - m.Beta*meanBenchExcess) * formulas.TradingDaysPerYear * 100

	if benchVar != 0 && portVar != 0 {
		m.RSquared = cov * cov / (benchVar * portVar)
	}

	m.TrackingError = formulas.StdDev(diffs) * math.Sqrt(formulas.TradingDaysPerYear) * 100
	if m.TrackingError != 0 {
		annualizedExcess := formulas.Mean(diffs) * formulas.TradingDaysPerYear * 100
		m.InformationRatio = annualizedExcess / m.TrackingError
	}
}

func summarizeYears(yearly []YearlyReturn) (best, worst float64, positive, negative int) {
	for i, y := range yearly {
		if i == 0 || y.Return > best {
			best = y.Return
		}
		if i == 0 || y.Return < worst {
			worst = y.Return
		}
		if y.Return >= 0 {
			positive++
		} else {
			negative++
		}
	}
	return best, worst, positive, negative
}

// sanitize enforces the finite-sentinel rule: no NaN or Inf leaves the
// engine.
func sanitize(m PerformanceMetrics) PerformanceMetrics {
	m.TotalReturn = formulas.Sanitize(m.TotalReturn)
	m.AnnualizedReturn = formulas.Sanitize(m.AnnualizedReturn)
	m.Volatility = formulas.Sanitize(m.Volatility)
	m.SharpeRatio = formulas.Sanitize(m.SharpeRatio)
	m.SortinoRatio = formulas.Sanitize(m.SortinoRatio)
	m.DownsideDeviation = formulas.Sanitize(m.DownsideDeviation)
	m.MaxDrawdown = formulas.Sanitize(m.MaxDrawdown)
	m.BestYear = formulas.Sanitize(m.BestYear)
	m.WorstYear = formulas.Sanitize(m.WorstYear)
	m.Beta = formulas.Sanitize(m.Beta)
	m.Alpha = formulas.Sanitize(m.Alpha)
	m.InformationRatio = formulas.Sanitize(m.InformationRatio)
	m.TrackingError = formulas.Sanitize(m.TrackingError)
	m.RSquared = formulas.Sanitize(m.RSquared)
	return m
}
