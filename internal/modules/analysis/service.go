package analysis

import (
	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/metrics"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
	"github.com/aristath/stock-optimizer/internal/store"
	"github.com/aristath/stock-optimizer/pkg/formulas"
)

// MarketData supplies aligned price history for a holdings set.
type MarketData interface {
	GetAlignedSeries(tickers []string) (*store.AlignedSeries, error)
}

// DrawdownPoint is one observation of the portfolio's decline from its
// running peak.
type DrawdownPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"`
}

// PortfolioAnalysis is the full evaluation of one holdings set against
// history.
type PortfolioAnalysis struct {
	Metrics            metrics.PerformanceMetrics `json:"metrics"`
	ValueSeries        []domain.ValuePoint        `json:"value_series"`
	YearlyReturns      []metrics.YearlyReturn     `json:"yearly_returns"`
	Drawdowns          []DrawdownPoint            `json:"drawdowns"`
	SectorDistribution map[string]float64         `json:"sector_distribution"`
}

// Service evaluates portfolios against historical prices and sector
// metadata.
type Service struct {
	market MarketData
	engine *metrics.Engine
	lookup sectors.Lookup
	log    zerolog.Logger
}

// NewService creates an analysis service.
func NewService(market MarketData, engine *metrics.Engine, lookup sectors.Lookup, log zerolog.Logger) *Service {
	return &Service{
		market: market,
		engine: engine,
		lookup: lookup,
		log:    log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze computes the performance record, value series, yearly returns,
// drawdown series and sector distribution for a holdings set. The optional
// benchmark ticker is aligned to the same date range.
func (s *Service) Analyze(holdings []domain.Holding, benchmarkTicker string) (*PortfolioAnalysis, error) {
	normalized := domain.NormalizeHoldings(domain.CloneHoldings(holdings))
	for i := range normalized {
		normalized[i].Ticker = domain.NormalizeTicker(normalized[i].Ticker)
	}

	tickers := make([]string, 0, len(normalized)+1)
	for _, h := range normalized {
		tickers = append(tickers, h.Ticker)
	}
	if benchmarkTicker != "" {
		benchmarkTicker = domain.NormalizeTicker(benchmarkTicker)
		tickers = append(tickers, benchmarkTicker)
	}

	aligned, err := s.market.GetAlignedSeries(tickers)
	if err != nil {
		return nil, err
	}

	series := metrics.BuildValueSeries(normalized, aligned)

	var benchmark []domain.ValuePoint
	if benchmarkTicker != "" {
		benchmark = metrics.BuildValueSeries(
			[]domain.Holding{{Ticker: benchmarkTicker, Allocation: 100}}, aligned)
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	drawdowns := formulas.DrawdownSeries(values)
	ddPoints := make([]DrawdownPoint, len(series))
	for i, p := range series {
		ddPoints[i] = DrawdownPoint{
			Date:     p.Date.Format("2006-01-02"),
			Drawdown: drawdowns[i],
		}
	}

	return &PortfolioAnalysis{
		Metrics:            s.engine.Compute(series, benchmark),
		ValueSeries:        series,
		YearlyReturns:      s.engine.YearlyReturns(series),
		Drawdowns:          ddPoints,
		SectorDistribution: sectors.SectorWeights(normalized, s.lookup),
	}, nil
}

// CheckSectorBalance scores holdings against the concentration rules. Pure
// and synchronous, callable standalone.
func (s *Service) CheckSectorBalance(holdings []domain.Holding) sectors.Report {
	return sectors.Evaluate(holdings, s.lookup)
}
