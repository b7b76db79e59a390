package optimizer

import (
	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/metrics"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
	"github.com/aristath/stock-optimizer/internal/store"
)

// MarketData is the read-only collaborator that supplies pre-fetched,
// date-aligned price history. The aligned universe contains the core tickers
// plus every instrument whose history covers their common range.
type MarketData interface {
	GetAlignedUniverse(core []string) (*store.AlignedSeries, error)
}

// Request describes one optimization run.
type Request struct {
	Holdings         []domain.Holding     `json:"holdings"`
	RiskTolerance    domain.RiskTolerance `json:"risk_tolerance"`
	TargetReturn     *float64             `json:"target_return,omitempty"` // annualized, percent
	RebalanceSectors bool                 `json:"rebalance_sectors"`
}

// Candidate is an ephemeral evaluation unit inside the search working set.
// Each candidate owns an independent copy of its holdings.
type Candidate struct {
	Holdings    []domain.Holding
	Metrics     metrics.PerformanceMetrics
	SectorScore float64
}

// PortfolioView is the evaluated state of one holdings set.
type PortfolioView struct {
	Holdings           []domain.Holding           `json:"holdings"`
	Metrics            metrics.PerformanceMetrics `json:"metrics"`
	SectorDistribution map[string]float64         `json:"sector_distribution"`
}

// OptimizedView extends PortfolioView with the winning candidate's sector
// report.
type OptimizedView struct {
	PortfolioView
	SectorBalance sectors.Report `json:"sector_balance"`
}

// Recommendation is one per-ticker action derived by diffing baseline
// against optimized holdings.
type Recommendation struct {
	Ticker            string  `json:"ticker"`
	Action            string  `json:"action"`
	CurrentAllocation float64 `json:"current_allocation"`
	TargetAllocation  float64 `json:"target_allocation"`
	Change            float64 `json:"change"`
	Rationale         string  `json:"rationale"`
}

// FrontierPoint is one sampled (volatility, return) pair of the candidate
// population.
type FrontierPoint struct {
	Volatility       float64 `json:"volatility"`
	AnnualizedReturn float64 `json:"annualized_return"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	IsCurrent        bool    `json:"is_current,omitempty"`
	IsOptimal        bool    `json:"is_optimal,omitempty"`
	IsSectorBalanced bool    `json:"is_sector_balanced,omitempty"`
}

// Result is the full outcome of an optimization run.
type Result struct {
	Current                  PortfolioView    `json:"current"`
	Optimized                OptimizedView    `json:"optimized"`
	Recommendations          []Recommendation `json:"recommendations"`
	EfficientFrontier        []FrontierPoint  `json:"efficient_frontier"`
	SectorRebalancingApplied bool             `json:"sector_rebalancing_applied"`
	CurrentSectorBalance     *sectors.Report  `json:"current_sector_balance,omitempty"`
	SectorBalancedPortfolio  *PortfolioView   `json:"sector_balanced_portfolio,omitempty"`
}
