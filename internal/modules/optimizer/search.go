package optimizer

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/metrics"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
	"github.com/aristath/stock-optimizer/internal/store"
	"github.com/aristath/stock-optimizer/pkg/formulas"
)

const (
	batchSize    = 25
	mutationRate = 0.25

	// minSingleSharpe is the single-asset Sharpe floor for the must-include
	// set.
	minSingleSharpe = -0.2

	// Stop thresholds per iteration.
	targetReturnStopWindow = 1.5
	sharpeStopMultiplier   = 1.1

	// Selection policy.
	viableSharpeFraction   = 0.8
	viableFallbackCount    = 50
	topScoreFraction       = 0.2
	targetSelectionWindow  = 2.0
	sectorBiasStrength     = 1.0

	minHoldingsCount = 15
	maxHoldingsCount = 50

	// capTolerance absorbs renormalization rounding when checking the
	// conservative ceiling.
	capTolerance = 0.01
)

// SearchConfig bounds one optimization run.
type SearchConfig struct {
	TimeBudget time.Duration // wall clock, checked between batches
	MaxRetries int           // iteration cap
	Workers    int           // evaluation fan-out, 1 = deterministic reference mode
	Seed       int64         // RNG seed, 0 means time-based
}

// Search proposes improved allocations by scoring batches of randomized
// candidates against the baseline. One Search value runs one synchronous
// optimization; it holds no shared mutable state across calls.
type Search struct {
	market   MarketData
	engine   *metrics.Engine
	lookup   sectors.Lookup
	adjuster *sectors.Adjuster
	cfg      SearchConfig
	log      zerolog.Logger
}

// NewSearch creates a search engine.
func NewSearch(market MarketData, engine *metrics.Engine, lookup sectors.Lookup, adjuster *sectors.Adjuster, cfg SearchConfig, log zerolog.Logger) *Search {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = 60 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Search{
		market:   market,
		engine:   engine,
		lookup:   lookup,
		adjuster: adjuster,
		cfg:      cfg,
		log:      log.With().Str("component", "search").Logger(),
	}
}

// Optimize runs the full search and returns the selected allocation with its
// metrics, sector report, recommendations and frontier.
func (s *Search) Optimize(req Request) (*Result, error) {
	baseline := domain.NormalizeHoldings(domain.CloneHoldings(req.Holdings))
	for i := range baseline {
		baseline[i].Ticker = domain.NormalizeTicker(baseline[i].Ticker)
	}

	core := make([]string, 0, len(baseline))
	for _, h := range baseline {
		core = append(core, h.Ticker)
	}
	aligned, err := s.market.GetAlignedUniverse(core)
	if err != nil {
		return nil, err
	}
	universe := alignedTickers(aligned)

	baselineMetrics := s.engine.Compute(metrics.BuildValueSeries(baseline, aligned), nil)
	currentReport := sectors.Evaluate(baseline, s.lookup)

	// Optional sector-balanced intermediate portfolio, used as the
	// generation seed and as the diff baseline.
	seed := baseline
	var intermediate []domain.Holding
	rebalancingApplied := false
	if req.RebalanceSectors && !currentReport.Compliant() {
		intermediate = s.adjuster.Rebalance(baseline)
		seed = intermediate
		rebalancingApplied = true
	}

	mustInclude := s.mustIncludeSet(seed, aligned)
	holdingsCap := clamp(2*len(baseline), minHoldingsCount, maxHoldingsCount)

	rngSeed := s.cfg.Seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	gen := NewGenerator(rand.New(rand.NewSource(rngSeed)), s.lookup)

	targets := sectors.DeriveTargets(sectors.Evaluate(seed, s.lookup))
	localUniverse := localTickers(seed, mustInclude)

	var pool []Candidate
	deadline := time.Now().Add(s.cfg.TimeBudget)

	iterations := 0
	for iterations = 0; iterations < s.cfg.MaxRetries; iterations++ {
		if !time.Now().Before(deadline) {
			s.log.Debug().Int("iterations", iterations).Msg("Search time budget exhausted")
			break
		}

		local := s.generateLocalBatch(gen, req, seed, localUniverse, mustInclude, holdingsCap, targets)
		global := s.generateGlobalBatch(gen, req, universe, mustInclude, holdingsCap, targets)

		pool = append(pool, s.evaluateBatch(append(local, global...), aligned)...)

		if s.shouldStop(pool, req, rebalancingApplied, baselineMetrics.SharpeRatio) {
			iterations++
			break
		}
	}

	winner := s.selectCandidate(pool, req, rebalancingApplied, baselineMetrics.SharpeRatio)
	if winner == nil {
		// Degenerate pool: fall back to the seed itself.
		seedCopy := domain.CloneHoldings(seed)
		winner = &Candidate{
			Holdings:    seedCopy,
			Metrics:     s.engine.Compute(metrics.BuildValueSeries(seedCopy, aligned), nil),
			SectorScore: sectors.Evaluate(seedCopy, s.lookup).OverallScore,
		}
	}

	diffBaseline := baseline
	if rebalancingApplied {
		diffBaseline = intermediate
	}
	winner.Holdings = annotateChanges(winner.Holdings, diffBaseline)

	winnerReport := sectors.Evaluate(winner.Holdings, s.lookup)

	result := &Result{
		Current: PortfolioView{
			Holdings:           baseline,
			Metrics:            baselineMetrics,
			SectorDistribution: currentReport.SectorWeights,
		},
		Optimized: OptimizedView{
			PortfolioView: PortfolioView{
				Holdings:           winner.Holdings,
				Metrics:            winner.Metrics,
				SectorDistribution: winnerReport.SectorWeights,
			},
			SectorBalance: winnerReport,
		},
		Recommendations:          BuildRecommendations(diffBaseline, winner.Holdings, req.RiskTolerance),
		SectorRebalancingApplied: rebalancingApplied,
	}

	var intermediateMetrics *metrics.PerformanceMetrics
	if rebalancingApplied {
		reportCopy := currentReport
		result.CurrentSectorBalance = &reportCopy
		m := s.engine.Compute(metrics.BuildValueSeries(intermediate, aligned), nil)
		intermediateMetrics = &m
		result.SectorBalancedPortfolio = &PortfolioView{
			Holdings:           intermediate,
			Metrics:            m,
			SectorDistribution: sectors.SectorWeights(intermediate, s.lookup),
		}
	}

	result.EfficientFrontier = BuildFrontier(pool, baselineMetrics, winner.Metrics, intermediateMetrics)

	s.log.Info().
		Int("iterations", iterations).
		Int("pool", len(pool)).
		Float64("baseline_sharpe", baselineMetrics.SharpeRatio).
		Float64("selected_sharpe", winner.Metrics.SharpeRatio).
		Bool("sector_rebalancing", rebalancingApplied).
		Msg("Optimization completed")

	return result, nil
}

// mustIncludeSet keeps every seed ticker whose single-asset Sharpe clears
// the floor. An empty result force-includes the single best ticker so the
// search space never collapses.
func (s *Search) mustIncludeSet(seed []domain.Holding, aligned *store.AlignedSeries) []string {
	var keep []string
	bestTicker := ""
	bestSharpe := math.Inf(-1)

	for _, h := range seed {
		closes, ok := aligned.Closes[h.Ticker]
		if !ok {
			continue
		}
		sharpe := formulas.SharpeFromPrices(closes, s.engine.RiskFreeRate())
		if sharpe > bestSharpe {
			bestSharpe = sharpe
			bestTicker = h.Ticker
		}
		if sharpe > minSingleSharpe {
			keep = append(keep, h.Ticker)
		}
	}

	if len(keep) == 0 && bestTicker != "" {
		keep = []string{bestTicker}
	}
	return keep
}

// generateLocalBatch mutates the seed and samples within the seed's own
// ticker neighborhood.
func (s *Search) generateLocalBatch(gen *Generator, req Request, seed []domain.Holding, localUniverse, mustInclude []string, maxSize int, targets map[string]sectors.TargetAdjustment) [][]domain.Holding {
	batch := make([][]domain.Holding, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		var candidate []domain.Holding
		switch i % 3 {
		case 0:
			candidate = gen.Perturb(seed, mutationRate)
		case 1:
			candidate = gen.SwapTicker(seed, localUniverse)
		default:
			size := min(maxSize, len(localUniverse))
			if req.RebalanceSectors && len(targets) > 0 {
				candidate = gen.SectorBiased(localUniverse, mustInclude, size, targets, sectorBiasStrength)
			} else {
				candidate = gen.Random(localUniverse, mustInclude, size)
			}
		}
		batch = append(batch, gen.ApplyRiskProfile(candidate, req.RiskTolerance))
	}
	return batch
}

// generateGlobalBatch samples fresh candidates from the full universe.
func (s *Search) generateGlobalBatch(gen *Generator, req Request, universe, mustInclude []string, maxSize int, targets map[string]sectors.TargetAdjustment) [][]domain.Holding {
	batch := make([][]domain.Holding, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		size := min(maxSize, len(universe))
		var candidate []domain.Holding
		if req.RebalanceSectors && len(targets) > 0 {
			candidate = gen.SectorBiased(universe, mustInclude, size, targets, sectorBiasStrength)
		} else {
			candidate = gen.Random(universe, mustInclude, size)
		}
		batch = append(batch, gen.ApplyRiskProfile(candidate, req.RiskTolerance))
	}
	return batch
}

// evaluateBatch scores candidates. Evaluation is pure, so it fans out over
// the configured worker count; results land at fixed indexes, keeping the
// outcome identical to a single-threaded run.
func (s *Search) evaluateBatch(batch [][]domain.Holding, aligned *store.AlignedSeries) []Candidate {
	out := make([]Candidate, len(batch))

	var wg sync.WaitGroup
	jobs := make(chan int)

	workers := s.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				holdings := batch[i]
				out[i] = Candidate{
					Holdings:    holdings,
					Metrics:     s.engine.Compute(metrics.BuildValueSeries(holdings, aligned), nil),
					SectorScore: sectors.Evaluate(holdings, s.lookup).OverallScore,
				}
			}
		}()
	}
	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// shouldStop applies the per-iteration stop condition.
func (s *Search) shouldStop(pool []Candidate, req Request, rebalancing bool, baselineSharpe float64) bool {
	switch {
	case req.TargetReturn != nil:
		for _, c := range pool {
			if math.Abs(c.Metrics.AnnualizedReturn-*req.TargetReturn) <= targetReturnStopWindow {
				return true
			}
		}
	case rebalancing:
		for _, c := range pool {
			if c.SectorScore >= 100 {
				return true
			}
		}
	default:
		for _, c := range pool {
			if c.Metrics.SharpeRatio > sharpeStopMultiplier*baselineSharpe {
				return true
			}
		}
	}
	return false
}

// selectCandidate applies the selection policy to the working pool.
func (s *Search) selectCandidate(pool []Candidate, req Request, rebalancing bool, baselineSharpe float64) *Candidate {
	if len(pool) == 0 {
		return nil
	}

	// Viability filter: keep candidates that do not give up too much Sharpe
	// versus the baseline, falling back to the best 50 otherwise.
	var viable []Candidate
	for _, c := range pool {
		if c.Metrics.SharpeRatio >= viableSharpeFraction*baselineSharpe {
			viable = append(viable, c)
		}
	}
	if len(viable) == 0 {
		viable = topBySharpe(pool, viableFallbackCount)
	}

	// Conservative selection only considers candidates that actually satisfy
	// the position cap; tiny candidates where the cap is unsatisfiable lose to
	// wider ones from the global batches.
	if req.RiskTolerance == domain.RiskConservative {
		if capped := withinConservativeCap(viable); len(capped) > 0 {
			viable = capped
		} else if capped := withinConservativeCap(pool); len(capped) > 0 {
			viable = capped
		}
	}

	if rebalancing {
		var perfect []Candidate
		for _, c := range viable {
			if c.SectorScore >= 100 {
				perfect = append(perfect, c)
			}
		}
		if len(perfect) > 0 {
			viable = perfect
		} else {
			viable = topByScore(viable, topScoreFraction)
		}
	} else {
		viable = topByScore(viable, topScoreFraction)
	}

	if req.TargetReturn != nil {
		return selectByTargetReturn(viable, *req.TargetReturn)
	}

	return selectByTolerance(viable, req.RiskTolerance)
}

// selectByTargetReturn prefers the lowest-volatility candidate within 2% of
// the target, else the closest by absolute distance.
func selectByTargetReturn(pool []Candidate, target float64) *Candidate {
	var inWindow []Candidate
	for _, c := range pool {
		if math.Abs(c.Metrics.AnnualizedReturn-target) <= targetSelectionWindow {
			inWindow = append(inWindow, c)
		}
	}

	if len(inWindow) > 0 {
		best := inWindow[0]
		for _, c := range inWindow[1:] {
			if c.Metrics.Volatility < best.Metrics.Volatility {
				best = c
			}
		}
		return &best
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if math.Abs(c.Metrics.AnnualizedReturn-target) < math.Abs(best.Metrics.AnnualizedReturn-target) {
			best = c
		}
	}
	return &best
}

// selectByTolerance picks by the risk-tolerance policy: conservative takes
// minimum volatility, aggressive maximum annualized return, moderate maximum
// Sharpe.
func selectByTolerance(pool []Candidate, tolerance domain.RiskTolerance) *Candidate {
	best := pool[0]
	for _, c := range pool[1:] {
		switch tolerance {
		case domain.RiskConservative:
			if c.Metrics.Volatility < best.Metrics.Volatility {
				best = c
			}
		case domain.RiskAggressive:
			if c.Metrics.AnnualizedReturn > best.Metrics.AnnualizedReturn {
				best = c
			}
		default:
			if c.Metrics.SharpeRatio > best.Metrics.SharpeRatio {
				best = c
			}
		}
	}
	return &best
}

// annotateChanges fills each holding's Change relative to the diff baseline.
func annotateChanges(holdings, baseline []domain.Holding) []domain.Holding {
	base := make(map[string]float64, len(baseline))
	for _, h := range baseline {
		base[h.Ticker] = h.Allocation
	}
	for i := range holdings {
		holdings[i].Change = holdings[i].Allocation - base[holdings[i].Ticker]
	}
	return holdings
}

func topBySharpe(pool []Candidate, n int) []Candidate {
	sorted := append([]Candidate(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.SharpeRatio > sorted[j].Metrics.SharpeRatio
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func topByScore(pool []Candidate, fraction float64) []Candidate {
	sorted := append([]Candidate(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SectorScore > sorted[j].SectorScore
	})
	n := int(math.Ceil(float64(len(sorted)) * fraction))
	if n < 1 {
		n = 1
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func withinConservativeCap(pool []Candidate) []Candidate {
	var out []Candidate
	for _, c := range pool {
		ok := true
		for _, h := range c.Holdings {
			if h.Allocation > conservativeCap+capTolerance {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// alignedTickers is the investable universe of one run: the aligned series'
// keys in a stable order.
func alignedTickers(a *store.AlignedSeries) []string {
	out := make([]string, 0, len(a.Closes))
	for t := range a.Closes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// localTickers is the seed's own universe: its tickers plus the must-include
// set.
func localTickers(seed []domain.Holding, mustInclude []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range seed {
		if !seen[h.Ticker] {
			seen[h.Ticker] = true
			out = append(out, h.Ticker)
		}
	}
	for _, t := range mustInclude {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
