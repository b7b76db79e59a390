package sectors

import (
	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
)

const (
	maxAdjustIterations = 20
	minAllocation       = 0.5 // positions below this are dropped after reweighting
	maxNewPerSector     = 2

	aggressivenessHard = 0.9
	aggressivenessSoft = 0.95
)

// Adjuster forces a holdings set into sector-balance compliance by
// iteratively reweighting members and, when an underweight sector has no
// representation, opening new positions from that sector's pool.
type Adjuster struct {
	lookup Lookup
	pools  Pools
	log    zerolog.Logger
}

// NewAdjuster creates a sector adjuster.
func NewAdjuster(lookup Lookup, pools Pools, log zerolog.Logger) *Adjuster {
	return &Adjuster{
		lookup: lookup,
		pools:  pools,
		log:    log.With().Str("component", "sector_adjuster").Logger(),
	}
}

// Rebalance returns a sector-compliant copy of the holdings, or the best
// attempt after 20 iterations. The input slice is never mutated; the result
// is always an independent copy, compliant or not.
func (a *Adjuster) Rebalance(holdings []domain.Holding) []domain.Holding {
	current := domain.CloneHoldings(holdings)

	for iteration := 0; iteration < maxAdjustIterations; iteration++ {
		report := Evaluate(current, a.lookup)
		if report.Compliant() {
			if iteration > 0 {
				a.log.Debug().
					Int("iterations", iteration).
					Float64("score", report.OverallScore).
					Msg("Sector rebalance converged")
			}
			return current
		}

		current = a.applyTargets(current, report)
	}

	a.log.Warn().Int("iterations", maxAdjustIterations).Msg("Sector rebalance hit iteration cap")
	return current
}

// applyTargets performs one adjustment pass: shrink overweight sectors,
// boost underweight ones, open positions in missing sectors, then
// renormalize and drop dust.
func (a *Adjuster) applyTargets(holdings []domain.Holding, report Report) []domain.Holding {
	targets := DeriveTargets(report)
	if len(targets) == 0 {
		return holdings
	}

	aggressiveness := aggressivenessSoft
	if report.HardViolations > 0 {
		aggressiveness = aggressivenessHard
	}

	held := make(map[string]bool, len(holdings))
	sectorHeld := make(map[string]bool)
	for _, h := range holdings {
		held[h.Ticker] = true
		sectorHeld[a.lookup.Sector(h.Ticker)] = true
	}

	next := domain.CloneHoldings(holdings)
	for i := range next {
		sector := a.lookup.Sector(next[i].Ticker)
		adj, ok := targets[sector]
		if !ok || adj.Current <= 0 {
			continue
		}

		if adj.Delta < 0 {
			next[i].Allocation *= adj.Target / adj.Current * aggressiveness
		} else {
			next[i].Allocation *= adj.Target / adj.Current
		}
	}

	// Underweight sectors with no holdings get fresh positions from the
	// sector pool, splitting the needed allocation evenly.
	for sector, adj := range targets {
		if adj.Delta <= 0 || sectorHeld[sector] {
			continue
		}

		var candidates []string
		for _, ticker := range a.pools.TickersBySector(sector) {
			if !held[ticker] {
				candidates = append(candidates, ticker)
			}
			if len(candidates) == maxNewPerSector {
				break
			}
		}
		if len(candidates) == 0 {
			continue
		}

		share := adj.Delta / float64(len(candidates))
		for _, ticker := range candidates {
			next = append(next, domain.Holding{Ticker: ticker, Allocation: share})
			held[ticker] = true
		}
	}

	next = domain.NormalizeHoldings(next)
	next = dropDust(next)
	return domain.NormalizeHoldings(next)
}

// dropDust removes positions below the minimum allocation.
func dropDust(holdings []domain.Holding) []domain.Holding {
	out := holdings[:0]
	for _, h := range holdings {
		if h.Allocation >= minAllocation {
			out = append(out, h)
		}
	}
	return out
}
