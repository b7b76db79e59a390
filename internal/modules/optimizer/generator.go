package optimizer

import (
	"math/rand"

	"github.com/aristath/stock-optimizer/internal/domain"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
)

const (
	// minCandidateAllocation drops sampling dust unless the ticker is
	// must-include.
	minCandidateAllocation = 0.5

	// conservativeCap is the single-position ceiling for conservative
	// portfolios.
	conservativeCap = 30.0

	// aggressiveBoost is the minimum multiple of the equal-weight share the
	// two largest aggressive positions are pushed to.
	aggressiveBoost = 1.5

	// reductionFloor keeps sector-biased reduction from zeroing a weight.
	reductionFloor = 0.1
)

// Generator produces randomized allocation candidates from a ticker
// universe. The RNG is injected so a fixed seed replays the exact candidate
// stream.
type Generator struct {
	rng    *rand.Rand
	lookup sectors.Lookup
}

// NewGenerator creates a candidate generator.
func NewGenerator(rng *rand.Rand, lookup sectors.Lookup) *Generator {
	return &Generator{rng: rng, lookup: lookup}
}

// Random samples an unbiased candidate: a target-size subset of the
// universe, always containing the must-include set, with uniform weights
// normalized to 100.
func (g *Generator) Random(universe, mustInclude []string, size int) []domain.Holding {
	picked := g.pickTickers(universe, mustInclude, size)

	holdings := make([]domain.Holding, 0, len(picked))
	for _, ticker := range picked {
		holdings = append(holdings, domain.Holding{
			Ticker:     ticker,
			Allocation: g.rng.Float64(),
		})
	}
	return domain.NormalizeHoldings(holdings)
}

// SectorBiased samples like Random, then skews each weight by its sector's
// adjustment delta: underweight sectors are boosted, overweight sectors
// reduced. Dust below 0.5% is dropped unless must-include.
func (g *Generator) SectorBiased(universe, mustInclude []string, size int, targets map[string]sectors.TargetAdjustment, strength float64) []domain.Holding {
	picked := g.pickTickers(universe, mustInclude, size)
	must := toSet(mustInclude)

	holdings := make([]domain.Holding, 0, len(picked))
	for _, ticker := range picked {
		weight := g.rng.Float64()

		if adj, ok := targets[g.lookup.Sector(ticker)]; ok {
			scale := adj.Delta
			if scale < 0 {
				scale = -scale
			}
			if adj.Delta > 0 {
				weight *= 1 + scale/100*strength*2
			} else if adj.Delta < 0 {
				factor := 1 - scale/100*strength
				if factor < reductionFloor {
					factor = reductionFloor
				}
				weight *= factor
			}
		}

		holdings = append(holdings, domain.Holding{Ticker: ticker, Allocation: weight})
	}

	holdings = domain.NormalizeHoldings(holdings)

	kept := holdings[:0]
	for _, h := range holdings {
		if h.Allocation >= minCandidateAllocation || must[h.Ticker] {
			kept = append(kept, h)
		}
	}
	return domain.NormalizeHoldings(kept)
}

// Perturb mutates a candidate by shifting each weight up to ±rate of
// itself, then renormalizing. The input is not modified.
func (g *Generator) Perturb(holdings []domain.Holding, rate float64) []domain.Holding {
	mutated := domain.CloneHoldings(holdings)
	for i := range mutated {
		shift := (g.rng.Float64()*2 - 1) * rate * mutated[i].Allocation
		mutated[i].Allocation += shift
		if mutated[i].Allocation < 0 {
			mutated[i].Allocation = 0
		}
	}
	return domain.NormalizeHoldings(mutated)
}

// SwapTicker mutates a candidate by replacing one random holding with an
// unseen ticker from the universe at the average position weight.
func (g *Generator) SwapTicker(holdings []domain.Holding, universe []string) []domain.Holding {
	if len(holdings) == 0 {
		return domain.CloneHoldings(holdings)
	}

	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		held[h.Ticker] = true
	}
	var unseen []string
	for _, ticker := range universe {
		if !held[ticker] {
			unseen = append(unseen, ticker)
		}
	}
	if len(unseen) == 0 {
		return domain.CloneHoldings(holdings)
	}

	mutated := domain.CloneHoldings(holdings)
	out := mutated[:0]
	removeAt := g.rng.Intn(len(mutated))
	for i, h := range mutated {
		if i != removeAt {
			out = append(out, h)
		}
	}

	average := 100.0 / float64(len(holdings))
	out = append(out, domain.Holding{
		Ticker:     unseen[g.rng.Intn(len(unseen))],
		Allocation: average,
	})
	return domain.NormalizeHoldings(out)
}

// ApplyRiskProfile post-processes a candidate for the requested tolerance.
// Conservative portfolios get the 30% single-position cap, aggressive ones
// concentrate the two largest positions, moderate passes through.
func (g *Generator) ApplyRiskProfile(holdings []domain.Holding, tolerance domain.RiskTolerance) []domain.Holding {
	switch tolerance {
	case domain.RiskConservative:
		return capAllocations(domain.CloneHoldings(holdings), conservativeCap)
	case domain.RiskAggressive:
		return boostLargest(domain.CloneHoldings(holdings))
	default:
		return domain.CloneHoldings(holdings)
	}
}

// capAllocations caps every position at limit, redistributing the excess to
// uncapped positions. Repeats until stable; with fewer than four positions
// the cap is unsatisfiable and the last pass wins.
func capAllocations(holdings []domain.Holding, limit float64) []domain.Holding {
	for pass := 0; pass < 10; pass++ {
		var excess float64
		var headroom float64
		for _, h := range holdings {
			if h.Allocation > limit {
				excess += h.Allocation - limit
			} else {
				headroom += limit - h.Allocation
			}
		}
		if excess == 0 || headroom == 0 {
			break
		}

		for i := range holdings {
			if holdings[i].Allocation > limit {
				holdings[i].Allocation = limit
			} else {
				holdings[i].Allocation += excess * (limit - holdings[i].Allocation) / headroom
			}
		}
	}
	return domain.NormalizeHoldings(holdings)
}

// boostLargest pushes the two largest positions to at least 1.5× the
// equal-weight share.
func boostLargest(holdings []domain.Holding) []domain.Holding {
	if len(holdings) < 2 {
		return holdings
	}

	first, second := -1, -1
	for i, h := range holdings {
		if first == -1 || h.Allocation > holdings[first].Allocation {
			second = first
			first = i
		} else if second == -1 || h.Allocation > holdings[second].Allocation {
			second = i
		}
	}

	floor := 100.0 / float64(len(holdings)) * aggressiveBoost
	if holdings[first].Allocation < floor {
		holdings[first].Allocation = floor
	}
	if holdings[second].Allocation < floor {
		holdings[second].Allocation = floor
	}
	return domain.NormalizeHoldings(holdings)
}

// pickTickers returns a size-bounded subset of the universe that always
// contains the must-include set.
func (g *Generator) pickTickers(universe, mustInclude []string, size int) []string {
	must := toSet(mustInclude)

	var rest []string
	for _, ticker := range universe {
		if !must[ticker] {
			rest = append(rest, ticker)
		}
	}
	g.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	picked := append([]string(nil), mustInclude...)
	for _, ticker := range rest {
		if len(picked) >= size {
			break
		}
		picked = append(picked, ticker)
	}
	return picked
}

func toSet(tickers []string) map[string]bool {
	set := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		set[t] = true
	}
	return set
}
