package sectors

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/stock-optimizer/internal/domain"
)

// Rule thresholds. These are product heuristics carried over verbatim; tune
// them here, not at call sites.
const (
	maxSectorHard = 40.0
	maxSectorSoft = 30.0

	correlatedGroupHard = 60.0
	correlatedGroupSoft = 50.0

	defensiveMinHard = 5.0
	defensiveMinSoft = 10.0

	reitCapHard = 20.0
	reitCapSoft = 15.0

	energyMaterialsHard     = 25.0
	energyMaterialsSoft     = 20.0
	energyMaterialsAdvisory = 15.0

	penaltyHard     = 30.0
	penaltySoft     = 15.0
	penaltyAdvisory = 5.0
)

// correlatedPairs is the fixed undirected adjacency of historically
// correlated sectors used by rule 2.
var correlatedPairs = [][2]string{
	{"Information Technology", "Communication Services"},
	{"Energy", "Materials"},
	{"Consumer Staples", "Health Care"},
	{"Industrials", "Financials"},
	{"Consumer Discretionary", "Communication Services"},
}

// defensiveSectors are the sectors counted toward the rule 3 minimum.
var defensiveSectors = []string{"Consumer Staples", "Health Care", "Utilities"}

// SectorWeights aggregates holdings by sector and normalizes the sums to
// 100.
func SectorWeights(holdings []domain.Holding, lookup Lookup) map[string]float64 {
	weights := make(map[string]float64)
	var total float64
	for _, h := range holdings {
		weights[lookup.Sector(h.Ticker)] += h.Allocation
		total += h.Allocation
	}
	if total == 0 {
		return weights
	}
	for sector := range weights {
		weights[sector] = weights[sector] / total * 100
	}
	return weights
}

// Evaluate scores a holdings set against the five concentration rules.
// Deterministic and side-effect free: identical holdings always produce an
// identical report.
func Evaluate(holdings []domain.Holding, lookup Lookup) Report {
	weights := SectorWeights(holdings, lookup)

	report := Report{SectorWeights: weights}
	report.Checks = append(report.Checks, checkMaxSector(weights))
	report.Checks = append(report.Checks, checkCorrelatedGroups(weights)...)
	report.Checks = append(report.Checks, checkDefensiveMinimum(weights))
	report.Checks = append(report.Checks, checkREITCeiling(weights))
	report.Checks = append(report.Checks, checkEnergyMaterials(weights))

	for _, c := range report.Checks {
		switch c.Status {
		case StatusHardViolation:
			report.HardViolations++
		case StatusSoftWarning:
			report.SoftWarnings++
		case StatusAdvisory:
			report.Advisories++
		}
	}

	score := 100 -
		penaltyHard*float64(report.HardViolations) -
		penaltySoft*float64(report.SoftWarnings) -
		penaltyAdvisory*float64(report.Advisories)
	report.OverallScore = math.Max(0, score)

	return report
}

// checkMaxSector enforces rule 1: no single sector above 40% (30% warns).
func checkMaxSector(weights map[string]float64) Check {
	var maxSector string
	var maxWeight float64
	for _, sector := range sortedSectors(weights) {
		if w := weights[sector]; w > maxWeight {
			maxSector = sector
			maxWeight = w
		}
	}

	status := StatusOK
	switch {
	case maxWeight > maxSectorHard:
		status = StatusHardViolation
	case maxWeight > maxSectorSoft:
		status = StatusSoftWarning
	}

	return Check{
		Rule:    1,
		Status:  status,
		Value:   maxWeight,
		Sector:  maxSector,
		Message: fmt.Sprintf("Largest sector %q holds %.2f%%", maxSector, maxWeight),
	}
}

// checkCorrelatedGroups enforces rule 2: connected components of the fixed
// correlation graph, restricted to sectors actually held, must stay below
// 60% (50% warns). Only failing components produce a check.
func checkCorrelatedGroups(weights map[string]float64) []Check {
	adjacency := make(map[string][]string)
	for _, pair := range correlatedPairs {
		a, b := pair[0], pair[1]
		if weights[a] <= 0 || weights[b] <= 0 {
			continue
		}
		adjacency[a] = append(adjacency[a], b)
		adjacency[b] = append(adjacency[b], a)
	}

	visited := make(map[string]bool)
	var checks []Check

	for _, start := range sortedSectors(weights) {
		if visited[start] || len(adjacency[start]) == 0 {
			continue
		}

		// Depth-first traversal of one component.
		var component []string
		stack := []string{start}
		visited[start] = true
		for len(stack) > 0 {
			sector := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, sector)
			for _, next := range adjacency[sector] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}

		if len(component) < 2 {
			continue
		}
		sort.Strings(component)

		var sum float64
		for _, sector := range component {
			sum += weights[sector]
		}

		status := StatusOK
		switch {
		case sum > correlatedGroupHard:
			status = StatusHardViolation
		case sum > correlatedGroupSoft:
			status = StatusSoftWarning
		}
		if status == StatusOK {
			continue
		}

		checks = append(checks, Check{
			Rule:    2,
			Status:  status,
			Value:   sum,
			Members: component,
			Message: fmt.Sprintf("Correlated sectors %s hold %.2f%% combined", strings.Join(component, " + "), sum),
		})
	}

	return checks
}

// checkDefensiveMinimum enforces rule 3: defensive sectors must carry at
// least 5% (10% warns).
func checkDefensiveMinimum(weights map[string]float64) Check {
	var sum float64
	for _, sector := range defensiveSectors {
		sum += weights[sector]
	}

	status := StatusOK
	switch {
	case sum < defensiveMinHard:
		status = StatusHardViolation
	case sum < defensiveMinSoft:
		status = StatusSoftWarning
	}

	return Check{
		Rule:    3,
		Status:  status,
		Value:   sum,
		Members: append([]string(nil), defensiveSectors...),
		Message: fmt.Sprintf("Defensive sectors hold %.2f%% combined", sum),
	}
}

// checkREITCeiling enforces rule 4: real-estate exposure capped at 20% (15%
// warns). Matches any sector containing "Real Estate".
func checkREITCeiling(weights map[string]float64) Check {
	var sum float64
	var members []string
	for _, sector := range sortedSectors(weights) {
		if strings.Contains(sector, "Real Estate") {
			sum += weights[sector]
			members = append(members, sector)
		}
	}

	status := StatusOK
	switch {
	case sum > reitCapHard:
		status = StatusHardViolation
	case sum > reitCapSoft:
		status = StatusSoftWarning
	}

	return Check{
		Rule:    4,
		Status:  status,
		Value:   sum,
		Members: members,
		Message: fmt.Sprintf("REIT exposure is %.2f%%", sum),
	}
}

// checkEnergyMaterials enforces rule 5: Energy plus Materials capped at 25%
// (20% warns, 15% advises).
func checkEnergyMaterials(weights map[string]float64) Check {
	sum := weights["Energy"] + weights["Materials"]

	status := StatusOK
	switch {
	case sum > energyMaterialsHard:
		status = StatusHardViolation
	case sum > energyMaterialsSoft:
		status = StatusSoftWarning
	case sum > energyMaterialsAdvisory:
		status = StatusAdvisory
	}

	return Check{
		Rule:    5,
		Status:  status,
		Value:   sum,
		Members: []string{"Energy", "Materials"},
		Message: fmt.Sprintf("Energy + Materials hold %.2f%% combined", sum),
	}
}

// sortedSectors returns map keys in a stable order so reports and traversals
// are reproducible.
func sortedSectors(weights map[string]float64) []string {
	sectors := make([]string, 0, len(weights))
	for sector := range weights {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	return sectors
}
