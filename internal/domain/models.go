package domain

import (
	"strings"
	"time"
)

// RiskTolerance describes the investor profile used by the optimizer's
// selection and post-processing policies.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskModerate     RiskTolerance = "moderate"
	RiskAggressive   RiskTolerance = "aggressive"
)

// Valid reports whether the tolerance is one of the known profiles.
func (r RiskTolerance) Valid() bool {
	switch r {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

// Holding is a single position in a portfolio, expressed as a percentage
// allocation. Allocations across a holdings set sum to 100 after
// normalization.
type Holding struct {
	Ticker     string  `json:"ticker"`
	Allocation float64 `json:"allocation"`
	Change     float64 `json:"change,omitempty"` // delta vs baseline, set by the optimizer
}

// Security represents an instrument known to the metadata store.
type Security struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// PricePoint is a single adjusted-close observation.
type PricePoint struct {
	Date          time.Time `json:"date"`
	AdjustedClose float64   `json:"adjusted_close"`
}

// PriceSeries is a date-ascending sequence of adjusted closes for one ticker.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// ValuePoint is one observation of total portfolio value.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// NormalizeTicker canonicalizes a ticker symbol. The price store keys
// everything by this form; request holdings must pass through it before any
// series lookup.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// CloneHoldings returns an independent copy of a holdings set. Candidates and
// adjustment iterations always work on their own copy, never on the caller's
// slice.
func CloneHoldings(holdings []Holding) []Holding {
	out := make([]Holding, len(holdings))
	copy(out, holdings)
	return out
}

// NormalizeHoldings scales allocations in place so they sum to 100. A
// zero-sum input is returned unchanged.
func NormalizeHoldings(holdings []Holding) []Holding {
	var total float64
	for _, h := range holdings {
		total += h.Allocation
	}
	if total == 0 {
		return holdings
	}
	for i := range holdings {
		holdings[i].Allocation = holdings[i].Allocation / total * 100
	}
	return holdings
}
