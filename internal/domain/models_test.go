package domain

import (
	"math"
	"testing"
)

func TestRiskToleranceValid(t *testing.T) {
	tests := []struct {
		tolerance RiskTolerance
		want      bool
	}{
		{RiskConservative, true},
		{RiskModerate, true},
		{RiskAggressive, true},
		{"", false},
		{"yolo", false},
		{"Moderate", false},
	}
	for _, tt := range tests {
		if got := tt.tolerance.Valid(); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.tolerance, got, tt.want)
		}
	}
}

func TestCloneHoldings(t *testing.T) {
	original := []Holding{{Ticker: "AAPL", Allocation: 60}, {Ticker: "JNJ", Allocation: 40}}
	clone := CloneHoldings(original)

	clone[0].Allocation = 1
	if original[0].Allocation != 60 {
		t.Error("Mutating the clone must not affect the original")
	}
}

func TestNormalizeHoldings(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"already normalized", []float64{60, 40}, []float64{60, 40}},
		{"scales up", []float64{30, 20}, []float64{60, 40}},
		{"scales down", []float64{300, 200}, []float64{60, 40}},
		{"zero sum unchanged", []float64{0, 0}, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holdings := make([]Holding, len(tt.in))
			for i, a := range tt.in {
				holdings[i] = Holding{Ticker: "T", Allocation: a}
			}
			out := NormalizeHoldings(holdings)
			for i, want := range tt.want {
				if math.Abs(out[i].Allocation-want) > 1e-9 {
					t.Errorf("position %d: got %f, want %f", i, out[i].Allocation, want)
				}
			}
		})
	}
}
