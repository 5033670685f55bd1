package pricing

import (
	"math"
	"testing"
)

func TestPricing_Cost(t *testing.T) {
	tests := []struct {
		name         string
		inputTokens  int
		outputTokens int
		wantPrimary  float64
	}{
		{name: "zero usage", wantPrimary: 0.0},
		{name: "input only", inputTokens: 1000, wantPrimary: 0.003},
		{name: "output only", outputTokens: 1000, wantPrimary: 0.015},
		{name: "million each", inputTokens: 1_000_000, outputTokens: 1_000_000, wantPrimary: 18.0},
		{name: "typical image", inputTokens: 1600, outputTokens: 20, wantPrimary: 0.0051},
		{name: "negative clamps", inputTokens: -10, outputTokens: -10, wantPrimary: 0.0},
	}

	p := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Cost(tt.inputTokens, tt.outputTokens)
			tolerance := 1e-9
			if math.Abs(got.Primary-tt.wantPrimary) > tolerance {
				t.Errorf("Cost().Primary = %v, want %v", got.Primary, tt.wantPrimary)
			}
		})
	}
}

func TestPricing_SecondaryIsPrimaryTimesRate(t *testing.T) {
	rates := []float64{1, 0.92, 150, 1234.5}
	counts := []int{0, 1, 7, 999, 1000, 123456}

	for _, rate := range rates {
		p := Default()
		p.ExchangeRate = rate
		for _, in := range counts {
			for _, out := range counts {
				got := p.Cost(in, out)
				if math.Abs(got.Secondary-got.Primary*rate) > 1e-9 {
					t.Fatalf("rate %v, in %d, out %d: Secondary %v != Primary*rate %v",
						rate, in, out, got.Secondary, got.Primary*rate)
				}
			}
		}
	}
}

func TestPricing_Deterministic(t *testing.T) {
	p := Default()
	a := p.Cost(4321, 87)
	b := p.Cost(4321, 87)
	if a != b {
		t.Errorf("Cost() not reproducible: %+v != %+v", a, b)
	}
}

func TestPricing_InputCheaperThanOutput(t *testing.T) {
	p := Default()
	if p.Cost(1000, 0).Primary >= p.Cost(0, 1000).Primary {
		t.Error("expected default input rate to be below output rate")
	}
}

func TestPricing_Validate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default pricing invalid: %v", err)
	}

	bad := Pricing{InputPer1K: -1, OutputPer1K: -1, ExchangeRate: 0}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBreakdown_Add(t *testing.T) {
	sum := Breakdown{Primary: 0.001, Secondary: 0.15}.Add(Breakdown{Primary: 0.002, Secondary: 0.30})
	if math.Abs(sum.Primary-0.003) > 1e-12 || math.Abs(sum.Secondary-0.45) > 1e-12 {
		t.Errorf("Add() = %+v", sum)
	}
}

func TestBreakdown_String(t *testing.T) {
	got := Breakdown{Primary: 0.0180}.String()
	if got != "$0.0180" {
		t.Errorf("String() = %q, want %q", got, "$0.0180")
	}
}
