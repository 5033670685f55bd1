// Package pricing converts token usage into cost in the API's billing
// currency (USD) and a locally displayed secondary currency.
package pricing

import (
	"errors"
	"fmt"
)

// Default prices, in USD per 1000 tokens, and the default exchange rate.
const (
	DefaultInputPer1K   = 0.003 // $3 per 1M input tokens
	DefaultOutputPer1K  = 0.015 // $15 per 1M output tokens
	DefaultExchangeRate = 150.0
	DefaultCurrency     = "JPY"
)

// Pricing holds the per-1000-token rates and the fixed exchange rate used
// for a whole run.
type Pricing struct {
	InputPer1K   float64
	OutputPer1K  float64
	ExchangeRate float64

	// Currency is the secondary currency code shown next to the USD amount.
	Currency string
}

// Breakdown is a cost expressed in both currencies.
type Breakdown struct {
	Primary   float64
	Secondary float64
}

// Default returns the built-in pricing.
func Default() Pricing {
	return Pricing{
		InputPer1K:   DefaultInputPer1K,
		OutputPer1K:  DefaultOutputPer1K,
		ExchangeRate: DefaultExchangeRate,
		Currency:     DefaultCurrency,
	}
}

// Cost returns the cost of a single call. Negative counts are treated as
// zero so the result is never negative.
func (p Pricing) Cost(inputTokens, outputTokens int) Breakdown {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	inputCost := float64(inputTokens) * p.InputPer1K / 1000
	outputCost := float64(outputTokens) * p.OutputPer1K / 1000
	primary := inputCost + outputCost

	return Breakdown{
		Primary:   primary,
		Secondary: primary * p.ExchangeRate,
	}
}

// Validate reports settings that would produce meaningless costs.
func (p Pricing) Validate() error {
	var errs []error
	if p.InputPer1K < 0 {
		errs = append(errs, fmt.Errorf("input price must not be negative, got %v", p.InputPer1K))
	}
	if p.OutputPer1K < 0 {
		errs = append(errs, fmt.Errorf("output price must not be negative, got %v", p.OutputPer1K))
	}
	if p.ExchangeRate <= 0 {
		errs = append(errs, fmt.Errorf("exchange rate must be positive, got %v", p.ExchangeRate))
	}
	if p.Currency == "" {
		errs = append(errs, errors.New("currency code is required"))
	}
	return errors.Join(errs...)
}

// Add returns the sum of two breakdowns.
func (b Breakdown) Add(other Breakdown) Breakdown {
	return Breakdown{
		Primary:   b.Primary + other.Primary,
		Secondary: b.Secondary + other.Secondary,
	}
}

// String formats the breakdown the way the report shows it.
func (b Breakdown) String() string {
	return fmt.Sprintf("$%.4f", b.Primary)
}
