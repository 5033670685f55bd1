package batch

import (
	"time"

	"github.com/tsukumogami/ocrbatch/internal/pricing"
	"github.com/tsukumogami/ocrbatch/internal/recognize"
	"github.com/tsukumogami/ocrbatch/internal/report"
)

// Aggregate accumulates totals over the successful items of a run.
type Aggregate struct {
	TotalResponseTime time.Duration
	TotalTokens       int
	InputTokens       int
	OutputTokens      int
	TotalCost         pricing.Breakdown

	Processed int
	Failed    int
	Eligible  int
}

// Add folds one successful result into the totals.
func (a *Aggregate) Add(res *recognize.Result, cost pricing.Breakdown) {
	a.TotalResponseTime += res.ResponseTime
	a.TotalTokens += res.TotalTokens
	a.InputTokens += res.InputTokens
	a.OutputTokens += res.OutputTokens
	a.TotalCost = a.TotalCost.Add(cost)
	a.Processed++
}

// AverageTokens divides by the eligible count, not the processed count,
// so failed items pull the average down. It is 0 for an empty run.
func (a Aggregate) AverageTokens() float64 {
	if a.Eligible == 0 {
		return 0
	}
	return float64(a.TotalTokens) / float64(a.Eligible)
}

// Summary converts the totals into the report's trailing block.
func (a Aggregate) Summary() report.Summary {
	return report.Summary{
		TotalResponseTime: a.TotalResponseTime,
		TotalTokens:       a.TotalTokens,
		AverageTokens:     a.AverageTokens(),
		TotalCost:         a.TotalCost,
	}
}

// Failure records one item that could not be recognized.
type Failure struct {
	Name string
	Err  error
}

// RunResult is the outcome of Orchestrator.Run.
type RunResult struct {
	Aggregate  Aggregate
	ReportPath string
	Failures   []Failure

	// Interrupted is set when the context was cancelled before every
	// eligible file had been attempted. The report is still written.
	Interrupted bool
}
