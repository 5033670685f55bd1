// Package batch runs text recognition over a directory of images and
// produces a single cost report.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/log"
	"github.com/tsukumogami/ocrbatch/internal/pricing"
	"github.com/tsukumogami/ocrbatch/internal/ratelimit"
	"github.com/tsukumogami/ocrbatch/internal/recognize"
	"github.com/tsukumogami/ocrbatch/internal/report"
)

// ReportWriter persists the ordered report entries and returns the path.
type ReportWriter interface {
	Write(entries []string) (string, error)
}

// Observer is notified around each item. Calls happen on the goroutine
// running Run.
type Observer interface {
	Start(index, total int, name string)
	Finish(index, total int, name string, err error)
}

type noopObserver struct{}

func (noopObserver) Start(int, int, string)         {}
func (noopObserver) Finish(int, int, string, error) {}

// Orchestrator processes images strictly one at a time.
type Orchestrator struct {
	rec      recognize.Recognizer
	price    pricing.Pricing
	writer   ReportWriter
	gate     ratelimit.Gate
	ext      string
	logger   log.Logger
	observer Observer
	load     func(path string) (recognize.Image, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Per-item failures are logged at error level.
func WithLogger(l log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGate sets the pause applied after every item.
func WithGate(g ratelimit.Gate) Option {
	return func(o *Orchestrator) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithExtension sets the accepted image extension.
func WithExtension(ext string) Option {
	return func(o *Orchestrator) {
		o.ext = NormalizeExtension(ext)
	}
}

// WithObserver registers a progress observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewOrchestrator creates an orchestrator. Without WithGate items are paced
// by config.DefaultDelay.
func NewOrchestrator(rec recognize.Recognizer, price pricing.Pricing, w ReportWriter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rec:      rec,
		price:    price,
		writer:   w,
		gate:     ratelimit.NewFixedDelay(config.DefaultDelay),
		ext:      DefaultExtension,
		logger:   log.Default(),
		observer: noopObserver{},
		load:     recognize.LoadImage,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run recognizes every eligible file in inputDir in name order and writes
// one report. A failing item is logged and skipped; it never aborts the
// run. Cancelling ctx stops the loop after the in-flight item and the
// partial report is still written.
func (o *Orchestrator) Run(ctx context.Context, inputDir string) (*RunResult, error) {
	tasks, err := Enumerate(inputDir, o.ext)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w in %s (extension %s)", ErrNoEligibleFiles, inputDir, o.ext)
	}

	logger := o.logger.With("provider", o.rec.Name())
	logger.Info("starting batch", "dir", inputDir, "files", len(tasks))

	result := &RunResult{}
	agg := Aggregate{Eligible: len(tasks)}
	entries := make([]string, 0, len(tasks)+1)

	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		o.observer.Start(i+1, len(tasks), task.Name)
		res, cost, err := o.process(ctx, task)
		o.observer.Finish(i+1, len(tasks), task.Name, err)

		if err != nil {
			agg.Failed++
			result.Failures = append(result.Failures, Failure{Name: task.Name, Err: err})
			logger.Error("recognition failed", "file", task.Name, "error", err)
		} else {
			agg.Add(res, cost)
			entries = append(entries, report.FormatEntry(task.Name, res, cost, o.price.Currency))
			logger.Info("recognized",
				"file", task.Name, "tokens", res.TotalTokens,
				"seconds", res.ResponseSeconds(), "cost", cost.String())
		}

		if err := o.gate.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("rate gate failed", "error", err)
		}
	}

	result.Interrupted = agg.Processed+agg.Failed < agg.Eligible
	if result.Interrupted {
		logger.Warn("batch interrupted",
			"attempted", agg.Processed+agg.Failed, "eligible", agg.Eligible)
	}

	entries = append(entries, report.FormatSummary(agg.Summary(), o.price.Currency))

	path, err := o.writer.Write(entries)
	if err != nil {
		var writeErr *report.WriteError
		if !errors.As(err, &writeErr) {
			err = &report.WriteError{Err: err}
		}
		return nil, err
	}

	result.Aggregate = agg
	result.ReportPath = path

	logger.Info("batch complete",
		"processed", agg.Processed, "failed", agg.Failed,
		"tokens", agg.TotalTokens, "report", path)

	return result, nil
}

// process loads and recognizes one file. The call is detached from ctx
// cancellation so an interrupt lets the in-flight request finish; the
// recognizer's own timeout still bounds it.
func (o *Orchestrator) process(ctx context.Context, task ImageTask) (*recognize.Result, pricing.Breakdown, error) {
	img, err := o.load(task.Path)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}

	res, err := o.rec.Recognize(context.WithoutCancel(ctx), img)
	if err != nil {
		return nil, pricing.Breakdown{}, err
	}

	return res, o.price.Cost(res.InputTokens, res.OutputTokens), nil
}
