package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/ocrbatch/internal/batch"
	"github.com/tsukumogami/ocrbatch/internal/buildinfo"
	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/log"
	"github.com/tsukumogami/ocrbatch/internal/pricing"
	"github.com/tsukumogami/ocrbatch/internal/progress"
	"github.com/tsukumogami/ocrbatch/internal/ratelimit"
	"github.com/tsukumogami/ocrbatch/internal/recognize"
	"github.com/tsukumogami/ocrbatch/internal/report"
	"github.com/tsukumogami/ocrbatch/internal/secrets"
	"github.com/tsukumogami/ocrbatch/internal/userconfig"
)

// runOptions holds the run command's flag values.
type runOptions struct {
	provider     string
	model        string
	input        string
	output       string
	ext          string
	compress     string
	delayMS      int64
	burst        int
	exchangeRate float64
	dryRun       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recognize every image in the input directory",
	Long: `Send each image in the input directory to the configured provider, one
at a time, and write a report to the output directory.

Settings are resolved from flags, then OCRBATCH_* environment variables,
then ~/.ocrbatch/config.toml, then built-in defaults.

Credentials:
  claude   ANTHROPIC_API_KEY
  gemini   GOOGLE_API_KEY or GEMINI_API_KEY

Examples:
  ocrbatch run
  ocrbatch run --input scans --ext jpg --delay 2000
  ocrbatch run --provider gemini --compress zstd
  ocrbatch run --delay 1000 --burst 5
  ocrbatch run --dry-run`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := userconfig.Load()
		if err != nil {
			return &config.Error{Setting: "config.toml", Reason: err.Error()}
		}

		s, err := resolveSettings(cmd, &runOpts, file)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		// A second signal falls through to the default handler and kills
		// the process without waiting for the in-flight request.
		go func() {
			<-ctx.Done()
			stop()
		}()

		return runBatch(ctx, s, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	addRunFlags(runCmd, &runOpts)
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	f := cmd.Flags()
	f.StringVar(&o.provider, "provider", "", "Recognition provider (claude, gemini)")
	f.StringVar(&o.model, "model", "", "Model name (default: provider default)")
	f.StringVarP(&o.input, "input", "i", "", "Directory containing the images")
	f.StringVarP(&o.output, "output", "o", "", "Directory the report is written to")
	f.StringVar(&o.ext, "ext", "", "Accepted image extension, case-insensitive (default .png)")
	f.StringVar(&o.compress, "compress", "", "Compress the report (none, zstd, xz, lzip)")
	f.Int64Var(&o.delayMS, "delay", 0, "Pause between images in milliseconds (default 1000)")
	f.IntVar(&o.burst, "burst", 0, "Allow this many back-to-back calls, then one per delay (0 pauses after every image)")
	f.Float64Var(&o.exchangeRate, "exchange-rate", 0, "Secondary currency units per USD (default 150)")
	f.BoolVar(&o.dryRun, "dry-run", false, "List the images that would be processed and exit")
}

// settings is the fully resolved configuration for one run.
type settings struct {
	Provider    string
	Model       string
	InputDir    string
	OutputDir   string
	Extension   string
	Delay       time.Duration
	Burst       int
	MaxTokens   int
	Pricing     pricing.Pricing
	Compression report.Compression
	Timeout     time.Duration
	BaseURL     string
	DryRun      bool
}

// resolveSettings layers flags over environment over the config file.
func resolveSettings(cmd *cobra.Command, o *runOptions, file *userconfig.Config) (*settings, error) {
	s := &settings{
		Provider:  config.GetString(config.EnvProvider, file.Provider),
		Model:     config.GetString(config.EnvModel, file.Model),
		InputDir:  config.GetString(config.EnvInputDir, file.InputDir),
		OutputDir: config.GetString(config.EnvOutputDir, file.OutputDir),
		Extension: file.Extension,
		Delay:     config.GetDelay(config.ClampDelay(time.Duration(file.DelayMS) * time.Millisecond)),
		Burst:     file.Burst,
		MaxTokens: file.MaxTokens,
		Pricing: pricing.Pricing{
			InputPer1K:   file.InputPricePer1K,
			OutputPer1K:  file.OutputPricePer1K,
			ExchangeRate: config.GetExchangeRate(file.ExchangeRate),
			Currency:     file.Currency,
		},
		Timeout: config.GetAPITimeout(),
		BaseURL: config.GetString(config.EnvAPIBaseURL, ""),
		DryRun:  o.dryRun,
	}
	compression := file.Compression

	flags := cmd.Flags()
	if flags.Changed("provider") {
		s.Provider = o.provider
	}
	if flags.Changed("model") {
		s.Model = o.model
	}
	if flags.Changed("input") {
		s.InputDir = o.input
	}
	if flags.Changed("output") {
		s.OutputDir = o.output
	}
	if flags.Changed("ext") {
		s.Extension = o.ext
	}
	if flags.Changed("compress") {
		compression = o.compress
	}
	if flags.Changed("delay") {
		if o.delayMS < 0 {
			return nil, &usageError{err: fmt.Errorf("--delay must not be negative")}
		}
		s.Delay = config.ClampDelay(time.Duration(o.delayMS) * time.Millisecond)
	}
	if flags.Changed("burst") {
		if o.burst < 0 {
			return nil, &usageError{err: fmt.Errorf("--burst must not be negative")}
		}
		s.Burst = o.burst
	}
	if flags.Changed("exchange-rate") {
		if o.exchangeRate <= 0 {
			return nil, &usageError{err: fmt.Errorf("--exchange-rate must be positive")}
		}
		s.Pricing.ExchangeRate = o.exchangeRate
	}

	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	s.Extension = batch.NormalizeExtension(s.Extension)
	if s.MaxTokens <= 0 {
		s.MaxTokens = recognize.DefaultMaxTokens
	}
	if s.Pricing.Currency == "" {
		s.Pricing.Currency = pricing.DefaultCurrency
	}

	if !isKnownProvider(s.Provider) {
		return nil, &config.Error{
			Setting: "provider",
			Reason:  fmt.Sprintf("unknown provider %q (supported: %s)", s.Provider, strings.Join(recognize.Providers, ", ")),
		}
	}
	if s.InputDir == "" {
		return nil, &config.Error{Setting: "input_dir", Reason: "must not be empty"}
	}
	if s.OutputDir == "" {
		return nil, &config.Error{Setting: "output_dir", Reason: "must not be empty"}
	}

	c, err := report.ParseCompression(compression)
	if err != nil {
		return nil, &config.Error{Setting: "compression", Reason: err.Error()}
	}
	s.Compression = c

	if err := s.Pricing.Validate(); err != nil {
		return nil, &config.Error{Setting: "pricing", Reason: err.Error()}
	}

	return s, nil
}

func isKnownProvider(name string) bool {
	for _, p := range recognize.Providers {
		if p == name {
			return true
		}
	}
	return false
}

// runBatch executes one run with resolved settings.
func runBatch(ctx context.Context, s *settings, stdout, stderr io.Writer) error {
	logger := log.Default()

	if s.DryRun {
		return listEligible(s, stdout)
	}

	apiKey, err := secrets.ForProvider(s.Provider)
	if err != nil {
		return err
	}

	if s.Pricing.InputPer1K > s.Pricing.OutputPer1K {
		logger.Warn("input token price is higher than output token price",
			"input_per_1k", s.Pricing.InputPer1K, "output_per_1k", s.Pricing.OutputPer1K)
	}

	rec, err := recognize.New(ctx, s.Provider, apiKey,
		recognize.WithModel(s.Model),
		recognize.WithMaxTokens(s.MaxTokens),
		recognize.WithTimeout(s.Timeout),
		recognize.WithBaseURL(s.BaseURL),
		recognize.WithUserAgent(buildinfo.UserAgent()),
		recognize.WithLogger(logger),
	)
	if err != nil {
		return &config.Error{Setting: "provider", Reason: err.Error()}
	}
	if c, ok := rec.(io.Closer); ok {
		defer c.Close()
	}

	tracker := progress.NewTracker(stderr)
	defer tracker.Stop()

	orch := batch.NewOrchestrator(rec, s.Pricing, report.NewWriter(s.OutputDir, s.Compression),
		batch.WithLogger(logger),
		batch.WithGate(newGate(s.Delay, s.Burst)),
		batch.WithExtension(s.Extension),
		batch.WithObserver(tracker),
	)

	res, err := orch.Run(ctx, s.InputDir)
	tracker.Stop()
	if err != nil {
		return err
	}

	printRunSummary(stdout, res, s.Pricing.Currency)

	if res.Interrupted {
		return errInterrupted
	}
	return nil
}

// newGate picks the pacing policy. A burst switches from a pause after
// every image to a token bucket refilled once per delay.
func newGate(delay time.Duration, burst int) ratelimit.Gate {
	switch {
	case delay <= 0:
		return ratelimit.Unlimited{}
	case burst > 0:
		return ratelimit.NewTokenBucket(delay, burst)
	default:
		return ratelimit.NewFixedDelay(delay)
	}
}

func listEligible(s *settings, w io.Writer) error {
	tasks, err := batch.Enumerate(s.InputDir, s.Extension)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w in %s (extension %s)", batch.ErrNoEligibleFiles, s.InputDir, s.Extension)
	}

	fmt.Fprintf(w, "Would process %d image(s) from %s with %s:\n", len(tasks), s.InputDir, s.Provider)
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s\n", t.Name)
	}
	return nil
}

func printRunSummary(w io.Writer, res *batch.RunResult, currency string) {
	agg := res.Aggregate
	fmt.Fprintf(w, "Processed %d of %d image(s)", agg.Processed, agg.Eligible)
	if agg.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", agg.Failed)
	}
	if res.Interrupted {
		fmt.Fprint(w, ", interrupted")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total tokens: %d\n", agg.TotalTokens)
	fmt.Fprintf(w, "Total cost: %s (%.2f %s)\n", agg.TotalCost, agg.TotalCost.Secondary, currency)
	fmt.Fprintf(w, "Report: %s\n", res.ReportPath)

	for _, f := range res.Failures {
		fmt.Fprintf(w, "  failed: %s: %v\n", f.Name, f.Err)
	}
}
