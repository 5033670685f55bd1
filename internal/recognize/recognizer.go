// Package recognize extracts text from a single image by calling a
// vision-capable language model.
//
// Each call is independent: one image in, one outbound request, one Result
// out. Recognizers never retry; pacing and failure policy belong to the
// caller.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/log"
)

// Recognizer turns an image into text plus usage metadata.
type Recognizer interface {
	// Name returns the provider identifier (e.g., "claude", "gemini").
	Name() string

	// Recognize sends one request for img. Failures are returned as *Error.
	Recognize(ctx context.Context, img Image) (*Result, error)
}

// Result is the outcome of one successful recognition call.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int

	// ResponseTime is the wall time of the outbound call.
	ResponseTime time.Duration
}

// ResponseSeconds returns ResponseTime in seconds.
func (r *Result) ResponseSeconds() float64 {
	return r.ResponseTime.Seconds()
}

// Request defaults. Extracted text is assumed to be short, so the output
// budget is small.
const (
	DefaultMaxTokens = 300
	DefaultPrompt    = "Transcribe the text in this image. Reply with the text only."
)

var (
	// ErrEmptyResponse is returned when the provider answers without any
	// candidate content.
	ErrEmptyResponse = errors.New("provider returned no content")

	// ErrEmptyImage is returned for zero-byte files.
	ErrEmptyImage = errors.New("image file is empty")

	// ErrUnsupportedImage is returned when the file is not an image format
	// the providers accept.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Error describes a failure to recognize one image. Op is "read" when the
// file could not be loaded and "recognize" when the remote call failed.
type Error struct {
	Op       string
	Provider string
	File     string
	Err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.File, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type options struct {
	model      string
	maxTokens  int
	prompt     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	now        func() time.Time
	logger     log.Logger
}

// Option configures a recognizer.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		maxTokens: DefaultMaxTokens,
		prompt:    DefaultPrompt,
		now:       time.Now,
		logger:    log.Default(),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithMaxTokens bounds the response length. Values above
// config.MaxOutputTokens are clamped.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = min(n, config.MaxOutputTokens)
		}
	}
}

// WithPrompt replaces the instruction sent alongside the image.
func WithPrompt(prompt string) Option {
	return func(o *options) {
		if prompt != "" {
			o.prompt = prompt
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for Claude requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout sets a per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header on outbound requests.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithClock replaces the clock used to measure response time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
