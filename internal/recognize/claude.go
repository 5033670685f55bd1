package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tsukumogami/ocrbatch/internal/httputil"
	"github.com/tsukumogami/ocrbatch/internal/log"
)

// ClaudeModel is the default Claude model for recognition.
const ClaudeModel = "claude-3-5-sonnet-20241022"

// ClaudeRecognizer implements Recognizer using the Anthropic Messages API.
type ClaudeRecognizer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	prompt    string
	opts      *options
	logger    log.Logger
}

// NewClaudeRecognizer creates a recognizer authenticated with apiKey.
// The SDK's built-in retries are disabled: every Recognize call issues
// exactly one request.
func NewClaudeRecognizer(apiKey string, opts ...Option) (*ClaudeRecognizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic API key is empty")
	}

	o := applyOptions(opts)
	if o.model == "" {
		o.model = ClaudeModel
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = httputil.NewSecureClient(httputil.APIClientOptions(o.timeout))
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClient),
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	if o.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(o.timeout))
	}
	if o.userAgent != "" {
		clientOpts = append(clientOpts, option.WithHeader("User-Agent", o.userAgent))
	}

	return &ClaudeRecognizer{
		client:    anthropic.NewClient(clientOpts...),
		model:     anthropic.Model(o.model),
		maxTokens: int64(o.maxTokens),
		prompt:    o.prompt,
		opts:      o,
		logger:    o.logger,
	}, nil
}

// Name returns the provider identifier.
func (r *ClaudeRecognizer) Name() string {
	return "claude"
}

// Model returns the model identifier requests are sent to.
func (r *ClaudeRecognizer) Model() string {
	return string(r.model)
}

// Recognize sends img with the recognition prompt in a single user message.
func (r *ClaudeRecognizer) Recognize(ctx context.Context, img Image) (*Result, error) {
	inline := Encode(img)

	params := anthropic.MessageNewParams{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(inline.MediaType, inline.Data),
				anthropic.NewTextBlock(r.prompt),
			),
		},
	}

	r.logger.Debug("sending recognition request",
		"provider", r.Name(), "model", r.model, "file", img.Name,
		"media_type", inline.MediaType, "bytes", len(img.Data))

	start := r.opts.now()
	resp, err := r.client.Messages.New(ctx, params)
	elapsed := r.opts.now().Sub(start)
	if err != nil {
		return nil, &Error{Op: "recognize", Provider: r.Name(), File: img.Name, Err: err}
	}

	result, err := fromAnthropicMessage(resp)
	if err != nil {
		return nil, &Error{Op: "recognize", Provider: r.Name(), File: img.Name, Err: err}
	}
	result.ResponseTime = elapsed
	return result, nil
}

// fromAnthropicMessage extracts the text blocks and usage from a response.
func fromAnthropicMessage(resp *anthropic.Message) (*Result, error) {
	if resp == nil || len(resp.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	in := int(resp.Usage.InputTokens)
	out := int(resp.Usage.OutputTokens)
	return &Result{
		Text:         strings.TrimSpace(text.String()),
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  in + out,
	}, nil
}
