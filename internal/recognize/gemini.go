package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tsukumogami/ocrbatch/internal/log"
)

// GeminiModel is the default Gemini model for recognition.
const GeminiModel = "gemini-2.0-flash"

// GeminiRecognizer implements Recognizer using the Google AI API.
type GeminiRecognizer struct {
	client *genai.Client
	model  string
	opts   *options
	logger log.Logger
}

// NewGeminiRecognizer creates a recognizer authenticated with apiKey.
// The caller should Close it when done.
func NewGeminiRecognizer(ctx context.Context, apiKey string, opts ...Option) (*GeminiRecognizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("google API key is empty")
	}

	o := applyOptions(opts)
	if o.model == "" {
		o.model = GeminiModel
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.baseURL))
	}
	if o.userAgent != "" {
		clientOpts = append(clientOpts, option.WithUserAgent(o.userAgent))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiRecognizer{
		client: client,
		model:  o.model,
		opts:   o,
		logger: o.logger,
	}, nil
}

// Name returns the provider identifier.
func (r *GeminiRecognizer) Name() string {
	return "gemini"
}

// Model returns the model identifier requests are sent to.
func (r *GeminiRecognizer) Model() string {
	return r.model
}

// Close releases the underlying client.
func (r *GeminiRecognizer) Close() error {
	return r.client.Close()
}

// Recognize sends img followed by the prompt as a single content turn.
func (r *GeminiRecognizer) Recognize(ctx context.Context, img Image) (*Result, error) {
	model := r.client.GenerativeModel(r.model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(r.opts.maxTokens))

	if r.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.timeout)
		defer cancel()
	}

	r.logger.Debug("sending recognition request",
		"provider", r.Name(), "model", r.model, "file", img.Name,
		"media_type", img.MediaType, "bytes", len(img.Data))

	start := r.opts.now()
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: img.MediaType, Data: img.Data},
		genai.Text(r.opts.prompt),
	)
	elapsed := r.opts.now().Sub(start)
	if err != nil {
		return nil, &Error{Op: "recognize", Provider: r.Name(), File: img.Name, Err: err}
	}

	result, err := fromGeminiResponse(resp)
	if err != nil {
		return nil, &Error{Op: "recognize", Provider: r.Name(), File: img.Name, Err: err}
	}
	result.ResponseTime = elapsed
	return result, nil
}

// fromGeminiResponse extracts the first candidate's text and the usage.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	if content := resp.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	result := &Result{Text: strings.TrimSpace(text.String())}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	result.TotalTokens = result.InputTokens + result.OutputTokens
	return result, nil
}
