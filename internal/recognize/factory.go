package recognize

import (
	"context"
	"fmt"
	"strings"
)

// Providers lists the supported provider names.
var Providers = []string{"claude", "gemini"}

// New creates the recognizer for provider. Provider names are
// case-insensitive.
func New(ctx context.Context, provider, apiKey string, opts ...Option) (Recognizer, error) {
	switch strings.ToLower(provider) {
	case "claude":
		return NewClaudeRecognizer(apiKey, opts...)
	case "gemini":
		return NewGeminiRecognizer(ctx, apiKey, opts...)
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(Providers, ", "))
	}
}
