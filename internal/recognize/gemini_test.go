package recognize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestNewGeminiRecognizer(t *testing.T) {
	ctx := context.Background()

	rec, err := NewGeminiRecognizer(ctx, "test-key", WithModel("gemini-1.5-pro"))
	if err != nil {
		t.Fatalf("NewGeminiRecognizer() error: %v", err)
	}
	defer rec.Close()

	if rec.Name() != "gemini" {
		t.Errorf("Name() = %q, want gemini", rec.Name())
	}
	if rec.Model() != "gemini-1.5-pro" {
		t.Errorf("Model() = %q, want gemini-1.5-pro", rec.Model())
	}

	if _, err := NewGeminiRecognizer(ctx, ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestFromGeminiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []genai.Part{genai.Text("HELLO "), genai.Text("WORLD\n")},
			},
		}},
		UsageMetadata: &genai.UsageMetadata{
			PromptTokenCount:     258,
			CandidatesTokenCount: 4,
		},
	}

	res, err := fromGeminiResponse(resp)
	if err != nil {
		t.Fatalf("fromGeminiResponse() error: %v", err)
	}
	if res.Text != "HELLO WORLD" {
		t.Errorf("Text = %q, want %q", res.Text, "HELLO WORLD")
	}
	if res.InputTokens != 258 || res.OutputTokens != 4 || res.TotalTokens != 262 {
		t.Errorf("tokens = %d/%d/%d, want 258/4/262", res.InputTokens, res.OutputTokens, res.TotalTokens)
	}
}

func TestFromGeminiResponse_NoUsage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("x")}}}},
	}

	res, err := fromGeminiResponse(resp)
	if err != nil {
		t.Fatalf("fromGeminiResponse() error: %v", err)
	}
	if res.Text != "x" {
		t.Errorf("Text = %q, want x", res.Text)
	}
	if res.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d, want 0", res.TotalTokens)
	}
}

func TestFromGeminiResponse_Empty(t *testing.T) {
	if _, err := fromGeminiResponse(nil); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("nil response error = %v, want ErrEmptyResponse", err)
	}
	if _, err := fromGeminiResponse(&genai.GenerateContentResponse{}); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("no candidates error = %v, want ErrEmptyResponse", err)
	}

	blocked := &genai.GenerateContentResponse{
		PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
	}
	_, err := fromGeminiResponse(blocked)
	if !errors.Is(err, ErrEmptyResponse) || !strings.Contains(err.Error(), "blocked") {
		t.Errorf("blocked prompt error = %v, want ErrEmptyResponse mentioning blocked", err)
	}
}
