package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

const defaultLLMModel = "gemini-2.5-flash"

type LLM struct {
	client *genai.Client
	model  string
	cfg    genai.ClientConfig
}

type LLMOption func(*LLM)

func WithModel(model string) LLMOption {
	return func(l *LLM) {
		if model != "" {
			l.model = model
		}
	}
}

// WithBaseURL overrides the Gemini API base URL.
func WithBaseURL(u string) LLMOption {
	return func(l *LLM) { l.cfg.HTTPOptions.BaseURL = u }
}

// NewLLM creates a Gemini client. An empty key yields an unconfigured
// client.
func NewLLM(ctx context.Context, apiKey string, opts ...LLMOption) (*LLM, error) {
	l := &LLM{
		model: defaultLLMModel,
		cfg: genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	if apiKey == "" {
		return l, nil
	}

	c, err := genai.NewClient(ctx, &l.cfg)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient failed: %w", err)
	}
	l.client = c

	return l, nil
}

func (l *LLM) Configured() bool {
	return l.client != nil
}

func (l *LLM) Model() string {
	return l.model
}

// Generate sends a single-turn prompt and returns the text of the first
// candidate.
func (l *LLM) Generate(ctx context.Context, prompt string) (string, error) {
	if l.client == nil {
		return "", apierr.Config("gemini api key")
	}

	resp, err := l.client.Models.GenerateContent(ctx, l.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &apierr.Error{Kind: apierr.KindUpstream, Msg: "gemini generate failed", Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &apierr.Error{Kind: apierr.KindUpstream, Msg: "gemini returned no candidates"}
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}

	return strings.TrimSpace(b.String()), nil
}
