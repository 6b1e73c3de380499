package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client
type GeminiClient struct {
	cli    *genai.Client
	logger zerolog.Logger
}

// NewGeminiClient creates a Gemini API client. An empty apiKey lets genai
// read GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, apiKey string, logger zerolog.Logger) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		cli:    cli,
		logger: logger.With().Str("component", "llm.gemini").Logger(),
	}, nil
}

func (g *GeminiClient) Name() string { return ProviderGemini }

// Send requests application/json content for the prompt
func (g *GeminiClient) Send(ctx context.Context, req Request) (Response, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	g.logger.Debug().Str("model", req.Model).Int("bytes", len(req.Prompt)).Msg("sending prompt")

	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return Response{}, classify("gemini", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("gemini: %w: no candidates", ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return Response{}, fmt.Errorf("gemini: %w: empty response", ErrInvalidResponse)
	}

	return Response{Text: sb.String()}, nil
}
