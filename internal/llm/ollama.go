package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultOllamaURL is the local Ollama server address
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient calls the Ollama generate API and asks for JSON output
type OllamaClient struct {
	http    *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewOllamaClient creates a client for the Ollama server at baseURL
func NewOllamaClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "llm.ollama").Logger(),
	}
}

func (o *OllamaClient) Name() string { return ProviderOllama }

type ollamaGenerateReq struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Send posts the prompt to /api/generate
func (o *OllamaClient) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(ollamaGenerateReq{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Format: "json",
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	o.logger.Debug().Str("model", req.Model).Int("bytes", len(req.Prompt)).Msg("sending prompt")

	resp, err := o.http.Do(httpReq)
	if err != nil {
		return Response{}, classify("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, fmt.Errorf("ollama: %w: unexpected status %s", ErrConnectionFailure, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("ollama: %w: status %s: %s", ErrInvalidResponse, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out ollamaGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, classify("ollama", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	if out.Error != "" {
		return Response{}, fmt.Errorf("ollama: %w: %s", ErrInvalidResponse, out.Error)
	}
	if strings.TrimSpace(out.Response) == "" {
		return Response{}, fmt.Errorf("ollama: %w: empty response", ErrInvalidResponse)
	}

	return Response{Text: out.Response}, nil
}
