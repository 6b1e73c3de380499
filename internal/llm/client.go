// Package llm is the boundary to the remote language model used during
// analysis. Every provider speaks the same Send contract and reports failures
// as ErrTimeout or ErrConnectionFailure so the analyzer can fall back.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Request is a single prompt sent to a model
type Request struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Response holds the raw model output
type Response struct {
	Text string
}

// Client sends prompts to a language model
type Client interface {
	// Name identifies the provider in logs
	Name() string

	// Send blocks until the model answers, the context ends or the request fails
	Send(ctx context.Context, req Request) (Response, error)
}

// Provider names accepted by New
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNoop   = "noop"
)

// Options configures the client returned by New
type Options struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Logger      zerolog.Logger
}

// New builds the client for a provider and wraps it with retries on
// connection failures
func New(ctx context.Context, opts Options) (Client, error) {
	var (
		c   Client
		err error
	)

	switch strings.ToLower(opts.Provider) {
	case "", ProviderOllama:
		c = NewOllamaClient(opts.BaseURL, opts.Timeout, opts.Logger)
	case ProviderGemini:
		c, err = NewGeminiClient(ctx, opts.APIKey, opts.Logger)
		if err != nil {
			return nil, err
		}
	case ProviderNoop:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}

	return WithRetry(c, opts.MaxAttempts, opts.Backoff, opts.Logger), nil
}
