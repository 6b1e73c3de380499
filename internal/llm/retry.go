package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// DefaultMaxAttempts is the number of attempts made for connection failures
const DefaultMaxAttempts = 3

// WithRetry retries Send on ErrConnectionFailure up to maxAttempts with
// exponential backoff starting at baseDelay. Timeouts and other failures
// are returned immediately.
func WithRetry(next Client, maxAttempts int, baseDelay time.Duration, logger zerolog.Logger) Client {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &retrying{
		next:   next,
		max:    maxAttempts,
		base:   baseDelay,
		logger: logger.With().Str("component", "llm.retry").Logger(),
	}
}

type retrying struct {
	next   Client
	max    int
	base   time.Duration
	logger zerolog.Logger
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Send(ctx context.Context, req Request) (Response, error) {
	var (
		resp    Response
		attempt int
	)

	backoff := retry.WithMaxRetries(uint64(r.max-1), retry.NewExponential(r.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := r.next.Send(ctx, req)
		if err == nil {
			resp = out
			return nil
		}
		if errors.Is(err, ErrConnectionFailure) {
			r.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", r.max).Msg("model request failed")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
