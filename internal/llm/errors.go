package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout is returned when the model does not answer in time
	ErrTimeout = errors.New("llm: request timed out")

	// ErrConnectionFailure is returned when the model endpoint cannot be reached
	// or answers with a server error. It is the only retried failure.
	ErrConnectionFailure = errors.New("llm: connection failure")

	// ErrInvalidResponse is returned when the endpoint answers but the payload
	// cannot be used
	ErrInvalidResponse = errors.New("llm: invalid response")

	// ErrDisabled is returned by the noop client
	ErrDisabled = errors.New("llm: model disabled")
)

// classify maps transport errors onto the package sentinels
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailure) || errors.Is(err, ErrInvalidResponse) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", provider, ErrConnectionFailure, err)
}
