package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClient_Send(t *testing.T) {
	// Test: prompt, model and options are posted to /api/generate in JSON mode
	var got ollamaGenerateReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaGenerateResp{Response: `{"entities":[]}`, Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", time.Second, zerolog.Nop())
	resp, err := c.Send(context.Background(), Request{Model: "llama3.1:8b", Prompt: "hello", Temperature: 0.1, MaxTokens: 512})
	require.NoError(t, err)

	assert.Equal(t, `{"entities":[]}`, resp.Text)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.1, got.Options.Temperature)
	assert.Equal(t, 512, got.Options.NumPredict)
}

func TestOllamaClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    ErrConnectionFailure,
		},
		{
			name:    "model not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, `{"error":"model not found"}`, http.StatusNotFound) },
			want:    ErrInvalidResponse,
		},
		{
			name:    "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"response":"","done":true}`)) },
			want:    ErrInvalidResponse,
		},
		{
			name: "slow model",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-r.Context().Done():
				}
			},
			timeout: 20 * time.Millisecond,
			want:    ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}
			c := NewOllamaClient(srv.URL, timeout, zerolog.Nop())
			_, err := c.Send(context.Background(), Request{Model: "m", Prompt: "p"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOllamaClient_Unreachable(t *testing.T) {
	// Test: a closed port is reported as a connection failure
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOllamaClient(url, time.Second, zerolog.Nop())
	_, err := c.Send(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrConnectionFailure)
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		errs         []error
		wantErr      error
		wantRequests int
	}{
		{
			name:         "succeeds after connection failures",
			errs:         []error{ErrConnectionFailure, ErrConnectionFailure},
			wantRequests: 3,
		},
		{
			name:         "gives up after max attempts",
			errs:         []error{ErrConnectionFailure, ErrConnectionFailure, ErrConnectionFailure, ErrConnectionFailure},
			wantErr:      ErrConnectionFailure,
			wantRequests: 3,
		},
		{
			name:         "timeout is not retried",
			errs:         []error{ErrTimeout},
			wantErr:      ErrTimeout,
			wantRequests: 1,
		},
		{
			name:         "invalid response is not retried",
			errs:         []error{ErrInvalidResponse},
			wantErr:      ErrInvalidResponse,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &Scripted{Responses: []Response{{Text: "{}"}}, Errors: tt.errs}
			c := WithRetry(fake, 3, time.Millisecond, zerolog.Nop())

			resp, err := c.Send(context.Background(), Request{Prompt: "p"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "{}", resp.Text)
			}
			assert.Len(t, fake.Requests, tt.wantRequests)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	// Test: a canceled context stops retrying
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &Scripted{Errors: []error{ErrConnectionFailure, ErrConnectionFailure, ErrConnectionFailure}}
	c := WithRetry(fake, 3, time.Millisecond, zerolog.Nop())

	_, err := c.Send(ctx, Request{})
	assert.Error(t, err)
	assert.LessOrEqual(t, len(fake.Requests), 1)
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), Options{Provider: "noop"})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDisabled)

	c, err = New(context.Background(), Options{Provider: "OLLAMA", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, c.Name())

	_, err = New(context.Background(), Options{Provider: "openai"})
	assert.Error(t, err)
}
