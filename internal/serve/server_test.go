package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/analyzer"
	"github.com/veridock/text2api/internal/codegen"
	"github.com/veridock/text2api/internal/generate"
	"github.com/veridock/text2api/internal/llm"
	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

const notesText = "Simple note API with title and body"

func newTestServer(t *testing.T) (http.Handler, *testutil.MemFS) {
	t.Helper()
	fsys := testutil.NewMemFS()
	a, err := analyzer.New(llm.NewNoop(), analyzer.Options{DefaultLanguage: "en"}, zerolog.Nop())
	require.NoError(t, err)
	svc := generate.NewService(a, nil, codegen.NewFileWriter(fsys, zerolog.Nop()), zerolog.Nop())
	return NewServer(svc, nil, "out", zerolog.Nop()).Handler(), fsys
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	// Test: health endpoint returns healthy status
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestServer_Frameworks(t *testing.T) {
	// Test: frameworks are grouped by protocol with the default flagged
	h, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/v1/frameworks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string][]frameworkInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, len(spec.Protocols))
	require.NotEmpty(t, response["REST"])
	assert.Equal(t, "nethttp", response["REST"][0].Name)
	assert.True(t, response["REST"][0].Default)
	for _, f := range response["REST"][1:] {
		assert.False(t, f.Default)
	}
}

func TestServer_Generate(t *testing.T) {
	// Test: a generation writes below the server output directory and is listed
	h, fsys := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/generate", GenerateRequest{
		Description: notesText,
		Protocol:    "graphql",
		Project:     "My Notes",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res generate.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, "out/my_notes", res.OutputPath)
	assert.Equal(t, spec.ProtocolGraphQL, res.Protocol)
	assert.Contains(t, fsys.Files(), "out/my_notes/graph/schema.graphqls")

	w = do(t, h, http.MethodGet, "/api/v1/generations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list ListGenerationsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Generations, 1)
	assert.Equal(t, res.RequestID, list.Generations[0].RequestID)
	assert.Equal(t, len(res.Files), list.Generations[0].Files)

	w = do(t, h, http.MethodGet, "/api/v1/generations/"+res.RequestID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/generations/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GenerateErrors(t *testing.T) {
	// Test: bad requests and pipeline failures map to client errors
	tests := []struct {
		name   string
		body   any
		status int
		want   string
	}{
		{"invalid json", "{", http.StatusBadRequest, "invalid request body"},
		{"unknown field", `{"description": "x", "outputDir": "/etc"}`, http.StatusBadRequest, "invalid request body"},
		{"no description", GenerateRequest{}, http.StatusBadRequest, "description is required"},
		{"unknown protocol", GenerateRequest{Description: notesText, Protocol: "soap"}, http.StatusBadRequest, "unknown protocol"},
		{"too short", GenerateRequest{Description: "notes api"}, http.StatusBadRequest, generate.ErrorCodeDescriptionTooShort},
		{"unsupported framework", GenerateRequest{Description: notesText, Framework: "django"}, http.StatusBadRequest, codegen.ErrorCodeUnsupportedCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fsys := newTestServer(t)

			w := do(t, h, http.MethodPost, "/api/v1/generate", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
			assert.Empty(t, fsys.Files())
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	// Test: routes only accept their method
	h, _ := newTestServer(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/generate", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/v1/health", nil).Code)
}

func TestServer_Analyze(t *testing.T) {
	// Test: analyze returns the analysis without writing files
	h, fsys := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/analyze", GenerateRequest{Description: notesText})
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		State string `json:"state"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "READY", res.State)
	assert.Empty(t, fsys.Files())
}

// stubGenerator returns fixed outcomes
type stubGenerator struct {
	analysis *analyzer.Result
	err      error
}

func (s stubGenerator) Analyze(context.Context, string, generate.Options) (*analyzer.Result, error) {
	return s.analysis, s.err
}

func (s stubGenerator) Generate(context.Context, string, generate.Options) (*generate.Result, error) {
	return nil, s.err
}

func TestServer_ErrorStatus(t *testing.T) {
	// Test: pipeline errors map to status codes
	tests := []struct {
		name     string
		analysis *analyzer.Result
		err      error
		status   int
	}{
		{"rejected", &analyzer.Result{State: analyzer.StateRejected}, &spec.ValidationError{}, http.StatusUnprocessableEntity},
		{"cancelled", nil, context.Canceled, http.StatusServiceUnavailable},
		{"io", nil, &codegen.GenerationError{Code: codegen.ErrorCodeIOFailure}, http.StatusInternalServerError},
		{"wrapped", nil, fmt.Errorf("x: %w", generate.ErrDescriptionTooShort), http.StatusBadRequest},
		{"other", nil, errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewServer(stubGenerator{analysis: tt.analysis, err: tt.err}, nil, "out", zerolog.Nop()).Handler()

			w := do(t, h, http.MethodPost, "/api/v1/analyze", GenerateRequest{Description: notesText})
			assert.Equal(t, tt.status, w.Code)
			if tt.analysis != nil {
				assert.Contains(t, w.Body.String(), `"state":"REJECTED"`)
			} else {
				assert.True(t, strings.Contains(w.Body.String(), `"error"`))
			}
		})
	}
}

func TestServer_Start(t *testing.T) {
	// Test: Start returns once the context is cancelled
	s := NewServer(stubGenerator{}, nil, "out", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Start(ctx, "127.0.0.1:0"))
}
