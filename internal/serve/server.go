// Package serve exposes analysis and generation over HTTP
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/analyzer"
	"github.com/veridock/text2api/internal/codegen"
	"github.com/veridock/text2api/internal/generate"
	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// maxBodySize bounds request bodies
const maxBodySize = 1 << 20

// Generator is the pipeline behind the API
type Generator interface {
	Analyze(ctx context.Context, text string, opts generate.Options) (*analyzer.Result, error)
	Generate(ctx context.Context, text string, opts generate.Options) (*generate.Result, error)
}

// Server provides an HTTP API for analysis and generation
type Server interface {
	Start(ctx context.Context, addr string) error
	Handler() http.Handler
}

// server is the internal implementation of Server
type server struct {
	generator Generator
	registry  *codegen.Registry
	outputDir string
	logger    zerolog.Logger

	// Track generated projects
	generations   map[string]*Generation
	generationsMu sync.RWMutex

	// generations share outputDir
	writeMu sync.Mutex

	httpServer *http.Server
}

// Generation records a committed project
type Generation struct {
	RequestID   string        `json:"requestId"`
	OutputPath  string        `json:"outputPath"`
	Protocol    spec.Protocol `json:"protocol"`
	Framework   string        `json:"framework"`
	Files       int           `json:"files"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// GenerateRequest is the body of the analyze and generate endpoints
type GenerateRequest struct {
	Description string `json:"description"`
	Protocol    string `json:"protocol,omitempty"`
	Framework   string `json:"framework,omitempty"`
	Project     string `json:"project,omitempty"`
}

// ListGenerationsResponse represents the list of generated projects
type ListGenerationsResponse struct {
	Generations []*Generation `json:"generations"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server that writes projects below outputDir
func NewServer(generator Generator, registry *codegen.Registry, outputDir string, logger zerolog.Logger) Server {
	if registry == nil {
		registry = codegen.DefaultRegistry
	}
	return &server{
		generator:   generator,
		registry:    registry,
		outputDir:   outputDir,
		logger:      logger.With().Str("component", "api-server").Logger(),
		generations: make(map[string]*Generation),
	}
}

// Handler returns the API routes
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/frameworks", s.handleFrameworks)
	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/v1/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/v1/generations", s.handleListGenerations)
	mux.HandleFunc("GET /api/v1/generations/{id}", s.handleGetGeneration)
	return mux
}

// Start serves on addr until ctx is cancelled
func (s *server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("api server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("api server failed: %w", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type frameworkInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

func (s *server) handleFrameworks(w http.ResponseWriter, r *http.Request) {
	out := map[spec.Protocol][]frameworkInfo{}
	for _, p := range s.registry.Protocols() {
		for i, g := range s.registry.Frameworks(p) {
			out[p] = append(out[p], frameworkInfo{Name: g.Framework(), Description: g.Description(), Default: i == 0})
		}
	}
	s.sendJSON(w, http.StatusOK, out)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.generator.Analyze(r.Context(), req.Description, opts)
	if err != nil && res == nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	s.sendJSON(w, status, res)
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	opts.OutputDir = s.outputDir
	opts.Project = naming.Snake(req.Project)

	s.writeMu.Lock()
	res, err := s.generator.Generate(r.Context(), req.Description, opts)
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Debug().Err(err).Msg("generation request failed")
		if res == nil {
			s.sendError(w, statusFor(err), err.Error())
			return
		}
		s.sendJSON(w, statusFor(err), res)
		return
	}

	s.generationsMu.Lock()
	s.generations[res.RequestID] = &Generation{
		RequestID:   res.RequestID,
		OutputPath:  res.OutputPath,
		Protocol:    res.Protocol,
		Framework:   res.Framework,
		Files:       len(res.Files),
		GeneratedAt: time.Now(),
	}
	s.generationsMu.Unlock()

	s.sendJSON(w, http.StatusOK, res)
}

func (s *server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	s.generationsMu.RLock()
	generations := make([]*Generation, 0, len(s.generations))
	for _, g := range s.generations {
		generations = append(generations, g)
	}
	s.generationsMu.RUnlock()

	sort.Slice(generations, func(i, j int) bool {
		return generations[i].GeneratedAt.Before(generations[j].GeneratedAt)
	})
	s.sendJSON(w, http.StatusOK, &ListGenerationsResponse{Generations: generations})
}

func (s *server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.generationsMu.RLock()
	g, exists := s.generations[id]
	s.generationsMu.RUnlock()

	if !exists {
		s.sendError(w, http.StatusNotFound, "generation not found")
		return
	}
	s.sendJSON(w, http.StatusOK, g)
}

// decodeRequest reads and checks a GenerateRequest. It writes the error
// response itself and returns false when the request is unusable.
func (s *server) decodeRequest(w http.ResponseWriter, r *http.Request) (GenerateRequest, generate.Options, bool) {
	var req GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return req, generate.Options{}, false
	}
	if req.Description == "" {
		s.sendError(w, http.StatusBadRequest, "description is required")
		return req, generate.Options{}, false
	}

	protocol := spec.ParseProtocol(req.Protocol)
	if protocol != "" && !protocol.Valid() {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("unknown protocol %q", req.Protocol))
		return req, generate.Options{}, false
	}
	return req, generate.Options{Protocol: protocol, Framework: req.Framework}, true
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	var (
		verr   *spec.ValidationError
		genErr *codegen.GenerationError
	)
	switch {
	case errors.Is(err, generate.ErrDescriptionTooShort):
		return http.StatusBadRequest
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &genErr) && genErr.Code == codegen.ErrorCodeUnsupportedCombination:
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

// sendError sends an error response
func (s *server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, &ErrorResponse{Error: message})
}
