// Package generate is the end-to-end entry point: it analyzes a description
// and generates the project for the resulting specification.
package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/analyzer"
	"github.com/veridock/text2api/internal/codegen"
	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// Options are the caller overrides of one request
type Options struct {
	// Protocol and Framework override the analysis; empty means no override
	Protocol  spec.Protocol
	Framework string

	// OutputDir is the parent directory of the project directory
	OutputDir string

	// Project names the project directory and module; empty derives it from
	// the description
	Project string
}

// Result is the outcome of a request. Errors and Warnings hold one line per
// problem, prefixed with its code where there is one.
type Result struct {
	RequestID  string           `json:"requestId"`
	Success    bool             `json:"success"`
	OutputPath string           `json:"outputPath,omitempty"`
	Protocol   spec.Protocol    `json:"protocol,omitempty"`
	Framework  string           `json:"framework,omitempty"`
	Files      []string         `json:"files,omitempty"`
	Errors     []string         `json:"errors"`
	Warnings   []string         `json:"warnings"`
	Analysis   *analyzer.Result `json:"analysis,omitempty"`
	Spec       *spec.Validated  `json:"-"`
}

func (r *Result) fail(code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if code != "" {
		msg = code + ": " + msg
	}
	r.Errors = append(r.Errors, msg)
}

// Analyzer is the analysis pipeline the service drives
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*analyzer.Result, error)
}

// Service runs analysis and generation for one request at a time per output
// directory
type Service struct {
	analyzer Analyzer
	registry *codegen.Registry
	writer   *codegen.FileWriter
	logger   zerolog.Logger
}

// NewService creates a Service. A nil registry selects the built-in
// generators and a nil writer writes to the local disk.
func NewService(a Analyzer, registry *codegen.Registry, writer *codegen.FileWriter, logger zerolog.Logger) *Service {
	if registry == nil {
		registry = codegen.DefaultRegistry
	}
	if writer == nil {
		writer = codegen.NewFileWriter(nil, logger)
	}
	return &Service{
		analyzer: a,
		registry: registry,
		writer:   writer,
		logger:   logger.With().Str("component", "generate").Logger(),
	}
}

// Analyze runs the analysis pipeline only. The result is non-nil whenever the
// pipeline ran, including REJECTED specifications.
func (s *Service) Analyze(ctx context.Context, text string, opts Options) (*analyzer.Result, error) {
	if n := len(strings.Fields(text)); n < MinWords {
		return nil, fmt.Errorf("%w: %d words, need at least %d", ErrDescriptionTooShort, n, MinWords)
	}
	return s.analyzer.Analyze(ctx, analyzer.Request{
		Text:      text,
		Protocol:  opts.Protocol,
		Framework: opts.Framework,
	})
}

// Generate analyzes text and writes the project to
// OutputDir/<project>. The returned error is non-nil whenever Success is
// false; it is the context error when the request was cancelled.
func (s *Service) Generate(ctx context.Context, text string, opts Options) (*Result, error) {
	res, ctx := s.begin(ctx)
	logger := zerolog.Ctx(ctx)

	analysis, err := s.Analyze(ctx, text, opts)
	if analysis != nil {
		res.Analysis = analysis
		for _, d := range analysis.Diagnostics {
			res.Warnings = append(res.Warnings, string(d.Code)+": "+d.Message)
		}
	}
	if err != nil {
		return s.failed(ctx, res, err)
	}
	logger.Debug().Strs("transitions", states(analysis.Transitions)).Msg("analysis finished")

	if opts.Project == "" {
		opts.Project = naming.ProjectName(text)
	}
	return s.emit(ctx, res, analysis.Spec, opts)
}

// Regenerate loads a specification snapshot and generates it again, usually
// with another framework, without calling the analysis
func (s *Service) Regenerate(ctx context.Context, snapshotPath string, opts Options) (*Result, error) {
	res, ctx := s.begin(ctx)

	data, err := s.writer.ReadFile(snapshotPath)
	if err != nil {
		return s.failed(ctx, res, fmt.Errorf("failed to read snapshot: %w", err))
	}
	v, err := spec.UnmarshalSnapshot(data)
	if err != nil {
		return s.failed(ctx, res, err)
	}
	if opts.Protocol != "" && opts.Protocol != v.Protocol() {
		return s.failed(ctx, res, fmt.Errorf("snapshot is a %s specification, not %s", v.Protocol(), opts.Protocol))
	}
	if opts.Framework != "" {
		v = v.WithFramework(opts.Framework)
	}
	if opts.Project == "" {
		opts.Project = filepath.Base(filepath.Dir(snapshotPath))
	}
	return s.emit(ctx, res, v, opts)
}

func (s *Service) begin(ctx context.Context) (*Result, context.Context) {
	res := &Result{RequestID: uuid.NewString(), Errors: []string{}, Warnings: []string{}}
	logger := s.logger.With().Str("request_id", res.RequestID).Logger()
	return res, logger.WithContext(ctx)
}

func (s *Service) emit(ctx context.Context, res *Result, v *spec.Validated, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	res.Spec = v

	project := naming.Snake(opts.Project)
	if project == "" {
		project = "generated_api"
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "."
	}
	outDir = filepath.Join(outDir, project)

	out, err := codegen.Generate(ctx, s.registry, v, codegen.Options{OutputDir: outDir, Project: project}, s.writer)
	if err != nil {
		return s.failed(ctx, res, err)
	}

	res.Success = true
	res.OutputPath = out.Dir
	res.Protocol = out.Protocol
	res.Framework = out.Framework
	res.Files = out.Files
	res.Warnings = append(res.Warnings, out.Warnings...)
	logger.Info().
		Str("protocol", string(out.Protocol)).
		Str("framework", out.Framework).
		Str("dir", out.Dir).
		Int("files", len(out.Files)).
		Msg("project generated")
	return res, nil
}

// failed records err in the result. Validation errors are split into one
// line per violation.
func (s *Service) failed(ctx context.Context, res *Result, err error) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	var (
		verr   *spec.ValidationError
		genErr *codegen.GenerationError
	)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.fail("", "request cancelled: %v", err)
	case errors.Is(err, ErrDescriptionTooShort):
		res.fail(ErrorCodeDescriptionTooShort, "%v", err)
	case errors.As(err, &verr):
		for _, v := range verr.Violations {
			res.Errors = append(res.Errors, v.String())
		}
	case errors.As(err, &genErr):
		res.fail("", "%s", genErr.Error())
	default:
		res.fail("", "%v", err)
	}
	logger.Warn().Err(err).Msg("request failed")
	return res, err
}

func states(in []analyzer.State) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
