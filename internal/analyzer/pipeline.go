package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/llm"
	"github.com/veridock/text2api/internal/spec"
)

// State is a step of the analysis pipeline
type State string

const (
	StateRaw               State = "RAW"
	StateDetectingLanguage State = "DETECTING_LANGUAGE"
	StateModelQuery        State = "MODEL_QUERY"
	StateParsed            State = "PARSED"
	StateFallback          State = "FALLBACK"
	StateMerged            State = "MERGED"
	StateValidated         State = "VALIDATED"
	StateReady             State = "READY"
	StateRejected          State = "REJECTED"
)

// Options configures the model call and language detection
type Options struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	DefaultLanguage string
	Threshold       float64
}

// Request is a single analysis request
type Request struct {
	Text string

	// Protocol and Framework are caller overrides; empty means no override
	Protocol  spec.Protocol
	Framework string
}

// Result is the outcome of an analysis. Spec is set only in the READY state.
type Result struct {
	State       State              `json:"state"`
	Transitions []State            `json:"transitions"`
	Spec        *spec.Validated    `json:"specification,omitempty"`
	Candidate   spec.Specification `json:"-"`
	Language    LanguageInfo       `json:"language"`
	ParseMode   ParseMode          `json:"parseMode,omitempty"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
	Attribution map[string]Source  `json:"attribution"`
	Conflicts   []Conflict         `json:"conflicts"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

func (r *Result) diagnose(code DiagnosticCode, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Analyzer runs the analysis pipeline. It is safe for concurrent use if the
// llm.Client is.
type Analyzer struct {
	detector  *LanguageDetector
	prompts   *PromptBuilder
	client    llm.Client
	parser    *ResponseParser
	extractor *PatternExtractor
	merger    *SpecMerger
	opts      Options
	logger    zerolog.Logger
}

// New creates an Analyzer. A nil client disables the model call.
func New(client llm.Client, opts Options, logger zerolog.Logger) (*Analyzer, error) {
	parser, err := NewResponseParser()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = llm.NewNoop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Analyzer{
		detector:  NewLanguageDetector(opts.DefaultLanguage, opts.Threshold),
		prompts:   NewPromptBuilder(),
		client:    client,
		parser:    parser,
		extractor: NewPatternExtractor(),
		merger:    NewSpecMerger(),
		opts:      opts,
		logger:    logger.With().Str("component", "analyzer").Logger(),
	}, nil
}

// Analyze turns text into a validated specification. A failing model never
// fails the analysis; the heuristic result is used instead. Invariant
// violations return the result in the REJECTED state together with a
// *spec.ValidationError. Context cancellation abandons the pipeline.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	logger := a.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = l.With().Str("component", "analyzer").Logger()
	}

	res := &Result{Attribution: map[string]Source{}}
	res.enter(StateRaw)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.enter(StateDetectingLanguage)
	res.Language = a.detector.DetectWithConfidence(req.Text)
	lang := res.Language.Language
	if !res.Language.Supported {
		fallback := a.detector.Default()
		if tableFor(fallback) == nil {
			fallback = "en"
		}
		res.diagnose(DiagLanguageUnsupported, "no extraction tables for %q, using %q", lang, fallback)
		logger.Warn().Str("language", lang).Str("fallback", fallback).Msg("language not supported")
		lang = fallback
	}
	logger.Debug().Str("language", lang).Float64("confidence", res.Language.Confidence).Msg("language detected")

	hints := PromptHints{Protocol: req.Protocol, Domain: a.extractor.Domain(req.Text, lang)}
	if hints.Protocol == "" {
		hints.Protocol, _ = a.extractor.Protocol(req.Text, lang)
	}

	res.enter(StateModelQuery)
	modelPart, err := a.queryModel(ctx, req.Text, lang, hints, res, logger)
	if err != nil {
		return nil, err
	}

	patternPart := a.extractor.Extract(req.Text, lang)
	merged := a.merger.Merge(modelPart, patternPart)
	res.enter(StateMerged)
	res.Attribution = merged.Attribution
	res.Conflicts = merged.Conflicts
	logger.Debug().
		Int("entities", len(merged.Candidate.Entities)).
		Int("conflicts", len(merged.Conflicts)).
		Float64("confidence", merged.Candidate.Confidence).
		Msg("partials merged")

	candidate := merged.Candidate
	candidate.Language = lang
	if req.Protocol != "" {
		candidate.Protocol = req.Protocol
	}
	candidate.Framework = req.Framework
	res.Candidate = candidate

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	validated, err := spec.Validate(candidate)
	res.enter(StateValidated)
	if err != nil {
		res.enter(StateRejected)
		logger.Info().Err(err).Msg("specification rejected")
		return res, err
	}

	res.Spec = validated
	res.enter(StateReady)
	logger.Info().
		Str("protocol", string(validated.Protocol())).
		Strs("entities", validated.EntityNames()).
		Float64("confidence", validated.Confidence()).
		Msg("specification ready")
	return res, nil
}

// queryModel sends the prompt once, bounded by the configured timeout. Any
// model failure moves the pipeline to FALLBACK and returns a nil partial.
func (a *Analyzer) queryModel(ctx context.Context, text, lang string, hints PromptHints, res *Result, logger zerolog.Logger) (*Partial, error) {
	prompt := a.prompts.Build(text, lang, hints)

	qctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	resp, err := a.client.Send(qctx, llm.Request{
		Model:       a.opts.Model,
		Prompt:      prompt,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.diagnose(DiagModelUnavailable, "%v", err)
		if errors.Is(err, llm.ErrDisabled) {
			logger.Debug().Msg("model disabled, using heuristics")
		} else {
			logger.Warn().Err(err).Str("provider", a.client.Name()).Msg("model unavailable, using heuristics")
		}
		res.enter(StateFallback)
		return nil, nil
	}

	parsed := a.parser.Parse(resp.Text)
	res.ParseMode = parsed.Mode
	if parsed.Mode != ParseStructured {
		res.diagnose(DiagParseFailure, "%s", parsed.Problem)
		logger.Warn().Str("mode", string(parsed.Mode)).Str("problem", parsed.Problem).Msg("model output degraded")
	}
	res.enter(StateParsed)
	return parsed.Partial, nil
}
