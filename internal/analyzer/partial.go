// Package analyzer turns a free-form description into a validated
// specification. A model answer and a keyword heuristic are combined; the
// heuristic alone is enough when the model is unavailable.
package analyzer

import (
	"github.com/veridock/text2api/internal/spec"
)

// Source names where a piece of a specification came from
type Source string

const (
	SourceModel   Source = "model"
	SourcePattern Source = "pattern"
)

// Partial is a specification fragment produced by one extraction source.
// Names are not yet normalized; references use the names as extracted.
type Partial struct {
	Source     Source
	Confidence float64

	// Protocol is empty when the source saw no protocol signal
	Protocol  spec.Protocol
	Entities  []spec.Entity
	Endpoints []spec.Endpoint
	Auth      *spec.AuthSpec
	Database  *spec.DatabaseSpec

	// Domain is the detected application domain, if any
	Domain string
}

// HasEntities returns true if the partial found at least one entity
func (p *Partial) HasEntities() bool {
	return p != nil && len(p.Entities) > 0
}

// Diagnostic is a recovered analysis-stage problem
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Message string         `json:"message"`
}

// DiagnosticCode identifies a recovered analysis problem
type DiagnosticCode string

const (
	// DiagModelUnavailable means the model call failed and the heuristic path was used
	DiagModelUnavailable DiagnosticCode = "MODEL_UNAVAILABLE"

	// DiagParseFailure means the model answer was not schema-shaped
	DiagParseFailure DiagnosticCode = "PARSE_FAILURE"

	// DiagLanguageUnsupported means the detected language has no extraction
	// tables and the default language was used instead
	DiagLanguageUnsupported DiagnosticCode = "LANGUAGE_UNSUPPORTED"
)
