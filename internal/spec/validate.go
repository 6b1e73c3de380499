package spec

import (
	"fmt"
	"math"
	"strings"

	"github.com/veridock/text2api/internal/naming"
)

// DefaultLanguage is used when a candidate carries no language code
const DefaultLanguage = "en"

// Validated is a specification that passed validation. It cannot be modified
// through its API: Specification returns a deep copy.
type Validated struct {
	spec Specification
}

// Specification returns a deep copy of the validated specification
func (v *Validated) Specification() Specification {
	return v.spec.Clone()
}

// Protocol returns the protocol of the specification
func (v *Validated) Protocol() Protocol { return v.spec.Protocol }

// Framework returns the framework identifier of the specification
func (v *Validated) Framework() string { return v.spec.Framework }

// Language returns the language code of the specification
func (v *Validated) Language() string { return v.spec.Language }

// Confidence returns the combined extraction confidence
func (v *Validated) Confidence() float64 { return v.spec.Confidence }

// EntityNames returns entity names in discovery order
func (v *Validated) EntityNames() []string {
	names := make([]string, len(v.spec.Entities))
	for i, e := range v.spec.Entities {
		names[i] = e.Name
	}
	return names
}

// WithFramework returns a copy bound to another framework of the same
// protocol. Framework choice does not touch any invariant.
func (v *Validated) WithFramework(framework string) *Validated {
	s := v.spec.Clone()
	s.Framework = strings.ToLower(strings.TrimSpace(framework))
	return &Validated{spec: s}
}

// Validate normalizes a candidate specification and checks every invariant.
// All violations are collected; the returned error is a *ValidationError.
func Validate(candidate Specification) (*Validated, error) {
	s := candidate.Clone()
	var violations []Violation
	add := func(code ViolationCode, path, format string, args ...any) {
		violations = append(violations, Violation{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	s.Protocol = Protocol(strings.ToUpper(strings.TrimSpace(string(s.Protocol))))
	if !s.Protocol.Valid() {
		add(CodeInvalidProtocol, "protocol", "unsupported protocol %q", s.Protocol)
	}
	s.Framework = strings.ToLower(strings.TrimSpace(s.Framework))
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		add(CodeConfidenceOutOfRange, "confidence", "confidence %v is outside [0,1]", s.Confidence)
	}

	if len(s.Entities) == 0 {
		add(CodeEmptySpecification, "entities", "specification has no entities")
	}

	// canonical lower-case name -> canonical name
	known := make(map[string]string, len(s.Entities))
	for i := range s.Entities {
		e := &s.Entities[i]
		path := fmt.Sprintf("entities[%d]", i)
		original := e.Name
		e.Name = naming.Pascal(e.Name)
		if e.Name == "" {
			add(CodeInvalidName, path+".name", "entity name %q has no identifier characters", original)
		} else if _, dup := known[strings.ToLower(e.Name)]; dup {
			add(CodeDuplicateEntity, path+".name", "entity %q is declared more than once", e.Name)
		} else {
			known[strings.ToLower(e.Name)] = e.Name
		}
		normalizeFields(e, path, add)
		if e.Relations == nil {
			e.Relations = []Relation{}
		}
	}

	for i := range s.Entities {
		e := &s.Entities[i]
		for j := range e.Relations {
			r := &e.Relations[j]
			path := fmt.Sprintf("entities[%d].relations[%d]", i, j)
			r.Kind = RelationKind(strings.ToUpper(strings.TrimSpace(string(r.Kind))))
			if !r.Kind.Valid() {
				add(CodeInvalidValue, path+".kind", "unsupported relation kind %q", r.Kind)
			}
			for _, ref := range []*string{&r.FromEntity, &r.ToEntity} {
				canon, ok := known[strings.ToLower(naming.Pascal(*ref))]
				if !ok {
					add(CodeDanglingRelation, path, "relation references unknown entity %q", *ref)
					continue
				}
				*ref = canon
			}
		}
	}

	if s.Endpoints == nil {
		s.Endpoints = []Endpoint{}
	}
	for i := range s.Endpoints {
		ep := &s.Endpoints[i]
		path := fmt.Sprintf("endpoints[%d]", i)
		ep.Path = strings.TrimSpace(ep.Path)
		ep.Action = Action(strings.ToUpper(strings.TrimSpace(string(ep.Action))))
		if !ep.Action.Valid() {
			add(CodeInvalidValue, path+".action", "unsupported action %q", ep.Action)
		}
		canon, ok := known[strings.ToLower(naming.Pascal(ep.EntityRef))]
		if !ok {
			add(CodeDanglingEndpointReference, path+".entityRef", "endpoint references unknown entity %q", ep.EntityRef)
			continue
		}
		ep.EntityRef = canon
	}

	if s.Auth != nil {
		s.Auth.Scheme = AuthScheme(strings.ToUpper(strings.TrimSpace(string(s.Auth.Scheme))))
		switch s.Auth.Scheme {
		case AuthNone, AuthJWT, AuthOAuth, AuthBasic:
		default:
			add(CodeInvalidValue, "auth.scheme", "unsupported auth scheme %q", s.Auth.Scheme)
		}
	}
	if s.Database != nil {
		s.Database.Kind = DatabaseKind(strings.ToUpper(strings.TrimSpace(string(s.Database.Kind))))
		switch s.Database.Kind {
		case DatabaseSQL, DatabaseDocument, DatabaseCache, DatabaseNone:
		default:
			add(CodeInvalidValue, "database.kind", "unsupported database kind %q", s.Database.Kind)
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return &Validated{spec: s}, nil
}

func normalizeFields(e *Entity, path string, add func(ViolationCode, string, string, ...any)) {
	if e.Fields == nil {
		e.Fields = []Field{}
	}
	seen := make(map[string]bool, len(e.Fields))
	for j := range e.Fields {
		f := &e.Fields[j]
		fpath := fmt.Sprintf("%s.fields[%d]", path, j)
		original := f.Name
		f.Name = naming.Snake(f.Name)
		switch {
		case f.Name == "":
			add(CodeInvalidName, fpath+".name", "field name %q has no identifier characters", original)
		case seen[f.Name]:
			add(CodeDuplicateField, fpath+".name", "field %q is declared more than once in %s", f.Name, e.Name)
		default:
			seen[f.Name] = true
		}
		f.Type = FieldType(strings.ToLower(strings.TrimSpace(string(f.Type))))
		if !f.Type.Valid() {
			add(CodeInvalidFieldType, fpath+".type", "unsupported field type %q", f.Type)
		}
	}
}

func sameName(a, b string) bool {
	return strings.EqualFold(naming.Pascal(a), naming.Pascal(b))
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
