package codegen

import (
	"fmt"
	"strings"

	"github.com/veridock/text2api/internal/spec"
)

// Registry maps protocol and framework to a generator. The first generator
// registered for a protocol is its default. A Registry is read-only once
// built.
type Registry struct {
	generators map[spec.Protocol][]Generator
}

// NewRegistry creates a registry from generators
func NewRegistry(generators ...Generator) (*Registry, error) {
	r := &Registry{generators: make(map[spec.Protocol][]Generator)}
	for _, g := range generators {
		if !g.Protocol().Valid() {
			return nil, fmt.Errorf("generator %s has unknown protocol %q", g.Framework(), g.Protocol())
		}
		if _, ok := r.lookup(g.Protocol(), g.Framework()); ok {
			return nil, fmt.Errorf("framework %s registered twice for %s", g.Framework(), g.Protocol())
		}
		r.generators[g.Protocol()] = append(r.generators[g.Protocol()], g)
	}
	return r, nil
}

func (r *Registry) lookup(protocol spec.Protocol, framework string) (Generator, bool) {
	for _, g := range r.generators[protocol] {
		if strings.EqualFold(g.Framework(), framework) {
			return g, true
		}
	}
	return nil, false
}

// Resolve returns the generator for a protocol and framework. An empty
// framework selects the protocol default.
func (r *Registry) Resolve(protocol spec.Protocol, framework string) (Generator, error) {
	framework = strings.TrimSpace(framework)
	if framework == "" {
		if g, ok := r.Default(protocol); ok {
			return g, nil
		}
	} else if g, ok := r.lookup(protocol, framework); ok {
		return g, nil
	}
	return nil, newError(ErrorCodeUnsupportedCombination,
		fmt.Sprintf("no generator for protocol %s and framework %q", protocol, framework), nil)
}

// Default returns the default generator of a protocol
func (r *Registry) Default(protocol spec.Protocol) (Generator, bool) {
	gens := r.generators[protocol]
	if len(gens) == 0 {
		return nil, false
	}
	return gens[0], true
}

// Frameworks returns the generators of a protocol, default first
func (r *Registry) Frameworks(protocol spec.Protocol) []Generator {
	return append([]Generator(nil), r.generators[protocol]...)
}

// Protocols returns the protocols with at least one generator, in display
// order
func (r *Registry) Protocols() []spec.Protocol {
	var out []spec.Protocol
	for _, p := range spec.Protocols {
		if len(r.generators[p]) > 0 {
			out = append(out, p)
		}
	}
	return out
}
