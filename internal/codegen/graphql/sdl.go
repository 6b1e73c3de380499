package graphql

import (
	"strconv"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/writer"
	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// rootFields splits the endpoints into query and mutation fields
func rootFields(rc *render.Context) (queries, mutations []render.Endpoint) {
	for _, ep := range rc.Endpoints() {
		switch ep.Action {
		case spec.ActionList, spec.ActionGet:
			queries = append(queries, ep)
		default:
			mutations = append(mutations, ep)
		}
	}
	return queries, mutations
}

// SDL renders the schema. Every entity becomes a type and an input type;
// endpoints become Query and Mutation fields named after their operation.
func SDL(rc *render.Context) string {
	w := writer.New(writer.GraphQL)
	w.Comment("Generated by text2api.")

	if rc.UsesTime() {
		w.BlankLine()
		w.Line("scalar Time")
	}
	if rc.NeedsAuthGuard() {
		w.BlankLine()
		w.Comment("Guarded by " + string(rc.Auth) + " credentials")
		w.Line("directive @auth on FIELD_DEFINITION")
	}

	for _, e := range rc.Entities {
		w.BlankLine()
		w.Block("type "+e.Name+" {", "}", func() {
			w.Line("id: ID!")
			for _, f := range e.Fields {
				w.Linef("%s: %s%s", f.Camel(), f.GraphQLType(), bang(f.Required))
			}
			for _, l := range e.Links {
				if l.Join {
					w.Linef("%s: [ID!]", naming.Camel(l.IDsName()))
				}
			}
			for _, l := range e.Links {
				if l.Many {
					w.Linef("%s: [%s!]", l.Camel(), l.Target)
				} else {
					w.Linef("%s: %s", l.Camel(), l.Target)
				}
			}
		})

		w.BlankLine()
		w.Block("input "+e.Name+"Input {", "}", func() {
			for _, f := range e.Fields {
				w.Linef("%s: %s%s%s", f.Camel(), f.GraphQLType(), bang(f.Required), defaultLiteral(f))
			}
			for _, l := range e.Links {
				if l.Join {
					w.Linef("%s: [ID!]", naming.Camel(l.IDsName()))
				}
			}
			if len(e.Fields) == 0 && !hasJoin(e) {
				w.Comment("input objects need at least one field")
				w.Line("_: Boolean")
			}
		})
	}

	queries, mutations := rootFields(rc)
	w.BlankLine()
	w.Block("type Query {", "}", func() {
		if len(queries) == 0 {
			w.Line("health: Boolean!")
		}
		for _, ep := range queries {
			rootField(w, rc, ep)
		}
	})
	if len(mutations) > 0 {
		w.BlankLine()
		w.Block("type Mutation {", "}", func() {
			for _, ep := range mutations {
				rootField(w, rc, ep)
			}
		})
	}
	return w.String()
}

func rootField(w *writer.Writer, rc *render.Context, ep render.Endpoint) {
	var sig string
	switch ep.Action {
	case spec.ActionList:
		sig = "[" + ep.Entity + "!]!"
	case spec.ActionGet:
		sig = "(id: ID!): " + ep.Entity
	case spec.ActionCreate:
		sig = "(input: " + ep.Entity + "Input!): " + ep.Entity + "!"
	case spec.ActionUpdate:
		sig = "(id: ID!, input: " + ep.Entity + "Input!): " + ep.Entity + "!"
	case spec.ActionDelete:
		sig = "(id: ID!): Boolean!"
	default:
		sig = "[" + ep.Entity + "!]!"
	}
	if sig[0] != '(' {
		sig = ": " + sig
	}
	directive := ""
	if ep.AuthRequired && rc.HasAuth() {
		directive = " @auth"
	}
	w.Linef("%s%s%s", ep.Handler(), sig, directive)
}

func bang(required bool) string {
	if required {
		return "!"
	}
	return ""
}

func hasJoin(e *render.Entity) bool {
	for _, l := range e.Links {
		if l.Join {
			return true
		}
	}
	return false
}

// defaultLiteral renders " = value" for fields with a usable default
func defaultLiteral(f render.Field) string {
	switch v := f.DefaultValue().(type) {
	case int64:
		return " = " + strconv.FormatInt(v, 10)
	case float64:
		return " = " + strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return " = " + strconv.FormatBool(v)
	case string:
		if f.Type == spec.TypeString || f.Type == spec.TypeIdentifier || f.Type == spec.TypeDatetime {
			return " = " + strconv.Quote(v)
		}
	}
	return ""
}
