// Package graphql generates a gqlgen project from a render context
package graphql

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/schema"
	"github.com/veridock/text2api/internal/spec"
)

const (
	SchemaFile = "graph/schema.graphqls"
	ConfigFile = "gqlgen.yml"
)

var requires = []string{
	"github.com/99designs/gqlgen v0.17.55",
	"github.com/vektah/gqlparser/v2 v2.5.17",
}

// Gqlgen renders the schema, gqlgen configuration, resolvers and server
type Gqlgen struct {
	engine *tmpl.Engine
}

func NewGqlgen(engine *tmpl.Engine) *Gqlgen {
	return &Gqlgen{engine: engine}
}

func (g *Gqlgen) Protocol() spec.Protocol { return spec.ProtocolGraphQL }
func (g *Gqlgen) Framework() string       { return "gqlgen" }
func (g *Gqlgen) Description() string {
	return "gqlgen schema, configuration and resolvers backed by an in-memory store"
}

func (g *Gqlgen) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}

	sdl := SDL(rc)
	if _, err := schema.ParseSchema(sdl); err != nil {
		return nil, fmt.Errorf("generated schema does not validate: %w", err)
	}
	if err := fs.AddString(SchemaFile, sdl); err != nil {
		return nil, err
	}

	cfg, err := Config()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(ConfigFile, cfg); err != nil {
		return nil, err
	}

	queries, mutations := rootFields(rc)
	custom := false
	for _, ep := range mutations {
		if ep.Action == spec.ActionCustom {
			custom = true
		}
	}
	data := map[string]any{
		"Ctx":         rc,
		"Requires":    requires,
		"Package":     "graph",
		"HasQuery":    len(queries) > 0,
		"HasMutation": len(mutations) > 0,
		"Custom":      custom,
	}
	files := [][2]string{
		{"go.mod", "common/go.mod"},
		{"server.go", "graphql/server.go"},
		{"graph/resolver.go", "graphql/resolver.go"},
		{"graph/store.go", "common/store.go"},
	}
	if rc.NeedsAuthGuard() {
		files = append(files, [2]string{"credentials.go", "common/credentials.go"})
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.engine.RenderTo(fs, f[0], f[1], data); err != nil {
			return nil, err
		}
	}

	if rc.SQL() {
		fs.Warn("the GraphQL project stores records in memory; no SQL schema is generated")
	}
	for _, e := range rc.Entities {
		if len(e.Links) > 0 {
			fs.Warn("relation fields are declared in the schema but not resolved by the generated resolvers")
			break
		}
	}

	if err := g.engine.RenderReadme(fs, rc, false,
		"go mod tidy",
		"go run github.com/99designs/gqlgen generate",
		"go run .",
	); err != nil {
		return nil, err
	}
	return fs, nil
}

type gqlgenConfig struct {
	Schema   []string        `yaml:"schema"`
	Exec     packageConfig   `yaml:"exec"`
	Model    packageConfig   `yaml:"model"`
	Resolver resolverConfig  `yaml:"resolver"`
	Models   map[string]bind `yaml:"models"`
}

type packageConfig struct {
	Filename string `yaml:"filename"`
	Package  string `yaml:"package"`
}

type resolverConfig struct {
	Layout   string `yaml:"layout"`
	Filename string `yaml:"filename"`
	Package  string `yaml:"package"`
	Type     string `yaml:"type"`
}

type bind struct {
	Model []string `yaml:"model"`
}

// Config renders gqlgen.yml. The resolver layout is single-file so that
// gqlgen keeps the generated resolver bodies.
func Config() ([]byte, error) {
	cfg := gqlgenConfig{
		Schema: []string{SchemaFile},
		Exec:   packageConfig{Filename: "graph/generated/generated.go", Package: "generated"},
		Model:  packageConfig{Filename: "graph/model/models_gen.go", Package: "model"},
		Resolver: resolverConfig{
			Layout:   "single-file",
			Filename: "graph/resolver.go",
			Package:  "graph",
			Type:     "Resolver",
		},
		Models: map[string]bind{
			"ID":   {Model: []string{"github.com/99designs/gqlgen/graphql.ID"}},
			"Int":  {Model: []string{"github.com/99designs/gqlgen/graphql.Int64"}},
			"Time": {Model: []string{"github.com/99designs/gqlgen/graphql.Time"}},
		},
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gqlgen config: %w", err)
	}
	return out, nil
}
