// Package cli generates command line tools with one command group per entity
package cli

import (
	"context"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
)

type flavor struct {
	framework   string
	description string
	template    string
	requires    []string
}

var (
	cobraFlavor = flavor{
		framework:   "cobra",
		description: "spf13/cobra command line tool over a JSON file store",
		template:    "cli/cobra_main.go",
		requires:    []string{"github.com/spf13/cobra v1.10.2"},
	}
	urfaveFlavor = flavor{
		framework:   "urfave",
		description: "urfave/cli command line tool over a JSON file store",
		template:    "cli/urfave_main.go",
		requires:    []string{"github.com/urfave/cli/v3 v3.0.0-beta1"},
	}
)

// Generator renders one CLI flavor. Commands are "<entity> <command>", values
// are passed as --set field=value.
type Generator struct {
	engine *tmpl.Engine
	flavor flavor
}

func NewCobra(engine *tmpl.Engine) *Generator {
	return &Generator{engine: engine, flavor: cobraFlavor}
}

func NewUrfave(engine *tmpl.Engine) *Generator {
	return &Generator{engine: engine, flavor: urfaveFlavor}
}

func (g *Generator) Protocol() spec.Protocol { return spec.ProtocolCommandLine }
func (g *Generator) Framework() string       { return g.flavor.framework }
func (g *Generator) Description() string     { return g.flavor.description }

func (g *Generator) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}
	if rc.NeedsAuthGuard() {
		fs.Warn("a command line tool cannot express %s authentication; commands are not guarded", rc.Auth)
	}
	if rc.SQL() {
		fs.Warn("records are kept in a JSON file; no SQL schema is generated")
	}

	data := map[string]any{"Ctx": rc, "Requires": g.flavor.requires}
	files := [][2]string{
		{"go.mod", "common/go.mod"},
		{"main.go", g.flavor.template},
		{"records.go", "cli/records.go"},
		{"models.go", "common/models.go"},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.engine.RenderTo(fs, f[0], f[1], data); err != nil {
			return nil, err
		}
	}

	example := "go run . --help"
	if len(rc.Entities) > 0 && len(rc.Entities[0].Endpoints) > 0 {
		e, ep := rc.Entities[0], rc.Entities[0].Endpoints[0]
		example = "go run . " + e.Kebab() + " " + ep.Command()
		if ep.HasID() {
			example += " <id>"
		}
	}
	if err := g.engine.RenderReadme(fs, rc, false, "go mod tidy", example); err != nil {
		return nil, err
	}
	return fs, nil
}
