// Package rest generates REST projects: a net/http server and an OpenAPI 3
// document.
package rest

import (
	"context"

	"github.com/veridock/text2api/internal/codegen/ddl"
	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
)

// NetHTTP renders a standard library server with an in-memory store
type NetHTTP struct {
	engine *tmpl.Engine
}

func NewNetHTTP(engine *tmpl.Engine) *NetHTTP {
	return &NetHTTP{engine: engine}
}

func (g *NetHTTP) Protocol() spec.Protocol { return spec.ProtocolREST }
func (g *NetHTTP) Framework() string       { return "nethttp" }
func (g *NetHTTP) Description() string {
	return "net/http server with routed handlers, in-memory store and OpenAPI document"
}

func (g *NetHTTP) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}

	data := map[string]any{"Ctx": rc, "Stores": true}
	files := [][2]string{
		{"go.mod", "common/go.mod"},
		{"main.go", "rest/main.go"},
		{"handlers.go", "rest/handlers.go"},
		{"models.go", "common/models.go"},
		{"store.go", "common/store.go"},
	}
	if rc.NeedsAuthGuard() {
		files = append(files, [2]string{"auth.go", "rest/auth.go"}, [2]string{"credentials.go", "common/credentials.go"})
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := g.engine.RenderTo(fs, f[0], f[1], data); err != nil {
			return nil, err
		}
	}

	doc, err := Document(rc)
	if err != nil {
		return nil, err
	}
	if err := fs.Add(DocumentFile, doc); err != nil {
		return nil, err
	}
	if rc.SQL() {
		if err := fs.AddString(ddl.FileName, ddl.Schema(rc)); err != nil {
			return nil, err
		}
		fs.Warn("records are kept in memory; %s is provided for wiring a SQL database", ddl.FileName)
	}

	if err := g.engine.RenderReadme(fs, rc, true, "go run ."); err != nil {
		return nil, err
	}
	return fs, nil
}
