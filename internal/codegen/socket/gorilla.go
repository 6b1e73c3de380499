// Package socket generates a websocket server with one message type per
// entity operation
package socket

import (
	"context"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
)

var requires = []string{"github.com/gorilla/websocket v1.5.3"}

// Gorilla renders a gorilla/websocket hub. Messages are typed
// "<entity>.<command>", e.g. note.create, and changes are broadcast.
type Gorilla struct {
	engine *tmpl.Engine
}

func NewGorilla(engine *tmpl.Engine) *Gorilla {
	return &Gorilla{engine: engine}
}

func (g *Gorilla) Protocol() spec.Protocol { return spec.ProtocolSocket }
func (g *Gorilla) Framework() string       { return "gorilla" }
func (g *Gorilla) Description() string {
	return "gorilla/websocket hub with per-entity message types and broadcast"
}

func (g *Gorilla) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}
	if rc.NeedsAuthGuard() && rc.Auth != spec.AuthJWT {
		fs.Warn("%s credentials are checked from the token query parameter as a bearer token", rc.Auth)
	}
	if rc.SQL() {
		fs.Warn("the websocket server stores records in memory; no SQL schema is generated")
	}

	data := map[string]any{"Ctx": rc, "Requires": requires, "Stores": true}
	files := [][2]string{
		{"go.mod", "common/go.mod"},
		{"main.go", "socket/main.go"},
		{"models.go", "common/models.go"},
		{"store.go", "common/store.go"},
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

	if err := g.engine.RenderReadme(fs, rc, false, "go mod tidy", "go run .", "connect to ws://localhost:8080/ws"); err != nil {
		return nil, err
	}
	return fs, nil
}
