// Package codegen dispatches a validated specification to the generator of
// its protocol and framework and commits the rendered files.
package codegen

import (
	"context"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/spec"
)

// Generator renders a project for one protocol and framework
type Generator interface {
	Protocol() spec.Protocol

	// Framework is the name callers select the generator by, e.g. "gqlgen"
	Framework() string

	Description() string

	// Render produces the project files. It must not touch the file system.
	Render(ctx context.Context, rc *render.Context) (*render.FileSet, error)
}
