package codegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/spec"
)

// Options configures one generation
type Options struct {
	// OutputDir receives the project files
	OutputDir string

	// Project names the generated module; empty means generated_api
	Project string
}

// Output describes a committed project
type Output struct {
	Protocol  spec.Protocol `json:"protocol"`
	Framework string        `json:"framework"`
	Dir       string        `json:"dir"`
	Files     []string      `json:"files"`
	Warnings  []string      `json:"warnings"`
}

// Generate renders v with the generator its protocol and framework resolve
// to and commits the files, including the specification snapshot, to
// opts.OutputDir. Nothing is left on disk when it fails.
func Generate(ctx context.Context, reg *Registry, v *spec.Validated, opts Options, w *FileWriter) (*Output, error) {
	if v == nil {
		return nil, errors.New("no validated specification")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	gen, err := reg.Resolve(v.Protocol(), v.Framework())
	if err != nil {
		return nil, err
	}
	v = v.WithFramework(gen.Framework())

	rc := render.NewContext(v, gen.Framework(), opts.Project)
	files, err := gen.Render(ctx, rc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, newError(ErrorCodeTemplateRenderFailure,
			fmt.Sprintf("%s/%s could not render the project", gen.Protocol(), gen.Framework()), err)
	}

	snapshot, err := spec.MarshalSnapshot(v)
	if err != nil {
		return nil, newError(ErrorCodeTemplateRenderFailure, "could not encode the specification snapshot", err)
	}
	if err := files.Add(spec.SnapshotFile, snapshot); err != nil {
		return nil, newError(ErrorCodeTemplateRenderFailure, "could not add the specification snapshot", err)
	}

	written, err := w.Commit(ctx, opts.OutputDir, files.Files())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, newError(ErrorCodeIOFailure, "could not write "+opts.OutputDir, err)
	}

	return &Output{
		Protocol:  gen.Protocol(),
		Framework: gen.Framework(),
		Dir:       opts.OutputDir,
		Files:     written,
		Warnings:  files.Warnings(),
	}, nil
}
