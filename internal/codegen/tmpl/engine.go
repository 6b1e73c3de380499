// Package tmpl renders the embedded file templates used by the generators.
package tmpl

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/naming"
)

//go:embed templates
var files embed.FS

// text/template prints missing map entries as "<no value>" even with
// missingkey=zero
const noValue = "<no value>"

var funcs = template.FuncMap{
	"pascal": naming.Pascal,
	"camel":  naming.Camel,
	"snake":  naming.Snake,
	"kebab":  naming.Kebab,
	"plural": naming.Plural,
	"lower":  strings.ToLower,
	"upper":  strings.ToUpper,
	"join":   strings.Join,
	"quote":  strconv.Quote,
	"add":    func(a, b int) int { return a + b },
}

// Engine holds the parsed templates. Templates are identified by their path
// below templates/ without the .tmpl suffix, e.g. "rest/main.go". It is
// read-only after New and safe for concurrent use.
type Engine struct {
	root *template.Template
}

// New parses every embedded template
func New() (*Engine, error) {
	root := template.New("").Funcs(funcs).Option("missingkey=zero")
	err := fs.WalkDir(files, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}
		data, err := files.ReadFile(p)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl")
		if _, err := root.New(id).Parse(string(data)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Engine{root: root}, nil
}

// Must panics if New failed
func Must(e *Engine, err error) *Engine {
	if err != nil {
		panic(err)
	}
	return e
}

// Render executes a template. Variables missing from data render empty,
// including fields of a missing Ctx.
func (e *Engine) Render(id string, data map[string]any) (string, error) {
	t := e.root.Lookup(id)
	if t == nil {
		return "", fmt.Errorf("template %q not found", id)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, withContext(data)); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", id, err)
	}
	return strings.ReplaceAll(buf.String(), noValue, ""), nil
}

// withContext returns data with a zero render context under "Ctx" when the
// caller left it unset. data itself is not modified.
func withContext(data map[string]any) map[string]any {
	if rc, ok := data["Ctx"].(*render.Context); ok && rc != nil {
		return data
	}
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["Ctx"] = &render.Context{}
	return out
}

// RenderTo renders a template into the file set at name. Go sources are
// formatted and rejected if they do not parse.
func (e *Engine) RenderTo(fs *render.FileSet, name, id string, data map[string]any) error {
	out, err := e.Render(id, data)
	if err != nil {
		return err
	}
	if strings.HasSuffix(name, ".go") {
		return fs.AddGo(name, out)
	}
	return fs.AddString(name, out)
}

// IDs returns the identifiers of all templates
func (e *Engine) IDs() []string {
	var ids []string
	for _, t := range e.root.Templates() {
		if t.Name() != "" {
			ids = append(ids, t.Name())
		}
	}
	sort.Strings(ids)
	return ids
}

// RenderReadme adds README.md with the run steps and every warning recorded
// in fs so far, so it should be rendered last. http adds method and path to
// the endpoint list.
func (e *Engine) RenderReadme(fs *render.FileSet, rc *render.Context, http bool, steps ...string) error {
	return e.RenderTo(fs, "README.md", "common/README.md", map[string]any{
		"Ctx":      rc,
		"HTTP":     http,
		"Steps":    steps,
		"Warnings": fs.Warnings(),
	})
}
