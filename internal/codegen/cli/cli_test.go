package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

func TestGenerator_Render(t *testing.T) {
	engine := tmpl.Must(tmpl.New())

	tests := []struct {
		name    string
		gen     *Generator
		library string
	}{
		{"cobra", NewCobra(engine), "github.com/spf13/cobra"},
		{"urfave", NewUrfave(engine), "github.com/urfave/cli/v3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Test: each entity becomes a command group with one subcommand per endpoint
			rc := render.NewContext(testutil.Validate(t, testutil.NotesSpec(spec.ProtocolCommandLine)), tt.name, "notes")
			fs, err := tt.gen.Render(context.Background(), rc)
			require.NoError(t, err)

			assert.Equal(t, []string{"go.mod", "main.go", "records.go", "models.go", "README.md"}, fs.Paths())
			assert.Empty(t, fs.Warnings())

			main, _ := fs.File("main.go")
			assert.Contains(t, string(main.Content), tt.library)
			for _, verb := range []string{"list", "get", "create", "update", "delete"} {
				assert.Contains(t, string(main.Content), `newCommand("`+verb+`"`)
			}
			readme, _ := fs.File("README.md")
			assert.Contains(t, string(readme.Content), "go run . note list")
		})
	}
}

func TestGenerator_RenderReportsLimits(t *testing.T) {
	// Test: auth and SQL cannot be honoured by a CLI and are reported
	rc := render.NewContext(testutil.Validate(t, testutil.BlogSpec(spec.ProtocolCommandLine)), "cobra", "blog")
	fs, err := NewCobra(tmpl.Must(tmpl.New())).Render(context.Background(), rc)
	require.NoError(t, err)

	require.Len(t, fs.Warnings(), 2)
	assert.Contains(t, fs.Warnings()[0], "cannot express JWT authentication")
	assert.Contains(t, fs.Warnings()[1], "JSON file")

	_, ok := fs.File("credentials.go")
	assert.False(t, ok)
	main, _ := fs.File("main.go")
	assert.Contains(t, string(main.Content), `newCommand("search"`)
}
