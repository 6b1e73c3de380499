package rest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

func newContext(t *testing.T, s spec.Specification) *render.Context {
	t.Helper()
	return render.NewContext(testutil.Validate(t, s), "nethttp", "blog")
}

func decode(t *testing.T, doc []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(doc, &out))
	return out
}

func TestNetHTTP_Render(t *testing.T) {
	engine := tmpl.Must(tmpl.New())

	t.Run("single entity", func(t *testing.T) {
		// Test: an unguarded project has no auth files and no schema
		fs, err := NewNetHTTP(engine).Render(context.Background(), newContext(t, testutil.NotesSpec(spec.ProtocolREST)))
		require.NoError(t, err)

		assert.Equal(t, []string{"go.mod", "main.go", "handlers.go", "models.go", "store.go", DocumentFile, "README.md"}, fs.Paths())
		assert.Empty(t, fs.Warnings())

		main, _ := fs.File("main.go")
		for _, route := range []string{`"GET /notes"`, `"GET /notes/{id}"`, `"POST /notes"`, `"PUT /notes/{id}"`, `"DELETE /notes/{id}"`} {
			assert.Contains(t, string(main.Content), route)
		}
		assert.NotContains(t, string(main.Content), "requireAuth")
	})

	t.Run("guarded project", func(t *testing.T) {
		// Test: guarded endpoints are wrapped and SQL adds a schema with a warning
		fs, err := NewNetHTTP(engine).Render(context.Background(), newContext(t, testutil.BlogSpec(spec.ProtocolREST)))
		require.NoError(t, err)

		for _, name := range []string{"auth.go", "credentials.go", "schema.sql"} {
			_, ok := fs.File(name)
			assert.True(t, ok, name)
		}
		main, _ := fs.File("main.go")
		assert.Contains(t, string(main.Content), `mux.Handle("POST /posts", requireAuth(http.HandlerFunc(createPost)))`)
		assert.Contains(t, string(main.Content), `mux.HandleFunc("POST /posts/search", searchPost)`)

		handlers, _ := fs.File("handlers.go")
		assert.Contains(t, string(handlers.Content), "http.StatusNotImplemented")

		require.Len(t, fs.Warnings(), 1)
		assert.Contains(t, fs.Warnings()[0], "schema.sql")
		readme, _ := fs.File("README.md")
		assert.Contains(t, string(readme.Content), "API_TOKEN")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewNetHTTP(engine).Render(ctx, newContext(t, testutil.NotesSpec(spec.ProtocolREST)))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDocument(t *testing.T) {
	// Test: the document lists every route with its responses
	doc, err := Document(newContext(t, testutil.NotesSpec(spec.ProtocolREST)))
	require.NoError(t, err)
	out := decode(t, doc)

	assert.Equal(t, "3.0.3", out["openapi"])
	paths := out["paths"].(map[string]any)
	require.Contains(t, paths, "/notes")
	require.Contains(t, paths, "/notes/{id}")

	collection := paths["/notes"].(map[string]any)
	assert.Contains(t, collection, "get")
	assert.Contains(t, collection, "post")

	item := paths["/notes/{id}"].(map[string]any)
	get := item["get"].(map[string]any)
	assert.Equal(t, "getNote", get["operationId"])
	assert.Contains(t, get["responses"], "404")
	params := get["parameters"].([]any)
	require.Len(t, params, 1)
	assert.Equal(t, "id", params[0].(map[string]any)["name"])

	components := out["components"].(map[string]any)
	assert.NotContains(t, components, "securitySchemes")
	note := components["schemas"].(map[string]any)["Note"].(map[string]any)
	assert.Equal(t, []any{"id", "title"}, note["required"])
}

func TestDocument_Security(t *testing.T) {
	// Test: each auth scheme maps to its security scheme on guarded operations only
	tests := []struct {
		scheme spec.AuthScheme
		want   map[string]any
	}{
		{spec.AuthJWT, map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}},
		{spec.AuthBasic, map[string]any{"type": "http", "scheme": "basic"}},
		{spec.AuthOAuth, map[string]any{"type": "oauth2", "flows": map[string]any{
			"clientCredentials": map[string]any{"tokenUrl": "/oauth/token", "scopes": map[string]any{}},
		}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			doc, err := Document(newContext(t, testutil.WithAuth(testutil.BlogSpec(spec.ProtocolREST), tt.scheme)))
			require.NoError(t, err)
			out := decode(t, doc)

			schemes := out["components"].(map[string]any)["securitySchemes"].(map[string]any)
			assert.Equal(t, tt.want, schemes["auth"])

			paths := out["paths"].(map[string]any)
			create := paths["/posts"].(map[string]any)["post"].(map[string]any)
			assert.Equal(t, []any{map[string]any{"auth": []any{}}}, create["security"])
			assert.Contains(t, create["responses"], "401")

			list := paths["/posts"].(map[string]any)["get"].(map[string]any)
			assert.NotContains(t, list, "security")
		})
	}
}

func TestDocument_NoneScheme(t *testing.T) {
	// Test: auth NONE leaves every operation open
	doc, err := Document(newContext(t, testutil.WithAuth(testutil.BlogSpec(spec.ProtocolREST), spec.AuthNone)))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "security")
}

func TestOpenAPI_Render(t *testing.T) {
	// Test: the document-only generator emits the document, schema and README
	fs, err := NewOpenAPI(tmpl.Must(tmpl.New())).Render(context.Background(), newContext(t, testutil.BlogSpec(spec.ProtocolREST)))
	require.NoError(t, err)
	assert.Equal(t, []string{DocumentFile, "schema.sql", "README.md"}, fs.Paths())
}

func TestPathParams(t *testing.T) {
	assert.Equal(t, []string{"id"}, pathParams("/notes/{id}"))
	assert.Equal(t, []string{"author", "id"}, pathParams("/authors/{author}/posts/{id}"))
	assert.Empty(t, pathParams("/notes/{}"))
}
