package graphql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/schema"
	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

func newContext(t *testing.T, s spec.Specification) *render.Context {
	t.Helper()
	return render.NewContext(testutil.Validate(t, s), "gqlgen", "blog")
}

func objectType(t *testing.T, parsed *schema.Schema, name string) *schema.ObjectType {
	t.Helper()
	obj, ok := parsed.Type(name)
	if !ok {
		obj, ok = parsed.Input(name)
	}
	require.True(t, ok, name)
	return obj
}

func field(t *testing.T, obj *schema.ObjectType, name string) *schema.Field {
	t.Helper()
	f, ok := obj.Field(name)
	require.True(t, ok, obj.Name+"."+name)
	return f
}

func TestSDL_Notes(t *testing.T) {
	// Test: LIST and GET become queries, writes become mutations
	sdl := SDL(newContext(t, testutil.NotesSpec(spec.ProtocolGraphQL)))

	parsed, err := schema.ParseSchema(sdl)
	require.NoError(t, err)

	note := objectType(t, parsed, "Note")
	id := field(t, note, "id")
	assert.Equal(t, "ID", id.Type)
	assert.True(t, id.Required)
	assert.True(t, field(t, note, "title").Required)
	assert.False(t, field(t, note, "body").Required)
	objectType(t, parsed, "NoteInput")

	query := objectType(t, parsed, "Query")
	field(t, query, "listNotes")
	assert.Equal(t, "ID", field(t, query, "getNote").Args[0].Type)

	mutation := objectType(t, parsed, "Mutation")
	for _, name := range []string{"createNote", "updateNote", "deleteNote"} {
		field(t, mutation, name)
	}
	assert.NotContains(t, sdl, "@auth")
	assert.NotContains(t, sdl, "scalar Time")
}

func TestSDL_Blog(t *testing.T) {
	// Test: guarded fields carry @auth and relations appear as fields and id lists
	sdl := SDL(newContext(t, testutil.BlogSpec(spec.ProtocolGraphQL)))

	parsed, err := schema.ParseSchema(sdl)
	require.NoError(t, err)
	assert.Contains(t, parsed.Scalars, "Time")
	assert.Contains(t, parsed.Directives, "auth")

	post := objectType(t, parsed, "Post")
	assert.Equal(t, "Time", field(t, post, "publishedAt").Type)
	assert.Equal(t, "[ID]", field(t, post, "tagIds").Type)
	assert.Equal(t, "Author", field(t, post, "author").Type)
	assert.Equal(t, "[Tag]", field(t, post, "tags").Type)

	input := objectType(t, parsed, "PostInput")
	assert.Equal(t, "0", field(t, input, "views").Default)
	assert.Equal(t, "false", field(t, input, "published").Default)

	mutation := objectType(t, parsed, "Mutation")
	assert.True(t, field(t, mutation, "createPost").HasDirective("auth"))
	assert.False(t, field(t, mutation, "searchPost").HasDirective("auth"))
	assert.True(t, field(t, mutation, "deleteTag").HasDirective("auth"))

	query := objectType(t, parsed, "Query")
	assert.False(t, field(t, query, "listPosts").HasDirective("auth"))
	assert.True(t, field(t, query, "listTags").HasDirective("auth"))
}

func TestSDL_NoQueries(t *testing.T) {
	// Test: a schema with only writes still has a Query type
	s := testutil.NotesSpec(spec.ProtocolGraphQL)
	s.Endpoints = []spec.Endpoint{{Path: "/notes", Action: spec.ActionCreate, EntityRef: "Note"}}
	sdl := SDL(newContext(t, s))

	parsed, err := schema.ParseSchema(sdl)
	require.NoError(t, err)
	field(t, objectType(t, parsed, "Query"), "health")
}

func TestConfig(t *testing.T) {
	// Test: gqlgen keeps resolvers in one file and binds the scalar models
	out, err := Config()
	require.NoError(t, err)

	var cfg gqlgenConfig
	require.NoError(t, yaml.Unmarshal(out, &cfg))
	assert.Equal(t, []string{SchemaFile}, cfg.Schema)
	assert.Equal(t, "single-file", cfg.Resolver.Layout)
	assert.Equal(t, []string{"github.com/99designs/gqlgen/graphql.Int64"}, cfg.Models["Int"].Model)
}

func TestGqlgen_Render(t *testing.T) {
	engine := tmpl.Must(tmpl.New())

	t.Run("notes", func(t *testing.T) {
		fs, err := NewGqlgen(engine).Render(context.Background(), newContext(t, testutil.NotesSpec(spec.ProtocolGraphQL)))
		require.NoError(t, err)
		assert.Equal(t, []string{SchemaFile, ConfigFile, "go.mod", "server.go", "graph/resolver.go", "graph/store.go", "README.md"}, fs.Paths())
		assert.Empty(t, fs.Warnings())

		gomod, _ := fs.File("go.mod")
		assert.Contains(t, string(gomod.Content), "github.com/99designs/gqlgen v0.17.55")
	})

	t.Run("blog", func(t *testing.T) {
		// Test: guarded schemas wire the auth directive into the server
		fs, err := NewGqlgen(engine).Render(context.Background(), newContext(t, testutil.BlogSpec(spec.ProtocolGraphQL)))
		require.NoError(t, err)

		_, ok := fs.File("credentials.go")
		assert.True(t, ok)
		server, _ := fs.File("server.go")
		assert.Contains(t, string(server.Content), "cfg.Directives.Auth = auth")
		resolver, _ := fs.File("graph/resolver.go")
		assert.Contains(t, string(resolver.Content), "func (r *mutationResolver) SearchPost(")
		assert.Len(t, fs.Warnings(), 2)
	})
}
