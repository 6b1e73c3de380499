package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

func TestNewContext_DefaultEndpoints(t *testing.T) {
	// Test: an entity without explicit endpoints gets the CRUD set
	v := testutil.Validate(t, testutil.NotesSpec(spec.ProtocolREST))
	rc := NewContext(v, "nethttp", "Notes API")

	assert.Equal(t, "notes_api", rc.Project)
	assert.Equal(t, "notesapi", rc.Package())
	assert.Equal(t, "notes api", rc.Title())
	require.Len(t, rc.Entities, 1)

	note := rc.Entities[0]
	assert.Equal(t, "Notes", note.Plural)
	assert.Equal(t, "notes", note.Table())

	type route struct{ method, path, op, command string }
	var got []route
	for _, ep := range note.Endpoints {
		assert.False(t, ep.Explicit)
		assert.False(t, ep.AuthRequired)
		got = append(got, route{ep.Method(), ep.Path, ep.Operation, ep.Command()})
	}
	assert.Equal(t, []route{
		{"GET", "/notes", "ListNotes", "list"},
		{"GET", "/notes/{id}", "GetNote", "get"},
		{"POST", "/notes", "CreateNote", "create"},
		{"PUT", "/notes/{id}", "UpdateNote", "update"},
		{"DELETE", "/notes/{id}", "DeleteNote", "delete"},
	}, got)
	assert.Empty(t, rc.Notes())
	assert.False(t, rc.NeedsAuthGuard())
	assert.True(t, rc.HasRequiredStrings())
	assert.False(t, rc.UsesTime())
}

func TestNewContext_EmptyProjectName(t *testing.T) {
	// Test: a blank project falls back to a fixed name
	v := testutil.Validate(t, testutil.NotesSpec(spec.ProtocolREST))
	assert.Equal(t, "generated_api", NewContext(v, "nethttp", "  ").Project)
}

func TestNewContext_Relations(t *testing.T) {
	// Test: one-to-many adds a foreign key and links, many-to-many a join table
	v := testutil.Validate(t, testutil.BlogSpec(spec.ProtocolREST))
	rc := NewContext(v, "nethttp", "blog")

	post := rc.Entity("Post")
	require.NotNil(t, post)

	var fk *Field
	for i := range post.Fields {
		if post.Fields[i].Name == "author_id" {
			fk = &post.Fields[i]
		}
	}
	require.NotNil(t, fk)
	assert.Equal(t, "Author", fk.References)
	assert.Equal(t, spec.TypeIdentifier, fk.Type)

	author := rc.Entity("Author")
	require.NotNil(t, author)
	assert.Contains(t, author.Links, Link{Name: "posts", Target: "Post", Many: true})
	assert.Contains(t, post.Links, Link{Name: "author", Target: "Author"})
	assert.Contains(t, post.Links, Link{Name: "tags", Target: "Tag", Many: true, Join: true})

	require.Len(t, rc.JoinTables, 1)
	jt := rc.JoinTables[0]
	assert.Equal(t, "posts_tags", jt.Name())
	assert.Equal(t, "post_id", jt.LeftColumn())
	assert.Equal(t, "tag_id", jt.RightColumn())

	link := Link{Name: "tags"}
	assert.Equal(t, "TagIDs", link.IDs())
	assert.Equal(t, "tag_ids", link.IDsName())

	assert.True(t, rc.SQL())
	assert.True(t, rc.UsesTime())
}

func TestNewContext_SelfJoin(t *testing.T) {
	// Test: a self-referencing many-to-many relation gets distinct columns
	jt := JoinTable{Left: "User", Right: "User"}
	assert.Equal(t, "user_id", jt.LeftColumn())
	assert.Equal(t, "related_user_id", jt.RightColumn())
}

func TestNewContext_ExplicitEndpoints(t *testing.T) {
	// Test: explicit endpoints replace the defaults and custom paths name the operation
	v := testutil.Validate(t, testutil.BlogSpec(spec.ProtocolREST))
	rc := NewContext(v, "nethttp", "blog")

	post := rc.Entity("Post")
	require.Len(t, post.Endpoints, 5)

	search, ok := post.Endpoint(spec.ActionCustom)
	require.True(t, ok)
	assert.Equal(t, "SearchPost", search.Operation)
	assert.Equal(t, "searchPost", search.Handler())
	assert.Equal(t, "search", search.Command())
	assert.Equal(t, "POST", search.Method())
	assert.False(t, search.HasID())

	create, ok := post.Endpoint(spec.ActionCreate)
	require.True(t, ok)
	assert.True(t, create.AuthRequired)
	assert.True(t, create.Explicit)

	list, ok := post.Endpoint(spec.ActionList)
	require.True(t, ok)
	assert.False(t, list.AuthRequired)

	// entities without explicit endpoints guard every default action
	tag := rc.Entity("Tag")
	require.Len(t, tag.Endpoints, 5)
	for _, ep := range tag.Endpoints {
		assert.True(t, ep.AuthRequired, ep.Operation)
	}
	assert.True(t, rc.NeedsAuthGuard())
}

func TestNewContext_DefaultEndpointsGuarded(t *testing.T) {
	// Test: an auth scheme guards reads and writes of the default CRUD set
	tests := []struct {
		scheme spec.AuthScheme
		want   bool
	}{
		{spec.AuthJWT, true},
		{spec.AuthBasic, true},
		{spec.AuthOAuth, true},
		{spec.AuthNone, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			s := testutil.WithAuth(testutil.NotesSpec(spec.ProtocolREST), tt.scheme)
			rc := NewContext(testutil.Validate(t, s), "nethttp", "notes")

			note := rc.Entity("Note")
			require.Len(t, note.Endpoints, 5)
			for _, ep := range note.Endpoints {
				assert.Equal(t, tt.want, ep.AuthRequired, ep.Operation)
			}
			assert.Equal(t, tt.want, rc.NeedsAuthGuard())
		})
	}
}

func TestNewContext_DuplicateEndpoints(t *testing.T) {
	// Test: repeated routes are skipped and repeated operations numbered
	s := testutil.NotesSpec(spec.ProtocolSocket)
	s.Endpoints = []spec.Endpoint{
		{Path: "/notes", Action: spec.ActionList, EntityRef: "Note"},
		{Path: "/notes", Action: spec.ActionList, EntityRef: "Note"},
		{Path: "/notes/recent", Action: spec.ActionList, EntityRef: "Note"},
	}
	rc := NewContext(testutil.Validate(t, s), "gorilla", "notes")

	note := rc.Entity("Note")
	require.Len(t, note.Endpoints, 2)
	assert.Equal(t, "ListNotes", note.Endpoints[0].Operation)
	assert.Equal(t, "ListNotes2", note.Endpoints[1].Operation)
	assert.Equal(t, "list-2", note.Endpoints[1].Command())

	require.Len(t, rc.Notes(), 1)
	assert.Contains(t, rc.Notes()[0], "GET /notes of Note is declared twice")
}

func TestNewContext_AuthWithoutScheme(t *testing.T) {
	// Test: guarded endpoints without an auth scheme are generated open with a note
	s := testutil.NotesSpec(spec.ProtocolREST)
	s.Endpoints = []spec.Endpoint{
		{Path: "/notes", Action: spec.ActionCreate, EntityRef: "Note", AuthRequired: true},
	}
	rc := NewContext(testutil.Validate(t, s), "nethttp", "notes")

	assert.False(t, rc.HasAuth())
	assert.False(t, rc.NeedsAuthGuard())
	require.Len(t, rc.Notes(), 1)
	assert.Contains(t, rc.Notes()[0], "CreateNote require authentication")
}

func TestNewContext_RelativeCustomPath(t *testing.T) {
	// Test: a relative custom path is rooted below the entity collection
	s := testutil.NotesSpec(spec.ProtocolREST)
	s.Endpoints = []spec.Endpoint{
		{Path: "archive all", Action: spec.ActionCustom, EntityRef: "Note"},
	}
	rc := NewContext(testutil.Validate(t, s), "nethttp", "notes")

	ep := rc.Entity("Note").Endpoints[0]
	assert.Equal(t, "/notes/archive-all", ep.Path)
	assert.Equal(t, "ArchiveAllNote", ep.Operation)
	assert.Equal(t, "archive-all", ep.Command())
}

func TestNewContext_DoesNotShareState(t *testing.T) {
	// Test: mutating a context leaves the validated specification untouched
	v := testutil.Validate(t, testutil.NotesSpec(spec.ProtocolREST))
	rc := NewContext(v, "nethttp", "notes")
	rc.Entities[0].Fields[0].Name = "changed"

	assert.Equal(t, "title", v.Specification().Entities[0].Fields[0].Name)
	assert.Equal(t, "title", NewContext(v, "nethttp", "notes").Entities[0].Fields[0].Name)
}
