package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/spec"
)

func entityNames(p *Partial) []string {
	var names []string
	for _, e := range p.Entities {
		names = append(names, e.Name)
	}
	return names
}

func findEntity(t *testing.T, p *Partial, name string) spec.Entity {
	t.Helper()
	for _, e := range p.Entities {
		if e.Name == name {
			return e
		}
	}
	require.Failf(t, "entity not found", "%s not in %v", name, entityNames(p))
	return spec.Entity{}
}

func TestPatternExtractor_FieldList(t *testing.T) {
	// Test: a "with a and b" list becomes required string fields of the entity
	p := NewPatternExtractor().Extract("Simple note API with title and body", "en")

	assert.Equal(t, SourcePattern, p.Source)
	assert.Equal(t, []string{"Note"}, entityNames(p))
	note := findEntity(t, p, "Note")
	assert.Equal(t, []spec.Field{
		{Name: "title", Type: spec.TypeString, Required: true},
		{Name: "body", Type: spec.TypeString, Required: true},
	}, note.Fields)
	assert.Empty(t, p.Endpoints)
	assert.Empty(t, p.Protocol)
	assert.Equal(t, 0.5, p.Confidence)
}

func TestPatternExtractor_Relations(t *testing.T) {
	// Test: cardinality phrases between two mentions produce relations
	tests := []struct {
		name string
		text string
		want spec.Relation
	}{
		{
			name: "many marker",
			text: "Each author has many books.",
			want: spec.Relation{FromEntity: "Author", ToEntity: "Book", Kind: spec.OneToMany},
		},
		{
			name: "belongs to reverses direction",
			text: "Every comment belongs to a post.",
			want: spec.Relation{FromEntity: "Post", ToEntity: "Comment", Kind: spec.OneToMany},
		},
		{
			name: "many on both sides",
			text: "Many students attend many courses.",
			want: spec.Relation{FromEntity: "Student", ToEntity: "Course", Kind: spec.ManyToMany},
		},
		{
			name: "single marker",
			text: "Each employee has one account.",
			want: spec.Relation{FromEntity: "Employee", ToEntity: "Account", Kind: spec.OneToOne},
		},
		{
			name: "plural object after has",
			text: "A project has tasks.",
			want: spec.Relation{FromEntity: "Project", ToEntity: "Task", Kind: spec.OneToMany},
		},
	}

	x := NewPatternExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := x.Extract(tt.text, "en")
			from := findEntity(t, p, tt.want.FromEntity)
			findEntity(t, p, tt.want.ToEntity)
			assert.Equal(t, []spec.Relation{tt.want}, from.Relations)
		})
	}
}

func TestPatternExtractor_Signals(t *testing.T) {
	// Test: protocol, auth, storage and read-only markers are picked up
	x := NewPatternExtractor()

	t.Run("protocol", func(t *testing.T) {
		p := x.Extract("GraphQL API for books", "en")
		assert.Equal(t, spec.ProtocolGraphQL, p.Protocol)
		findEntity(t, p, "Book")
	})

	t.Run("auth and database", func(t *testing.T) {
		p := x.Extract("Task API with JWT authentication stored in PostgreSQL", "en")
		require.NotNil(t, p.Auth)
		require.NotNil(t, p.Database)
		assert.Equal(t, spec.AuthJWT, p.Auth.Scheme)
		assert.Equal(t, spec.DatabaseSQL, p.Database.Kind)
		assert.Empty(t, findEntity(t, p, "Task").Fields)
	})

	t.Run("read only", func(t *testing.T) {
		p := x.Extract("Read-only product catalog API", "en")
		assert.Equal(t, []spec.Endpoint{
			{Path: "/products", Action: spec.ActionList, EntityRef: "Product"},
			{Path: "/products/{id}", Action: spec.ActionGet, EntityRef: "Product"},
		}, p.Endpoints)
	})

	t.Run("unknown subject", func(t *testing.T) {
		p := x.Extract("Simple garden API", "en")
		assert.Equal(t, []string{"Garden"}, entityNames(p))
	})

	t.Run("nothing found", func(t *testing.T) {
		p := x.Extract("Something vague here", "en")
		assert.False(t, p.HasEntities())
		assert.Equal(t, 0.1, p.Confidence)
	})
}

func TestPatternExtractor_Domain(t *testing.T) {
	// Test: domain vocabulary seeds the default entities of the domain
	x := NewPatternExtractor()
	p := x.Extract("A small blog where readers can comment", "en")

	assert.Equal(t, "blog", p.Domain)
	assert.Equal(t, "blog", x.Domain("A small blog where readers can comment", "en"))
	post := findEntity(t, p, "Post")
	findEntity(t, p, "Comment")
	assert.NotEmpty(t, post.Fields)
	assert.Equal(t, []spec.Relation{{FromEntity: "Post", ToEntity: "Comment", Kind: spec.OneToMany}}, post.Relations)
}

func TestPatternExtractor_OtherLanguages(t *testing.T) {
	// Test: polish and german inflections map onto canonical entity names
	tests := []struct {
		name string
		text string
		lang string
		want []string
	}{
		{name: "polish", text: "Aplikacja do zarządzania zadaniami z tytułem i terminem", lang: "pl", want: []string{"Task"}},
		{name: "german", text: "Eine API für Notizen mit Titel und Inhalt", lang: "de", want: []string{"Note"}},
		{name: "unknown language uses english", text: "Simple note API with title and body", lang: "xx", want: []string{"Note"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPatternExtractor().Extract(tt.text, tt.lang)
			assert.Equal(t, tt.want, entityNames(p))
			assert.Len(t, p.Entities[0].Fields, 2)
		})
	}
}

func TestPatternExtractor_Deterministic(t *testing.T) {
	// Test: extraction of the same text is identical across calls
	text := "Shop API with products and customers. Each customer has many orders. Orders have a total price and an optional note."
	x := NewPatternExtractor()
	first := x.Extract(text, "en")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, x.Extract(text, "en"))
	}
}

func TestInferType(t *testing.T) {
	// Test: field types are guessed from their words
	en := tableFor("en")
	tests := []struct {
		name string
		want spec.FieldType
	}{
		{"user_id", spec.TypeIdentifier},
		{"created_at", spec.TypeDatetime},
		{"is_active", spec.TypeBoolean},
		{"price", spec.TypeFloat},
		{"quantity", spec.TypeInteger},
		{"due_date", spec.TypeDatetime},
		{"title", spec.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferType(en, strings.Split(tt.name, "_")))
		})
	}
}
