package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/spec"
)

func newParser(t *testing.T) *ResponseParser {
	t.Helper()
	p, err := NewResponseParser()
	require.NoError(t, err)
	return p
}

func TestResponseParser_Structured(t *testing.T) {
	// Test: schema-shaped answers are parsed with the structured ceiling
	tests := []struct {
		name           string
		raw            string
		wantConfidence float64
	}{
		{
			name:           "plain object",
			raw:            `{"protocol":"REST","confidence":0.95,"entities":[{"name":"Note","fields":[{"name":"title","type":"string","required":true}]}]}`,
			wantConfidence: 0.9,
		},
		{
			name:           "lower reported confidence wins",
			raw:            `{"confidence":0.7,"entities":[{"name":"Note","fields":[{"name":"title","type":"string"}]}]}`,
			wantConfidence: 0.7,
		},
		{
			name:           "fenced with prose",
			raw:            "Here is the specification:\n```json\n{\"entities\":[{\"name\":\"Note\",\"fields\":[{\"name\":\"title\",\"type\":\"string\"}]}]}\n```\nLet me know!",
			wantConfidence: 0.9,
		},
	}

	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, ParseStructured, res.Mode)
			assert.Empty(t, res.Problem)
			require.NotNil(t, res.Partial)
			assert.Equal(t, SourceModel, res.Partial.Source)
			assert.Equal(t, tt.wantConfidence, res.Partial.Confidence)
			require.Len(t, res.Partial.Entities, 1)
			assert.Equal(t, "Note", res.Partial.Entities[0].Name)
			assert.Equal(t, []spec.Field{{Name: "title", Type: spec.TypeString, Required: true}}, res.Partial.Entities[0].Fields)
		})
	}
}

func TestResponseParser_FullAnswer(t *testing.T) {
	// Test: relations, endpoints, auth, database and defaults are carried over
	raw := `{
	  "protocol": "GRAPHQL",
	  "confidence": 0.8,
	  "entities": [
	    {"name": "Author", "fields": [{"name": "name", "type": "string"}], "relations": [{"toEntity": "Book", "kind": "ONE_TO_MANY"}]},
	    {"name": "Book", "fields": [{"name": "pages", "type": "integer", "required": false, "default": 100}]}
	  ],
	  "endpoints": [{"path": "/books", "action": "LIST", "entityRef": "Book", "authRequired": true}],
	  "auth": {"scheme": "JWT"},
	  "database": {"kind": "SQL"}
	}`

	res := newParser(t).Parse(raw)
	require.Equal(t, ParseStructured, res.Mode)
	part := res.Partial

	assert.Equal(t, spec.ProtocolGraphQL, part.Protocol)
	assert.Equal(t, []spec.Relation{{FromEntity: "Author", ToEntity: "Book", Kind: spec.OneToMany}}, part.Entities[0].Relations)
	pages := part.Entities[1].Fields[0]
	assert.False(t, pages.Required)
	require.NotNil(t, pages.Default)
	assert.Equal(t, "100", *pages.Default)
	assert.Equal(t, []spec.Endpoint{{Path: "/books", Action: spec.ActionList, EntityRef: "Book", AuthRequired: true}}, part.Endpoints)
	assert.Equal(t, &spec.AuthSpec{Scheme: spec.AuthJWT}, part.Auth)
	assert.Equal(t, &spec.DatabaseSpec{Kind: spec.DatabaseSQL}, part.Database)
}

func TestResponseParser_Salvaged(t *testing.T) {
	// Test: JSON with alternative key names is salvaged at a lower confidence
	raw := `{
	  "api_type": "graphql",
	  "models": [{"name": "Book", "attributes": {"title": "string", "pages": "int"}}],
	  "operations": [{"method": "GET", "path": "/books/{id}"}],
	  "auth_required": true
	}`

	res := newParser(t).Parse(raw)
	assert.Equal(t, ParseSalvaged, res.Mode)
	assert.NotEmpty(t, res.Problem)

	part := res.Partial
	assert.Equal(t, 0.45, part.Confidence)
	assert.Equal(t, spec.ProtocolGraphQL, part.Protocol)
	require.Len(t, part.Entities, 1)
	assert.Equal(t, []spec.Field{
		{Name: "pages", Type: spec.TypeInteger, Required: true},
		{Name: "title", Type: spec.TypeString, Required: true},
	}, part.Entities[0].Fields)
	assert.Equal(t, []spec.Endpoint{{Path: "/books/{id}", Action: spec.ActionGet, EntityRef: "Book"}}, part.Endpoints)
	assert.Equal(t, spec.AuthJWT, part.Auth.Scheme)
}

func TestResponseParser_SchemaInvalid(t *testing.T) {
	// Test: decodable JSON that breaks the extraction schema stays below 0.5
	tests := []struct {
		name     string
		raw      string
		wantMode ParseMode
		want     float64
	}{
		{
			name:     "unknown field type",
			raw:      `{"entities":[{"name":"Note","fields":[{"name":"title","type":"varchar"}]}]}`,
			wantMode: ParseSalvaged,
			want:     0.45,
		},
		{
			name:     "missing field type with high reported confidence",
			raw:      `{"confidence":0.95,"entities":[{"name":"Note","fields":[{"name":"title"}]}]}`,
			wantMode: ParseSalvaged,
			want:     0.45,
		},
		{
			name:     "lower reported confidence wins",
			raw:      `{"confidence":0.2,"entities":[{"name":"Note","fields":[{"name":"title","type":"varchar"}]}]}`,
			wantMode: ParseSalvaged,
			want:     0.2,
		},
		{
			name:     "nothing salvageable",
			raw:      `{"protocol":42}`,
			wantMode: ParseSalvaged,
			want:     0.1,
		},
	}

	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, tt.wantMode, res.Mode)
			assert.NotEmpty(t, res.Problem)
			assert.Less(t, res.Partial.Confidence, 0.5)
			assert.Equal(t, tt.want, res.Partial.Confidence)
		})
	}
}

func TestResponseParser_Tolerant(t *testing.T) {
	// Test: malformed output is scanned as text and never raises
	tests := []struct {
		name         string
		raw          string
		wantEntities []string
		wantFields   int
		want         float64
	}{
		{
			name:         "broken object",
			raw:          `entity: Note, fields: title: string, body: text {broken`,
			wantEntities: []string{"Note"},
			wantFields:   2,
			want:         0.35,
		},
		{
			name:         "invalid json inside braces",
			raw:          `{"name": "Task", "fields": [{"name": "title", "type": "string"},]}`,
			wantEntities: []string{"Task"},
			wantFields:   1,
			want:         0.35,
		},
		{
			name: "prose only",
			raw:  "I cannot help with that.",
			want: 0.1,
		},
		{
			name: "empty",
			raw:  "",
			want: 0.1,
		},
	}

	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, ParseTolerant, res.Mode)
			assert.NotEmpty(t, res.Problem)
			require.NotNil(t, res.Partial)
			assert.Equal(t, tt.want, res.Partial.Confidence)
			assert.Less(t, res.Partial.Confidence, 0.5)
			assert.Equal(t, tt.wantEntities, entityNames(res.Partial))
			if tt.wantFields > 0 {
				assert.Len(t, res.Partial.Entities[0].Fields, tt.wantFields)
			}
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	// Test: the outermost object is found around prose and inside strings
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "prose around", raw: `Sure! {"a":{"b":2}} Done.`, want: `{"a":{"b":2}}`},
		{name: "brace in string", raw: `{"a":"}{"}`, want: `{"a":"}{"}`},
		{name: "escaped quote", raw: `{"a":"\"}"}`, want: `{"a":"\"}"}`},
		{name: "unbalanced", raw: `{"a":1`, want: ""},
		{name: "none", raw: `no json`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONObject(tt.raw))
		})
	}
}
