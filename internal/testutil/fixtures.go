// Package testutil holds specification fixtures and fakes shared by tests
package testutil

import (
	"testing"

	"github.com/veridock/text2api/internal/spec"
)

// Validate validates s and fails the test on violations
func Validate(t testing.TB, s spec.Specification) *spec.Validated {
	t.Helper()
	v, err := spec.Validate(s)
	if err != nil {
		t.Fatalf("fixture does not validate: %v", err)
	}
	return v
}

func ptr(s string) *string { return &s }

// NotesSpec is a single Note{title, body} entity without endpoints, as
// extracted from "Simple note API with title and body"
func NotesSpec(protocol spec.Protocol) spec.Specification {
	return spec.Specification{
		Protocol:   protocol,
		Language:   "en",
		Confidence: 0.5,
		Entities: []spec.Entity{{
			Name: "Note",
			Fields: []spec.Field{
				{Name: "title", Type: spec.TypeString, Required: true},
				{Name: "body", Type: spec.TypeString},
			},
		}},
	}
}

// BlogSpec exercises every feature: a one-to-many and a many-to-many
// relation, every field type, defaults, explicit and custom endpoints, JWT
// auth and a SQL database
func BlogSpec(protocol spec.Protocol) spec.Specification {
	return spec.Specification{
		Protocol:   protocol,
		Language:   "en",
		Confidence: 0.8,
		Entities: []spec.Entity{
			{
				Name: "Author",
				Fields: []spec.Field{
					{Name: "name", Type: spec.TypeString, Required: true},
					{Name: "email", Type: spec.TypeString, Required: true, Unique: true},
				},
				Relations: []spec.Relation{{FromEntity: "Author", ToEntity: "Post", Kind: spec.OneToMany}},
			},
			{
				Name: "Post",
				Fields: []spec.Field{
					{Name: "title", Type: spec.TypeString, Required: true},
					{Name: "views", Type: spec.TypeInteger, Default: ptr("0")},
					{Name: "rating", Type: spec.TypeFloat},
					{Name: "published", Type: spec.TypeBoolean, Default: ptr("false")},
					{Name: "published_at", Type: spec.TypeDatetime},
				},
				Relations: []spec.Relation{{FromEntity: "Post", ToEntity: "Tag", Kind: spec.ManyToMany}},
			},
			{
				Name:   "Tag",
				Fields: []spec.Field{{Name: "label", Type: spec.TypeString, Required: true, Unique: true}},
			},
		},
		Endpoints: []spec.Endpoint{
			{Path: "/posts", Action: spec.ActionList, EntityRef: "Post"},
			{Path: "/posts/{id}", Action: spec.ActionGet, EntityRef: "Post"},
			{Path: "/posts", Action: spec.ActionCreate, EntityRef: "Post", AuthRequired: true},
			{Path: "/posts/{id}", Action: spec.ActionDelete, EntityRef: "Post", AuthRequired: true},
			{Path: "/posts/search", Action: spec.ActionCustom, EntityRef: "Post"},
		},
		Auth:     &spec.AuthSpec{Scheme: spec.AuthJWT},
		Database: &spec.DatabaseSpec{Kind: spec.DatabaseSQL},
	}
}

// WithAuth returns s with the auth scheme replaced
func WithAuth(s spec.Specification, scheme spec.AuthScheme) spec.Specification {
	s = s.Clone()
	s.Auth = &spec.AuthSpec{Scheme: scheme}
	return s
}
