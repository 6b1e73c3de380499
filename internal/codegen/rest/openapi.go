package rest

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/codegen/ddl"
	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/codegen/tmpl"
	"github.com/veridock/text2api/internal/spec"
)

// DocumentFile is the name of the generated OpenAPI document
const DocumentFile = "openapi.yaml"

// OpenAPI renders only the OpenAPI 3 document, for use with an external
// server generator
type OpenAPI struct {
	engine *tmpl.Engine
}

func NewOpenAPI(engine *tmpl.Engine) *OpenAPI {
	return &OpenAPI{engine: engine}
}

func (g *OpenAPI) Protocol() spec.Protocol { return spec.ProtocolREST }
func (g *OpenAPI) Framework() string       { return "openapi" }
func (g *OpenAPI) Description() string     { return "OpenAPI 3 document for external server generators" }

func (g *OpenAPI) Render(ctx context.Context, rc *render.Context) (*render.FileSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := render.NewFileSet()
	for _, n := range rc.Notes() {
		fs.Warn("%s", n)
	}

	doc, err := Document(rc)
	if err != nil {
		return nil, err
	}
	if err := fs.Add(DocumentFile, doc); err != nil {
		return nil, err
	}
	if rc.SQL() {
		if err := fs.AddString(ddl.FileName, ddl.Schema(rc)); err != nil {
			return nil, err
		}
	}
	if err := g.engine.RenderReadme(fs, rc, true,
		"go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen@latest -generate std-http,types -package api "+DocumentFile+" > api.gen.go",
	); err != nil {
		return nil, err
	}
	return fs, nil
}

type document struct {
	OpenAPI    string              `yaml:"openapi"`
	Info       info                `yaml:"info"`
	Paths      map[string]pathItem `yaml:"paths"`
	Components components          `yaml:"components"`
}

type info struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
}

// pathItem maps lower-case HTTP methods to operations
type pathItem map[string]*operation

type operation struct {
	OperationID string                `yaml:"operationId"`
	Tags        []string              `yaml:"tags,omitempty"`
	Parameters  []parameter           `yaml:"parameters,omitempty"`
	RequestBody *requestBody          `yaml:"requestBody,omitempty"`
	Responses   map[string]response   `yaml:"responses"`
	Security    []map[string][]string `yaml:"security,omitempty"`
}

type parameter struct {
	Name     string  `yaml:"name"`
	In       string  `yaml:"in"`
	Required bool    `yaml:"required"`
	Schema   *schema `yaml:"schema"`
}

type requestBody struct {
	Required bool                 `yaml:"required"`
	Content  map[string]mediaType `yaml:"content"`
}

type mediaType struct {
	Schema *schema `yaml:"schema"`
}

type response struct {
	Description string               `yaml:"description"`
	Content     map[string]mediaType `yaml:"content,omitempty"`
}

type schema struct {
	Ref        string             `yaml:"$ref,omitempty"`
	Type       string             `yaml:"type,omitempty"`
	Format     string             `yaml:"format,omitempty"`
	ReadOnly   bool               `yaml:"readOnly,omitempty"`
	Default    any                `yaml:"default,omitempty"`
	Items      *schema            `yaml:"items,omitempty"`
	Properties map[string]*schema `yaml:"properties,omitempty"`
	Required   []string           `yaml:"required,omitempty"`
}

type components struct {
	Schemas         map[string]*schema        `yaml:"schemas"`
	SecuritySchemes map[string]securityScheme `yaml:"securitySchemes,omitempty"`
}

type securityScheme struct {
	Type         string      `yaml:"type"`
	Scheme       string      `yaml:"scheme,omitempty"`
	BearerFormat string      `yaml:"bearerFormat,omitempty"`
	Flows        *oauthFlows `yaml:"flows,omitempty"`
}

type oauthFlows struct {
	ClientCredentials oauthFlow `yaml:"clientCredentials"`
}

type oauthFlow struct {
	TokenURL string            `yaml:"tokenUrl"`
	Scopes   map[string]string `yaml:"scopes"`
}

const securityName = "auth"

// Document renders the OpenAPI 3 document of a render context. Guarded
// endpoints carry a per-operation security requirement.
func Document(rc *render.Context) ([]byte, error) {
	doc := document{
		OpenAPI: "3.0.3",
		Info: info{
			Title:       rc.Title(),
			Version:     "0.1.0",
			Description: "Generated by text2api.",
		},
		Paths: map[string]pathItem{},
		Components: components{
			Schemas: map[string]*schema{
				"Error": {
					Type:       "object",
					Properties: map[string]*schema{"error": {Type: "string"}},
					Required:   []string{"error"},
				},
			},
		},
	}
	if scheme, ok := securitySchemeFor(rc.Auth); ok && rc.NeedsAuthGuard() {
		doc.Components.SecuritySchemes = map[string]securityScheme{securityName: scheme}
	}

	for _, e := range rc.Entities {
		doc.Components.Schemas[e.Name] = entitySchema(e)
		for _, ep := range e.Endpoints {
			item := doc.Paths[ep.Path]
			if item == nil {
				item = pathItem{}
				doc.Paths[ep.Path] = item
			}
			method := strings.ToLower(ep.Method())
			if _, dup := item[method]; dup {
				return nil, fmt.Errorf("%s %s is declared twice", ep.Method(), ep.Path)
			}
			item[method] = endpointOperation(rc, e, ep)
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	return out, nil
}

func securitySchemeFor(auth spec.AuthScheme) (securityScheme, bool) {
	switch auth {
	case spec.AuthBasic:
		return securityScheme{Type: "http", Scheme: "basic"}, true
	case spec.AuthJWT:
		return securityScheme{Type: "http", Scheme: "bearer", BearerFormat: "JWT"}, true
	case spec.AuthOAuth:
		return securityScheme{Type: "oauth2", Flows: &oauthFlows{
			ClientCredentials: oauthFlow{TokenURL: "/oauth/token", Scopes: map[string]string{}},
		}}, true
	}
	return securityScheme{}, false
}

func entitySchema(e *render.Entity) *schema {
	s := &schema{
		Type:       "object",
		Properties: map[string]*schema{"id": {Type: "string", ReadOnly: true}},
		Required:   []string{"id"},
	}
	for _, f := range e.Fields {
		s.Properties[f.Name] = &schema{Type: f.OpenAPIType(), Format: f.OpenAPIFormat(), Default: f.DefaultValue()}
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	for _, l := range e.Links {
		if l.Join {
			s.Properties[l.IDsName()] = &schema{Type: "array", Items: &schema{Type: "string"}}
		}
	}
	return s
}

func endpointOperation(rc *render.Context, e *render.Entity, ep render.Endpoint) *operation {
	ref := &schema{Ref: "#/components/schemas/" + e.Name}
	errorBody := map[string]mediaType{"application/json": {Schema: &schema{Ref: "#/components/schemas/Error"}}}
	op := &operation{
		OperationID: ep.Handler(),
		Tags:        []string{e.Name},
		Responses:   map[string]response{},
	}
	for _, name := range pathParams(ep.Path) {
		op.Parameters = append(op.Parameters, parameter{Name: name, In: "path", Required: true, Schema: &schema{Type: "string"}})
	}

	switch ep.Action {
	case spec.ActionList:
		op.Responses["200"] = response{Description: "list of " + e.PluralKebab(),
			Content: map[string]mediaType{"application/json": {Schema: &schema{Type: "array", Items: ref}}}}
	case spec.ActionGet:
		op.Responses["200"] = response{Description: e.Kebab(), Content: map[string]mediaType{"application/json": {Schema: ref}}}
	case spec.ActionCreate:
		op.RequestBody = &requestBody{Required: true, Content: map[string]mediaType{"application/json": {Schema: ref}}}
		op.Responses["201"] = response{Description: "created", Content: map[string]mediaType{"application/json": {Schema: ref}}}
		op.Responses["400"] = response{Description: "malformed body", Content: errorBody}
		op.Responses["422"] = response{Description: "invalid " + e.Kebab(), Content: errorBody}
	case spec.ActionUpdate:
		op.RequestBody = &requestBody{Required: true, Content: map[string]mediaType{"application/json": {Schema: ref}}}
		op.Responses["200"] = response{Description: "updated", Content: map[string]mediaType{"application/json": {Schema: ref}}}
		op.Responses["400"] = response{Description: "malformed body", Content: errorBody}
		op.Responses["422"] = response{Description: "invalid " + e.Kebab(), Content: errorBody}
	case spec.ActionDelete:
		op.Responses["204"] = response{Description: "deleted"}
	default:
		op.Responses["501"] = response{Description: "not implemented", Content: errorBody}
	}
	if ep.HasID() && len(op.Parameters) > 0 {
		op.Responses["404"] = response{Description: "not found", Content: errorBody}
	}
	if ep.AuthRequired && rc.HasAuth() {
		op.Security = []map[string][]string{{securityName: {}}}
		op.Responses["401"] = response{Description: "unauthorized", Content: errorBody}
	}
	return op
}

// pathParams returns the names of {param} segments in order
func pathParams(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2 {
			out = append(out, seg[1:len(seg)-1])
		}
	}
	return out
}
