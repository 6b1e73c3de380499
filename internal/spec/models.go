// Package spec holds the API specification extracted from a text description
// and the validator that turns a candidate into an immutable Validated value.
package spec

import "strings"

// Protocol identifies the output shape a specification is generated for
type Protocol string

const (
	ProtocolREST        Protocol = "REST"
	ProtocolGraphQL     Protocol = "GRAPHQL"
	ProtocolRPC         Protocol = "RPC"
	ProtocolSocket      Protocol = "SOCKET"
	ProtocolCommandLine Protocol = "COMMAND_LINE"
)

// Protocols lists every protocol in display order
var Protocols = []Protocol{ProtocolREST, ProtocolGraphQL, ProtocolRPC, ProtocolSocket, ProtocolCommandLine}

// Valid returns true if p is a known protocol
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolREST, ProtocolGraphQL, ProtocolRPC, ProtocolSocket, ProtocolCommandLine:
		return true
	default:
		return false
	}
}

// ParseProtocol canonicalizes a user-supplied protocol name: case and
// dashes are ignored and "cli" means COMMAND_LINE. Empty input returns "".
func ParseProtocol(s string) Protocol {
	p := strings.ToUpper(strings.TrimSpace(s))
	p = strings.ReplaceAll(strings.ReplaceAll(p, "-", "_"), " ", "_")
	if p == "CLI" {
		return ProtocolCommandLine
	}
	return Protocol(p)
}

// FieldType is the scalar type of an entity field
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeInteger    FieldType = "integer"
	TypeFloat      FieldType = "float"
	TypeBoolean    FieldType = "boolean"
	TypeDatetime   FieldType = "datetime"
	TypeIdentifier FieldType = "identifier"
)

// Valid returns true if t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDatetime, TypeIdentifier:
		return true
	default:
		return false
	}
}

// RelationKind is the cardinality of a relation
type RelationKind string

const (
	OneToOne   RelationKind = "ONE_TO_ONE"
	OneToMany  RelationKind = "ONE_TO_MANY"
	ManyToMany RelationKind = "MANY_TO_MANY"
)

// Valid returns true if k is a known relation kind
func (k RelationKind) Valid() bool {
	switch k {
	case OneToOne, OneToMany, ManyToMany:
		return true
	default:
		return false
	}
}

// Action is the operation an endpoint performs on its entity
type Action string

const (
	ActionList   Action = "LIST"
	ActionGet    Action = "GET"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionCustom Action = "CUSTOM"
)

// DefaultActions is the endpoint set generated for an entity without explicit endpoints
var DefaultActions = []Action{ActionList, ActionGet, ActionCreate, ActionUpdate, ActionDelete}

// Valid returns true if a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionList, ActionGet, ActionCreate, ActionUpdate, ActionDelete, ActionCustom:
		return true
	default:
		return false
	}
}

// AuthScheme is the authentication scheme required by generated entry points
type AuthScheme string

const (
	AuthNone  AuthScheme = "NONE"
	AuthJWT   AuthScheme = "JWT"
	AuthOAuth AuthScheme = "OAUTH"
	AuthBasic AuthScheme = "BASIC"
)

// DatabaseKind is the storage family the generated project targets
type DatabaseKind string

const (
	DatabaseSQL      DatabaseKind = "SQL"
	DatabaseDocument DatabaseKind = "DOCUMENT"
	DatabaseCache    DatabaseKind = "CACHE"
	DatabaseNone     DatabaseKind = "NONE"
)

// Specification is the root of an extracted API description
type Specification struct {
	Protocol   Protocol      `json:"protocol"`
	Framework  string        `json:"framework"`
	Language   string        `json:"language"`
	Confidence float64       `json:"confidence"`
	Entities   []Entity      `json:"entities"`
	Endpoints  []Endpoint    `json:"endpoints"`
	Auth       *AuthSpec     `json:"auth,omitempty"`
	Database   *DatabaseSpec `json:"database,omitempty"`
}

// Entity is a named resource with fields and relations
type Entity struct {
	Name      string     `json:"name"`
	Fields    []Field    `json:"fields"`
	Relations []Relation `json:"relations"`
}

// Field is a single attribute of an entity. Default holds the literal text of
// the default value, if any.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Unique   bool      `json:"unique"`
	Default  *string   `json:"default,omitempty"`
}

// Relation links two entities with a cardinality
type Relation struct {
	FromEntity string       `json:"fromEntity"`
	ToEntity   string       `json:"toEntity"`
	Kind       RelationKind `json:"kind"`
}

// Endpoint is an operation exposed for an entity. Path holds a URL path for
// REST or an operation name for other protocols.
type Endpoint struct {
	Path         string `json:"path"`
	Action       Action `json:"action"`
	EntityRef    string `json:"entityRef"`
	AuthRequired bool   `json:"authRequired"`
}

// AuthSpec describes authentication requirements
type AuthSpec struct {
	Scheme AuthScheme `json:"scheme"`
}

// DatabaseSpec describes the storage requirement
type DatabaseSpec struct {
	Kind DatabaseKind `json:"kind"`
}

// Entity returns the entity with the given name, comparing case-insensitively
func (s *Specification) Entity(name string) (*Entity, bool) {
	for i := range s.Entities {
		if sameName(s.Entities[i].Name, name) {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// Field returns the field with the given name, comparing case-insensitively
func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		if sameName(e.Fields[i].Name, name) {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the specification
func (s Specification) Clone() Specification {
	out := s
	if s.Entities != nil {
		out.Entities = make([]Entity, len(s.Entities))
		for i, e := range s.Entities {
			out.Entities[i] = e.Clone()
		}
	}
	if s.Endpoints != nil {
		out.Endpoints = append([]Endpoint(nil), s.Endpoints...)
	}
	if s.Auth != nil {
		a := *s.Auth
		out.Auth = &a
	}
	if s.Database != nil {
		d := *s.Database
		out.Database = &d
	}
	return out
}

// Clone returns a deep copy of the entity
func (e Entity) Clone() Entity {
	out := e
	if e.Fields != nil {
		out.Fields = make([]Field, len(e.Fields))
		for i, f := range e.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	if e.Relations != nil {
		out.Relations = append([]Relation(nil), e.Relations...)
	}
	return out
}

// Clone returns a deep copy of the field
func (f Field) Clone() Field {
	if f.Default != nil {
		d := *f.Default
		f.Default = &d
	}
	return f
}

// NormalizeFieldType maps loose type names produced by models and
// heuristics onto the closed FieldType set. Unknown names map to string.
func NormalizeFieldType(t string) FieldType {
	switch lower(t) {
	case "string", "str", "text", "varchar", "char", "email", "url", "enum", "array", "object", "json", "list":
		return TypeString
	case "integer", "int", "int32", "int64", "long", "bigint", "smallint", "serial":
		return TypeInteger
	case "float", "double", "decimal", "number", "float32", "float64", "real", "money", "numeric":
		return TypeFloat
	case "boolean", "bool", "flag", "bit":
		return TypeBoolean
	case "datetime", "date", "time", "timestamp", "time.time", "date-time":
		return TypeDatetime
	case "identifier", "id", "uuid", "objectid", "key", "guid":
		return TypeIdentifier
	}
	return TypeString
}
