// Package schema reads GraphQL SDL documents. The GraphQL generator uses it to
// check the schema it emits before anything is written.
package schema

// Schema is the shape of a parsed SDL document
type Schema struct {
	Types      []ObjectType `json:"types"`
	Inputs     []ObjectType `json:"inputs"`
	Enums      []EnumType   `json:"enums"`
	Scalars    []string     `json:"scalars"`
	Directives []string     `json:"directives"`
}

// ObjectType is a "type" or "input" block
type ObjectType struct {
	Name   string  `json:"name"`
	Doc    string  `json:"doc"`
	Fields []Field `json:"fields"`
}

// Field is a field of a type or input. Type is the named type, wrapped in
// brackets for lists, e.g. "[Note]".
type Field struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Required   bool        `json:"required"`
	Args       []Argument  `json:"args,omitempty"`
	Default    string      `json:"default,omitempty"`
	Directives []Directive `json:"directives"`
	Doc        string      `json:"doc"`
}

// Argument is a field argument
type Argument struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type EnumType struct {
	Name   string      `json:"name"`
	Doc    string      `json:"doc"`
	Values []EnumValue `json:"values"`
}

type EnumValue struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// Directive is an applied directive, e.g. @auth
type Directive struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
}

// Type returns the object type with the given name
func (s *Schema) Type(name string) (*ObjectType, bool) {
	return find(s.Types, name)
}

// Input returns the input type with the given name
func (s *Schema) Input(name string) (*ObjectType, bool) {
	return find(s.Inputs, name)
}

func find(types []ObjectType, name string) (*ObjectType, bool) {
	for i := range types {
		if types[i].Name == name {
			return &types[i], true
		}
	}
	return nil, false
}

// Field returns the field with the given name
func (t *ObjectType) Field(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// HasDirective reports whether the directive is applied to the field
func (f *Field) HasDirective(name string) bool {
	for _, d := range f.Directives {
		if d.Name == name {
			return true
		}
	}
	return false
}
