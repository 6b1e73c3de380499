// Package render derives the generator-facing view of a validated
// specification and collects the files a generator produces.
package render

import (
	"fmt"
	"strings"

	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// Context is the local, mutable view a generator renders from. It is built
// from a copy of the validated specification, so generators never share
// state with the caller.
type Context struct {
	Project    string
	Module     string
	Protocol   spec.Protocol
	Framework  string
	Language   string
	Confidence float64

	// Auth is empty when the specification has no auth section
	Auth     spec.AuthScheme
	Database spec.DatabaseKind

	Entities   []*Entity
	JoinTables []JoinTable

	notes []string
}

// Entity is a resource, type or message in generated code
type Entity struct {
	Name   string
	Plural string
	Fields []Field
	Links  []Link

	Endpoints []Endpoint
}

// Field is an entity attribute. The id field is implicit and never listed.
type Field struct {
	Name     string
	Type     spec.FieldType
	Required bool
	Unique   bool
	Default  *string

	// References is the target entity when the field is a foreign key
	References string
}

// Link is a navigable relation from one entity to another
type Link struct {
	Name   string
	Target string
	Many   bool

	// Join is true for many-to-many links, which are stored as id lists
	Join bool
}

// JoinTable backs a many-to-many relation
type JoinTable struct {
	Left  string
	Right string
}

// Endpoint is one operation on an entity
type Endpoint struct {
	Entity       string
	Action       spec.Action
	Path         string
	Operation    string
	AuthRequired bool

	// Explicit is false for the default CRUD set
	Explicit bool

	command string
}

// NewContext builds a render context. Entities without explicit endpoints get
// the default LIST, GET, CREATE, UPDATE and DELETE set.
func NewContext(v *spec.Validated, framework, project string) *Context {
	s := v.Specification()

	project = naming.Snake(project)
	if project == "" {
		project = "generated_api"
	}
	c := &Context{
		Project:    project,
		Module:     project,
		Protocol:   s.Protocol,
		Framework:  framework,
		Language:   s.Language,
		Confidence: s.Confidence,
	}
	if s.Auth != nil {
		c.Auth = s.Auth.Scheme
	}
	if s.Database != nil {
		c.Database = s.Database.Kind
	}

	for _, e := range s.Entities {
		re := &Entity{Name: e.Name, Plural: naming.Pascal(naming.Plural(naming.Snake(e.Name)))}
		for _, f := range e.Fields {
			if f.Name == "id" {
				continue
			}
			re.Fields = append(re.Fields, Field{
				Name:     f.Name,
				Type:     f.Type,
				Required: f.Required,
				Unique:   f.Unique,
				Default:  f.Default,
			})
		}
		c.Entities = append(c.Entities, re)
	}

	for _, e := range s.Entities {
		for _, r := range e.Relations {
			c.relate(r)
		}
	}

	c.buildEndpoints(s.Endpoints)
	return c
}

// relate adds foreign keys and links for a relation. The many side of a
// one-to-many relation and the target of a one-to-one relation own the key.
func (c *Context) relate(r spec.Relation) {
	from, to := c.Entity(r.FromEntity), c.Entity(r.ToEntity)
	if from == nil || to == nil {
		return
	}
	switch r.Kind {
	case spec.OneToMany:
		to.addForeignKey(from.Name, false)
		from.addLink(Link{Name: naming.Snake(to.Plural), Target: to.Name, Many: true})
		to.addLink(Link{Name: naming.Snake(from.Name), Target: from.Name})
	case spec.OneToOne:
		to.addForeignKey(from.Name, true)
		from.addLink(Link{Name: naming.Snake(to.Name), Target: to.Name})
		to.addLink(Link{Name: naming.Snake(from.Name), Target: from.Name})
	case spec.ManyToMany:
		for _, jt := range c.JoinTables {
			if (jt.Left == from.Name && jt.Right == to.Name) || (jt.Left == to.Name && jt.Right == from.Name) {
				return
			}
		}
		c.JoinTables = append(c.JoinTables, JoinTable{Left: from.Name, Right: to.Name})
		from.addLink(Link{Name: naming.Snake(to.Plural), Target: to.Name, Many: true, Join: true})
		to.addLink(Link{Name: naming.Snake(from.Plural), Target: from.Name, Many: true, Join: true})
	}
}

func (e *Entity) addForeignKey(target string, unique bool) {
	name := naming.Snake(target) + "_id"
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			e.Fields[i].References = target
			e.Fields[i].Type = spec.TypeIdentifier
			e.Fields[i].Unique = e.Fields[i].Unique || unique
			return
		}
	}
	e.Fields = append(e.Fields, Field{Name: name, Type: spec.TypeIdentifier, Unique: unique, References: target})
}

func (e *Entity) addLink(l Link) {
	for _, f := range e.Fields {
		if f.Name == l.Name {
			return
		}
	}
	for _, existing := range e.Links {
		if existing.Name == l.Name {
			return
		}
	}
	e.Links = append(e.Links, l)
}

func (c *Context) buildEndpoints(explicit []spec.Endpoint) {
	for _, e := range c.Entities {
		for _, ep := range explicit {
			if ep.EntityRef != e.Name {
				continue
			}
			out := Endpoint{
				Entity:       e.Name,
				Action:       ep.Action,
				Path:         e.normalizePath(ep.Action, ep.Path),
				AuthRequired: ep.AuthRequired,
				Explicit:     true,
			}
			out.Operation = e.operation(ep.Action, ep.Path)
			if e.routed(out) {
				c.Note("%s %s of %s is declared twice; the duplicate is skipped", out.Method(), out.Path, e.Name)
				continue
			}
			e.Endpoints = append(e.Endpoints, out)
		}
		if len(e.Endpoints) == 0 {
			for _, a := range spec.DefaultActions {
				e.Endpoints = append(e.Endpoints, Endpoint{
					Entity:       e.Name,
					Action:       a,
					Path:         e.defaultPath(a),
					Operation:    e.operation(a, ""),
					AuthRequired: c.HasAuth(),
				})
			}
		}
		e.uniqueOperations()
	}

	var unguarded []string
	for _, ep := range c.Endpoints() {
		if ep.AuthRequired && !c.HasAuth() {
			unguarded = append(unguarded, ep.Operation)
		}
	}
	if len(unguarded) > 0 {
		c.Note("%s require authentication but no auth scheme was specified; they are generated without a guard",
			strings.Join(unguarded, ", "))
	}
}

func (e *Entity) defaultPath(a spec.Action) string {
	base := "/" + naming.Kebab(e.Plural)
	switch a {
	case spec.ActionGet, spec.ActionUpdate, spec.ActionDelete:
		return base + "/{id}"
	}
	return base
}

// normalizePath turns operation names and relative paths into rooted paths
func (e *Entity) normalizePath(a spec.Action, path string) string {
	path = strings.TrimSpace(path)
	switch {
	case strings.HasPrefix(path, "/"):
		return path
	case path == "" || a != spec.ActionCustom:
		return e.defaultPath(a)
	}
	return "/" + naming.Kebab(e.Plural) + "/" + naming.Kebab(path)
}

func (e *Entity) operation(a spec.Action, path string) string {
	switch a {
	case spec.ActionList:
		return "List" + e.Plural
	case spec.ActionGet:
		return "Get" + e.Name
	case spec.ActionCreate:
		return "Create" + e.Name
	case spec.ActionUpdate:
		return "Update" + e.Name
	case spec.ActionDelete:
		return "Delete" + e.Name
	}
	var words []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") || strings.HasPrefix(seg, ":") ||
			naming.Pascal(seg) == e.Plural || naming.Pascal(seg) == e.Name {
			continue
		}
		words = append(words, seg)
	}
	if len(words) == 0 {
		return "Custom" + e.Name
	}
	return naming.Pascal(strings.Join(words, " ")) + e.Name
}

func (e *Entity) routed(ep Endpoint) bool {
	for _, existing := range e.Endpoints {
		if existing.Method() == ep.Method() && existing.Path == ep.Path {
			return true
		}
	}
	return false
}

// uniqueOperations numbers repeated operation names and derives the command
// verb, e.g. list, search or get-2
func (e *Entity) uniqueOperations() {
	seen := map[string]int{}
	for i := range e.Endpoints {
		ep := &e.Endpoints[i]
		if ep.Action == spec.ActionCustom {
			ep.command = naming.Kebab(strings.TrimSuffix(ep.Operation, e.Name))
		} else {
			ep.command = strings.ToLower(string(ep.Action))
		}
		seen[ep.Operation]++
		if n := seen[ep.Operation]; n > 1 {
			ep.Operation = fmt.Sprintf("%s%d", ep.Operation, n)
			ep.command = fmt.Sprintf("%s-%d", ep.command, n)
		}
	}
}

// Note records a generator-independent warning
func (c *Context) Note(format string, args ...any) {
	c.notes = append(c.notes, fmt.Sprintf(format, args...))
}

// Notes returns the warnings recorded while building the context
func (c *Context) Notes() []string {
	return append([]string(nil), c.notes...)
}

// Entity returns the entity with the given canonical name, or nil
func (c *Context) Entity(name string) *Entity {
	for _, e := range c.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Endpoints returns the endpoints of all entities in entity order
func (c *Context) Endpoints() []Endpoint {
	var out []Endpoint
	for _, e := range c.Entities {
		out = append(out, e.Endpoints...)
	}
	return out
}

// HasAuth reports whether entry points should be guarded
func (c *Context) HasAuth() bool {
	return c.Auth != "" && c.Auth != spec.AuthNone
}

// NeedsAuthGuard reports whether any endpoint is guarded
func (c *Context) NeedsAuthGuard() bool {
	if !c.HasAuth() {
		return false
	}
	for _, ep := range c.Endpoints() {
		if ep.AuthRequired {
			return true
		}
	}
	return false
}

// SQL reports whether a relational schema should be emitted
func (c *Context) SQL() bool {
	return c.Database == spec.DatabaseSQL
}

// UsesTime reports whether any field is a datetime
func (c *Context) UsesTime() bool {
	for _, e := range c.Entities {
		for _, f := range e.Fields {
			if f.Type == spec.TypeDatetime {
				return true
			}
		}
	}
	return false
}

// HasRequiredStrings reports whether any entity validates a required string
func (c *Context) HasRequiredStrings() bool {
	for _, e := range c.Entities {
		if e.HasRequiredStrings() {
			return true
		}
	}
	return false
}

// Package is the project name without separators, usable as a Go or proto
// package name
func (c *Context) Package() string {
	return strings.ReplaceAll(c.Project, "_", "")
}

// Title is the human-readable project name
func (c *Context) Title() string {
	return strings.Join(strings.Fields(strings.ReplaceAll(c.Project, "_", " ")), " ")
}

func (e *Entity) Camel() string       { return naming.Camel(e.Name) }
func (e *Entity) Snake() string       { return naming.Snake(e.Name) }
func (e *Entity) Kebab() string       { return naming.Kebab(e.Name) }
func (e *Entity) PluralCamel() string { return naming.Camel(e.Plural) }
func (e *Entity) PluralKebab() string { return naming.Kebab(e.Plural) }

// Table is the SQL table name
func (e *Entity) Table() string { return naming.Snake(e.Plural) }

// Endpoint returns the first endpoint with the given action
func (e *Entity) Endpoint(a spec.Action) (Endpoint, bool) {
	for _, ep := range e.Endpoints {
		if ep.Action == a {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// HasRequiredStrings reports whether any required field is a plain string
func (e *Entity) HasRequiredStrings() bool {
	for _, f := range e.Fields {
		if f.Required && f.GoType() == "string" {
			return true
		}
	}
	return false
}

func (f Field) Pascal() string { return naming.Pascal(f.Name) }
func (f Field) Camel() string  { return naming.Camel(f.Name) }

func (l Link) Pascal() string { return naming.Pascal(l.Name) }
func (l Link) Camel() string  { return naming.Camel(l.Name) }

// IDs is the Go field holding the ids of a many-to-many link, e.g. TagIDs
func (l Link) IDs() string { return naming.Pascal(naming.Singular(l.Name)) + "IDs" }

// IDsName is the wire name of the id list, e.g. tag_ids
func (l Link) IDsName() string { return naming.Snake(naming.Singular(l.Name)) + "_ids" }

// Name is the join table name, e.g. notes_tags
func (j JoinTable) Name() string {
	return naming.Snake(naming.Plural(naming.Snake(j.Left))) + "_" + naming.Snake(naming.Plural(naming.Snake(j.Right)))
}

func (j JoinTable) LeftColumn() string { return naming.Snake(j.Left) + "_id" }

// RightColumn is prefixed with related_ when both sides are the same entity
func (j JoinTable) RightColumn() string {
	if j.Left == j.Right {
		return "related_" + naming.Snake(j.Right) + "_id"
	}
	return naming.Snake(j.Right) + "_id"
}

// Handler is the unexported Go function name of the endpoint
func (ep Endpoint) Handler() string { return naming.Camel(ep.Operation) }

// Command is the CLI or message verb of the endpoint, e.g. list or search
func (ep Endpoint) Command() string { return ep.command }

// HasID reports whether the endpoint addresses a single record
func (ep Endpoint) HasID() bool {
	switch ep.Action {
	case spec.ActionGet, spec.ActionUpdate, spec.ActionDelete:
		return true
	}
	return strings.Contains(ep.Path, "{id}")
}

// Method is the HTTP method of the endpoint
func (ep Endpoint) Method() string {
	switch ep.Action {
	case spec.ActionList, spec.ActionGet:
		return "GET"
	case spec.ActionCreate, spec.ActionCustom:
		return "POST"
	case spec.ActionUpdate:
		return "PUT"
	case spec.ActionDelete:
		return "DELETE"
	}
	return "POST"
}
