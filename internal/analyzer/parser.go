package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// ParseMode tells how much structure was recovered from a model answer
type ParseMode string

const (
	// ParseStructured means the answer matched the extraction schema
	ParseStructured ParseMode = "structured"

	// ParseSalvaged means the answer was JSON but broke the schema
	ParseSalvaged ParseMode = "salvaged"

	// ParseTolerant means the answer was not JSON and was scanned as text
	ParseTolerant ParseMode = "tolerant"
)

// confidence ceilings per parse mode; anything short of a schema-valid
// answer stays below 0.5
const (
	structuredConfidence = 0.9
	salvagedConfidence   = 0.45
	tolerantConfidence   = 0.1
)

// ParseResult is the outcome of parsing a model answer
type ParseResult struct {
	Partial *Partial
	Mode    ParseMode
	Problem string
}

// ResponseParser turns raw model output into a Partial. It never fails:
// malformed answers lower the confidence instead.
type ResponseParser struct {
	schema *jsonschema.Schema
}

// NewResponseParser compiles the extraction schema
func NewResponseParser() (*ResponseParser, error) {
	schema, err := compileExtractionSchema()
	if err != nil {
		return nil, err
	}
	return &ResponseParser{schema: schema}, nil
}

// Parse reads raw model output
func (p *ResponseParser) Parse(raw string) ParseResult {
	body := extractJSONObject(raw)
	if body == "" {
		return p.tolerant(raw, "no JSON object in model output")
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return p.tolerant(raw, fmt.Sprintf("model output is not valid JSON: %v", err))
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return p.tolerant(raw, "model output is not a JSON object")
	}

	part := salvage(obj)
	reported, hasReported := number(obj["confidence"])
	hasReported = hasReported && reported > 0 && reported <= 1

	if err := p.schema.Validate(doc); err != nil {
		problem := fmt.Sprintf("model output does not match the extraction schema: %v", err)
		ceiling := salvagedConfidence
		if !part.HasEntities() {
			if tol := p.tolerant(raw, problem); tol.Partial.HasEntities() {
				return tol
			}
			ceiling = tolerantConfidence
		}
		part.Confidence = ceiling
		if hasReported && reported < ceiling {
			part.Confidence = reported
		}
		return ParseResult{Partial: part, Mode: ParseSalvaged, Problem: problem}
	}

	part.Confidence = structuredConfidence
	if hasReported && reported < structuredConfidence {
		part.Confidence = reported
	}
	return ParseResult{Partial: part, Mode: ParseStructured}
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSONObject returns the outermost balanced JSON object in raw,
// ignoring code fences and prose around it
func extractJSONObject(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth, inString, escaped := 0, false, false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

var (
	tolerantEntityPattern = regexp.MustCompile(`"?(?i:entity|model|resource|table|name)"?\s*[:=]\s*"?([A-Z][A-Za-z0-9_]*)`)
	tolerantFieldPattern  = regexp.MustCompile(`"?([a-z_][a-z0-9_]*)"?\s*[:=]\s*"?(string|text|integer|int|float|double|number|boolean|bool|datetime|date|timestamp|identifier|uuid)\b`)
	tolerantObjectPattern = regexp.MustCompile(`"name"\s*:\s*"([a-z_][a-z0-9_]*)"\s*,\s*"type"\s*:\s*"(\w+)"`)
	tolerantSkipKeys      = set("type", "kind", "action", "name", "path", "protocol", "scheme")
)

// tolerant scans text for entity and field phrases
func (p *ResponseParser) tolerant(raw, problem string) ParseResult {
	type hit struct {
		offset int
		entity string
		field  spec.Field
	}
	var hits []hit

	for _, m := range tolerantEntityPattern.FindAllStringSubmatchIndex(raw, -1) {
		hits = append(hits, hit{offset: m[0], entity: raw[m[2]:m[3]]})
	}
	for _, m := range tolerantFieldPattern.FindAllStringSubmatchIndex(raw, -1) {
		name := raw[m[2]:m[3]]
		if tolerantSkipKeys[name] {
			continue
		}
		hits = append(hits, hit{offset: m[0], field: spec.Field{Name: name, Type: spec.NormalizeFieldType(raw[m[4]:m[5]])}})
	}
	for _, m := range tolerantObjectPattern.FindAllStringSubmatchIndex(raw, -1) {
		hits = append(hits, hit{offset: m[0], field: spec.Field{Name: raw[m[2]:m[3]], Type: spec.NormalizeFieldType(raw[m[4]:m[5]])}})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })

	part := &Partial{Source: SourceModel}
	current := -1
	hasFields := false
	for _, h := range hits {
		if h.entity != "" {
			current = -1
			for i := range part.Entities {
				if strings.EqualFold(part.Entities[i].Name, h.entity) {
					current = i
				}
			}
			if current < 0 {
				current = len(part.Entities)
				part.Entities = append(part.Entities, spec.Entity{Name: h.entity})
			}
			continue
		}
		if current < 0 {
			continue
		}
		e := &part.Entities[current]
		if _, dup := e.Field(h.field.Name); !dup {
			e.Fields = append(e.Fields, h.field)
			hasFields = true
		}
	}

	part.Confidence = tolerantConfidence
	if part.HasEntities() {
		part.Confidence += 0.15
	}
	if hasFields {
		part.Confidence += 0.1
	}
	part.Confidence = math.Round(part.Confidence*100) / 100
	return ParseResult{Partial: part, Mode: ParseTolerant, Problem: problem}
}

// salvage maps a decoded answer onto a Partial, accepting common variations
// of key names and value spellings
func salvage(obj map[string]any) *Partial {
	part := &Partial{Source: SourceModel}

	if v, ok := firstKey(obj, "protocol", "api_type", "apiType"); ok {
		part.Protocol = protocolFrom(str(v))
	}

	if v, ok := firstKey(obj, "entities", "models", "main_entities"); ok {
		for _, item := range list(v) {
			if e, ok := entityFrom(item); ok {
				part.Entities = append(part.Entities, e)
			}
		}
	}

	if v, ok := firstKey(obj, "endpoints", "operations"); ok {
		for _, item := range list(v) {
			if ep, ok := endpointFrom(item, part.Entities); ok {
				part.Endpoints = append(part.Endpoints, ep)
			}
		}
	}

	if v, ok := obj["auth"]; ok && v != nil {
		if scheme := authFrom(v); scheme != "" {
			part.Auth = &spec.AuthSpec{Scheme: scheme}
		}
	} else if b, ok := obj["auth_required"].(bool); ok && b {
		part.Auth = &spec.AuthSpec{Scheme: spec.AuthJWT}
	}

	if v, ok := obj["database"]; ok && v != nil {
		if kind := databaseFrom(v); kind != "" {
			part.Database = &spec.DatabaseSpec{Kind: kind}
		}
	} else if b, ok := obj["database_required"].(bool); ok && b {
		part.Database = &spec.DatabaseSpec{Kind: spec.DatabaseSQL}
	}

	return part
}

func entityFrom(v any) (spec.Entity, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return spec.Entity{}, false
		}
		return spec.Entity{Name: strings.TrimSpace(t)}, true
	case map[string]any:
		nameV, _ := firstKey(t, "name", "entity", "title")
		name := strings.TrimSpace(str(nameV))
		if name == "" {
			return spec.Entity{}, false
		}
		e := spec.Entity{Name: name}
		if fv, ok := firstKey(t, "fields", "attributes", "properties"); ok {
			e.Fields = fieldsFrom(fv)
		}
		if rv, ok := firstKey(t, "relations", "relationships"); ok {
			for _, item := range list(rv) {
				if r, ok := relationFrom(name, item); ok {
					e.Relations = append(e.Relations, r)
				}
			}
		}
		return e, true
	}
	return spec.Entity{}, false
}

func fieldsFrom(v any) []spec.Field {
	var out []spec.Field
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			switch f := item.(type) {
			case string:
				name, typ, _ := strings.Cut(f, ":")
				if strings.TrimSpace(name) != "" {
					out = append(out, spec.Field{Name: strings.TrimSpace(name), Type: spec.NormalizeFieldType(typ), Required: true})
				}
			case map[string]any:
				if field, ok := fieldFrom(str(f["name"]), f); ok {
					out = append(out, field)
				}
			}
		}
	case map[string]any:
		// {"title": "string"} or {"title": {"type": "string"}}
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, name := range names {
			switch f := t[name].(type) {
			case string:
				out = append(out, spec.Field{Name: name, Type: spec.NormalizeFieldType(f), Required: true})
			case map[string]any:
				if field, ok := fieldFrom(name, f); ok {
					out = append(out, field)
				}
			}
		}
	}
	return out
}

func fieldFrom(name string, m map[string]any) (spec.Field, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return spec.Field{}, false
	}
	f := spec.Field{Name: name, Type: spec.NormalizeFieldType(str(m["type"])), Required: true}
	if b, ok := m["required"].(bool); ok {
		f.Required = b
	}
	if b, ok := m["unique"].(bool); ok {
		f.Unique = b
	}
	if d, ok := m["default"]; ok {
		f.Default = literal(d)
	}
	return f, true
}

func relationFrom(owner string, v any) (spec.Relation, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return spec.Relation{}, false
	}
	toV, _ := firstKey(m, "toEntity", "to", "target", "entity")
	to := strings.TrimSpace(str(toV))
	if to == "" {
		return spec.Relation{}, false
	}
	from := owner
	if fv, ok := firstKey(m, "fromEntity", "from"); ok && str(fv) != "" {
		from = str(fv)
	}

	kind := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(str(m["kind"]))))
	switch kind {
	case string(spec.OneToOne), "HAS_ONE", "ONE":
		return spec.Relation{FromEntity: from, ToEntity: to, Kind: spec.OneToOne}, true
	case string(spec.ManyToMany):
		return spec.Relation{FromEntity: from, ToEntity: to, Kind: spec.ManyToMany}, true
	case "MANY_TO_ONE", "BELONGS_TO":
		return spec.Relation{FromEntity: to, ToEntity: from, Kind: spec.OneToMany}, true
	default:
		return spec.Relation{FromEntity: from, ToEntity: to, Kind: spec.OneToMany}, true
	}
}

func endpointFrom(v any, entities []spec.Entity) (spec.Endpoint, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return spec.Endpoint{}, false
	}
	path := strings.TrimSpace(str(m["path"]))
	if path == "" {
		path = strings.TrimSpace(str(m["name"]))
	}

	action := spec.Action(strings.ToUpper(str(m["action"])))
	if !action.Valid() {
		action = actionFromMethod(str(m["method"]), path)
	}

	refV, _ := firstKey(m, "entityRef", "entity", "resource")
	ref := strings.TrimSpace(str(refV))
	if ref == "" {
		ref = entityFromPath(path, entities)
	}
	if ref == "" {
		return spec.Endpoint{}, false
	}

	ep := spec.Endpoint{Path: path, Action: action, EntityRef: ref}
	if b, ok := firstKey(m, "authRequired", "auth_required"); ok {
		ep.AuthRequired, _ = b.(bool)
	}
	return ep, true
}

func actionFromMethod(method, path string) spec.Action {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "GET":
		if strings.Contains(path, "{") || strings.Contains(path, "/:") {
			return spec.ActionGet
		}
		return spec.ActionList
	case "POST":
		return spec.ActionCreate
	case "PUT", "PATCH":
		return spec.ActionUpdate
	case "DELETE":
		return spec.ActionDelete
	}
	return spec.ActionCustom
}

// entityFromPath matches the first path segment against known entities
func entityFromPath(path string, entities []spec.Entity) string {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") || strings.HasPrefix(seg, ":") || seg == "api" || strings.HasPrefix(seg, "v1") {
			continue
		}
		candidate := naming.Pascal(naming.Singular(seg))
		for _, e := range entities {
			if strings.EqualFold(naming.Pascal(e.Name), candidate) {
				return e.Name
			}
		}
		return ""
	}
	return ""
}

func protocolFrom(s string) spec.Protocol {
	switch strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))) {
	case "REST", "RESTFUL", "HTTP":
		return spec.ProtocolREST
	case "GRAPHQL":
		return spec.ProtocolGraphQL
	case "RPC", "GRPC", "CONNECT", "CONNECTRPC":
		return spec.ProtocolRPC
	case "SOCKET", "WEBSOCKET", "WEBSOCKETS", "WS":
		return spec.ProtocolSocket
	case "CLI", "COMMAND_LINE", "COMMANDLINE":
		return spec.ProtocolCommandLine
	}
	return ""
}

func authFrom(v any) spec.AuthScheme {
	s := str(v)
	if m, ok := v.(map[string]any); ok {
		s = str(m["scheme"])
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JWT", "BEARER", "TOKEN":
		return spec.AuthJWT
	case "OAUTH", "OAUTH2":
		return spec.AuthOAuth
	case "BASIC":
		return spec.AuthBasic
	case "NONE":
		return spec.AuthNone
	}
	return ""
}

func databaseFrom(v any) spec.DatabaseKind {
	s := str(v)
	if m, ok := v.(map[string]any); ok {
		s = str(m["kind"])
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SQL", "POSTGRES", "POSTGRESQL", "MYSQL", "SQLITE", "RELATIONAL":
		return spec.DatabaseSQL
	case "DOCUMENT", "MONGODB", "MONGO", "NOSQL":
		return spec.DatabaseDocument
	case "CACHE", "REDIS":
		return spec.DatabaseCache
	case "NONE":
		return spec.DatabaseNone
	}
	return ""
}

func firstKey(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok && !math.IsNaN(f)
}

// literal stores a default value in its textual form
func literal(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}
