package render

import (
	"strconv"
	"strings"

	"github.com/veridock/text2api/internal/spec"
)

var goTypes = map[spec.FieldType]string{
	spec.TypeString:     "string",
	spec.TypeInteger:    "int64",
	spec.TypeFloat:      "float64",
	spec.TypeBoolean:    "bool",
	spec.TypeDatetime:   "time.Time",
	spec.TypeIdentifier: "string",
}

var sqlTypes = map[spec.FieldType]string{
	spec.TypeString:     "TEXT",
	spec.TypeInteger:    "BIGINT",
	spec.TypeFloat:      "DOUBLE PRECISION",
	spec.TypeBoolean:    "BOOLEAN",
	spec.TypeDatetime:   "TIMESTAMP",
	spec.TypeIdentifier: "TEXT",
}

var graphqlTypes = map[spec.FieldType]string{
	spec.TypeString:     "String",
	spec.TypeInteger:    "Int",
	spec.TypeFloat:      "Float",
	spec.TypeBoolean:    "Boolean",
	spec.TypeDatetime:   "Time",
	spec.TypeIdentifier: "ID",
}

var protoTypes = map[spec.FieldType]string{
	spec.TypeString:     "string",
	spec.TypeInteger:    "int64",
	spec.TypeFloat:      "double",
	spec.TypeBoolean:    "bool",
	spec.TypeDatetime:   "google.protobuf.Timestamp",
	spec.TypeIdentifier: "string",
}

// openAPITypes maps field types to an OpenAPI type and format
var openAPITypes = map[spec.FieldType][2]string{
	spec.TypeString:     {"string", ""},
	spec.TypeInteger:    {"integer", "int64"},
	spec.TypeFloat:      {"number", "double"},
	spec.TypeBoolean:    {"boolean", ""},
	spec.TypeDatetime:   {"string", "date-time"},
	spec.TypeIdentifier: {"string", ""},
}

func (f Field) GoType() string      { return lookup(goTypes, f.Type, "string") }
func (f Field) SQLType() string     { return lookup(sqlTypes, f.Type, "TEXT") }
func (f Field) GraphQLType() string { return lookup(graphqlTypes, f.Type, "String") }
func (f Field) ProtoType() string   { return lookup(protoTypes, f.Type, "string") }

func (f Field) OpenAPIType() string   { return openAPITypes[f.Type][0] }
func (f Field) OpenAPIFormat() string { return openAPITypes[f.Type][1] }

func lookup(m map[spec.FieldType]string, t spec.FieldType, fallback string) string {
	if v, ok := m[t]; ok {
		return v
	}
	return fallback
}

// DefaultValue converts the textual default to a typed value, or nil when the
// field has no default or the text does not parse as the field type
func (f Field) DefaultValue() any {
	if f.Default == nil {
		return nil
	}
	d := *f.Default
	switch f.Type {
	case spec.TypeInteger:
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			return n
		}
		return nil
	case spec.TypeFloat:
		if n, err := strconv.ParseFloat(d, 64); err == nil {
			return n
		}
		return nil
	case spec.TypeBoolean:
		if b, err := strconv.ParseBool(d); err == nil {
			return b
		}
		return nil
	}
	return d
}

// SQLDefault is the DEFAULT clause literal, or "" when there is none
func (f Field) SQLDefault() string {
	v := f.DefaultValue()
	switch t := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strings.ToUpper(strconv.FormatBool(t))
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	}
	return ""
}
