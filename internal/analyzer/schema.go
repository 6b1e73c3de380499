package analyzer

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const extractionSchemaURL = "extraction.schema.json"

// extractionSchema is the shape a well-formed model answer must have
const extractionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["entities"],
  "properties": {
    "protocol": {"enum": ["REST", "GRAPHQL", "RPC", "SOCKET", "COMMAND_LINE"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "entities": {"type": "array", "items": {"$ref": "#/definitions/entity"}},
    "endpoints": {"type": "array", "items": {"$ref": "#/definitions/endpoint"}},
    "auth": {
      "type": ["object", "null"],
      "required": ["scheme"],
      "properties": {"scheme": {"enum": ["NONE", "JWT", "OAUTH", "BASIC"]}}
    },
    "database": {
      "type": ["object", "null"],
      "required": ["kind"],
      "properties": {"kind": {"enum": ["SQL", "DOCUMENT", "CACHE", "NONE"]}}
    }
  },
  "definitions": {
    "entity": {
      "type": "object",
      "required": ["name", "fields"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "fields": {"type": "array", "items": {"$ref": "#/definitions/field"}},
        "relations": {"type": "array", "items": {"$ref": "#/definitions/relation"}}
      }
    },
    "field": {
      "type": "object",
      "required": ["name", "type"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "type": {"enum": ["string", "integer", "float", "boolean", "datetime", "identifier"]},
        "required": {"type": "boolean"},
        "unique": {"type": "boolean"},
        "default": {"type": ["string", "number", "boolean", "null"]}
      }
    },
    "relation": {
      "type": "object",
      "required": ["toEntity", "kind"],
      "properties": {
        "toEntity": {"type": "string", "minLength": 1},
        "kind": {"enum": ["ONE_TO_ONE", "ONE_TO_MANY", "MANY_TO_MANY"]}
      }
    },
    "endpoint": {
      "type": "object",
      "required": ["action", "entityRef"],
      "properties": {
        "path": {"type": "string"},
        "action": {"enum": ["LIST", "GET", "CREATE", "UPDATE", "DELETE", "CUSTOM"]},
        "entityRef": {"type": "string", "minLength": 1},
        "authRequired": {"type": "boolean"}
      }
    }
  }
}`

func compileExtractionSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(extractionSchemaURL, strings.NewReader(extractionSchema)); err != nil {
		return nil, fmt.Errorf("failed to load extraction schema: %w", err)
	}
	schema, err := compiler.Compile(extractionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extraction schema: %w", err)
	}
	return schema, nil
}
