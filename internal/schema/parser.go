package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// ParseSchema parses an SDL document. Syntax errors, references to undefined
// types and undeclared directives are reported as errors.
func ParseSchema(input string) (*Schema, error) {
	doc, report := astparser.ParseGraphqlDocumentString(input)
	if report.HasErrors() {
		return nil, fmt.Errorf("failed to parse GraphQL: %v", report)
	}

	schema := &Schema{
		Types:      []ObjectType{},
		Inputs:     []ObjectType{},
		Enums:      []EnumType{},
		Scalars:    []string{},
		Directives: []string{},
	}

	for i := range doc.RootNodes {
		node := &doc.RootNodes[i]
		switch node.Kind {
		case ast.NodeKindObjectTypeDefinition:
			schema.Types = append(schema.Types, parseObjectType(&doc, node.Ref))
		case ast.NodeKindInputObjectTypeDefinition:
			schema.Inputs = append(schema.Inputs, parseInputType(&doc, node.Ref))
		case ast.NodeKindEnumTypeDefinition:
			schema.Enums = append(schema.Enums, parseEnumType(&doc, node.Ref))
		case ast.NodeKindScalarTypeDefinition:
			schema.Scalars = append(schema.Scalars, doc.Input.ByteSliceString(doc.ScalarTypeDefinitions[node.Ref].Name))
		case ast.NodeKindDirectiveDefinition:
			schema.Directives = append(schema.Directives, doc.Input.ByteSliceString(doc.DirectiveDefinitions[node.Ref].Name))
		}
	}

	if problems := schema.check(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid GraphQL schema: %s", strings.Join(problems, "; "))
	}
	return schema, nil
}

// check returns references to undefined types and directives
func (s *Schema) check() []string {
	outputs := map[string]bool{}
	inputs := map[string]bool{}
	for name := range builtinScalars {
		outputs[name], inputs[name] = true, true
	}
	for _, name := range s.Scalars {
		outputs[name], inputs[name] = true, true
	}
	for _, e := range s.Enums {
		outputs[e.Name], inputs[e.Name] = true, true
	}
	for _, t := range s.Types {
		outputs[t.Name] = true
	}
	for _, t := range s.Inputs {
		inputs[t.Name] = true
	}
	directives := map[string]bool{"deprecated": true, "skip": true, "include": true, "specifiedBy": true}
	for _, d := range s.Directives {
		directives[d] = true
	}

	var problems []string
	for _, t := range s.Types {
		for _, f := range t.Fields {
			if !outputs[baseType(f.Type)] {
				problems = append(problems, fmt.Sprintf("%s.%s has unknown output type %s", t.Name, f.Name, f.Type))
			}
			for _, a := range f.Args {
				if !inputs[baseType(a.Type)] {
					problems = append(problems, fmt.Sprintf("%s.%s(%s) has unknown input type %s", t.Name, f.Name, a.Name, a.Type))
				}
			}
			for _, d := range f.Directives {
				if !directives[d.Name] {
					problems = append(problems, fmt.Sprintf("%s.%s uses undeclared directive @%s", t.Name, f.Name, d.Name))
				}
			}
		}
	}
	for _, t := range s.Inputs {
		for _, f := range t.Fields {
			if !inputs[baseType(f.Type)] {
				problems = append(problems, fmt.Sprintf("input %s.%s has unknown input type %s", t.Name, f.Name, f.Type))
			}
		}
	}
	sort.Strings(problems)
	return problems
}

func baseType(t string) string {
	return strings.Trim(t, "[]")
}

func parseObjectType(doc *ast.Document, ref int) ObjectType {
	typeDef := doc.ObjectTypeDefinitions[ref]
	objType := ObjectType{
		Name:   doc.Input.ByteSliceString(typeDef.Name),
		Doc:    getDescription(doc, typeDef.Description),
		Fields: []Field{},
	}
	for _, fieldRef := range typeDef.FieldsDefinition.Refs {
		objType.Fields = append(objType.Fields, parseField(doc, fieldRef))
	}
	return objType
}

func parseInputType(doc *ast.Document, ref int) ObjectType {
	inputDef := doc.InputObjectTypeDefinitions[ref]
	objType := ObjectType{
		Name:   doc.Input.ByteSliceString(inputDef.Name),
		Doc:    getDescription(doc, inputDef.Description),
		Fields: []Field{},
	}
	for _, valueRef := range inputDef.InputFieldsDefinition.Refs {
		valueDef := doc.InputValueDefinitions[valueRef]
		typeStr, required := parseType(doc, valueDef.Type)
		field := Field{
			Name:       doc.Input.ByteSliceString(valueDef.Name),
			Doc:        getDescription(doc, valueDef.Description),
			Type:       typeStr,
			Required:   required,
			Directives: parseDirectives(doc, valueDef.Directives),
		}
		if valueDef.DefaultValue.IsDefined {
			field.Default = parseValue(doc, valueDef.DefaultValue.Value)
		}
		objType.Fields = append(objType.Fields, field)
	}
	return objType
}

func parseEnumType(doc *ast.Document, ref int) EnumType {
	enumDef := doc.EnumTypeDefinitions[ref]
	enumType := EnumType{
		Name:   doc.Input.ByteSliceString(enumDef.Name),
		Doc:    getDescription(doc, enumDef.Description),
		Values: []EnumValue{},
	}
	for _, valueRef := range enumDef.EnumValuesDefinition.Refs {
		valueDef := doc.EnumValueDefinitions[valueRef]
		enumType.Values = append(enumType.Values, EnumValue{
			Name: doc.Input.ByteSliceString(valueDef.EnumValue),
			Doc:  getDescription(doc, valueDef.Description),
		})
	}
	return enumType
}

func parseField(doc *ast.Document, fieldRef int) Field {
	fieldDef := doc.FieldDefinitions[fieldRef]
	field := Field{
		Name:       doc.Input.ByteSliceString(fieldDef.Name),
		Doc:        getDescription(doc, fieldDef.Description),
		Directives: parseDirectives(doc, fieldDef.Directives),
	}
	field.Type, field.Required = parseType(doc, fieldDef.Type)

	for _, argRef := range fieldDef.ArgumentsDefinition.Refs {
		argDef := doc.InputValueDefinitions[argRef]
		arg := Argument{Name: doc.Input.ByteSliceString(argDef.Name)}
		arg.Type, arg.Required = parseType(doc, argDef.Type)
		field.Args = append(field.Args, arg)
	}
	return field
}

func parseType(doc *ast.Document, typeRef int) (string, bool) {
	required := false
	currentRef := typeRef

	if doc.Types[currentRef].TypeKind == ast.TypeKindNonNull {
		required = true
		currentRef = doc.Types[currentRef].OfType
	}

	if doc.Types[currentRef].TypeKind == ast.TypeKindList {
		innerType, _ := parseType(doc, doc.Types[currentRef].OfType)
		return "[" + innerType + "]", required
	}

	if doc.Types[currentRef].TypeKind == ast.TypeKindNamed {
		return doc.Input.ByteSliceString(doc.Types[currentRef].Name), required
	}

	return "Unknown", required
}

func parseDirectives(doc *ast.Document, directives ast.DirectiveList) []Directive {
	result := []Directive{}
	for _, directiveRef := range directives.Refs {
		directive := doc.Directives[directiveRef]
		result = append(result, Directive{
			Name: doc.Input.ByteSliceString(directive.Name),
			Args: parseDirectiveArgs(doc, directive),
		})
	}
	return result
}

func parseDirectiveArgs(doc *ast.Document, directive ast.Directive) map[string]string {
	args := make(map[string]string)
	for _, argRef := range directive.Arguments.Refs {
		arg := doc.Arguments[argRef]
		args[doc.Input.ByteSliceString(arg.Name)] = parseValue(doc, doc.ArgumentValue(argRef))
	}
	return args
}

func parseValue(doc *ast.Document, value ast.Value) string {
	switch value.Kind {
	case ast.ValueKindString:
		return doc.StringValueContentString(value.Ref)
	case ast.ValueKindEnum:
		if value.Ref >= 0 && value.Ref < len(doc.EnumValues) {
			return doc.Input.ByteSliceString(doc.EnumValues[value.Ref].Name)
		}
	case ast.ValueKindBoolean:
		if value.Ref >= 0 && value.Ref < len(doc.BooleanValues) {
			if doc.BooleanValues[value.Ref] {
				return "true"
			}
			return "false"
		}
	case ast.ValueKindInteger:
		return fmt.Sprintf("%d", doc.IntValueAsInt(value.Ref))
	case ast.ValueKindFloat:
		return fmt.Sprintf("%g", doc.FloatValueAsFloat32(value.Ref))
	}
	return ""
}

func getDescription(doc *ast.Document, desc ast.Description) string {
	if !desc.IsDefined {
		return ""
	}
	return doc.Input.ByteSliceString(desc.Content)
}
