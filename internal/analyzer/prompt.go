package analyzer

import (
	"fmt"
	"strings"

	"github.com/veridock/text2api/internal/spec"
)

// PromptHints narrows the model instructions
type PromptHints struct {
	// Domain is one of ecommerce, blog or cms
	Domain string

	// Protocol is the protocol requested by the caller or named in the text
	Protocol spec.Protocol
}

// PromptBuilder assembles the extraction prompt sent to the model
type PromptBuilder struct{}

// NewPromptBuilder creates a PromptBuilder
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

var systemPrompts = map[string]string{
	"en": `You are an API design expert. Analyze the following description written in English and extract a structured API specification.`,
	"pl": `Jesteś ekspertem w projektowaniu API. Przeanalizuj poniższy opis w języku polskim i wyodrębnij ustrukturyzowaną specyfikację API. Nazwy encji i pól podawaj po angielsku.`,
	"de": `Du bist ein Experte für API-Design. Analysiere die folgende Beschreibung auf Deutsch und extrahiere eine strukturierte API-Spezifikation. Verwende englische Namen für Entitäten und Felder.`,
}

var domainPrompts = map[string]string{
	"ecommerce": "The description is about e-commerce: consider products, customers, orders, carts and payments.",
	"blog":      "The description is about a blog: consider posts, authors, comments, tags and categories.",
	"cms":       "The description is about content management: consider pages, media, roles and publication state.",
}

var protocolPrompts = map[spec.Protocol]string{
	spec.ProtocolREST:        "The API is a REST API with resource collections.",
	spec.ProtocolGraphQL:     "The API is a GraphQL schema with queries and mutations per entity.",
	spec.ProtocolRPC:         "The API is an RPC service with one method per operation.",
	spec.ProtocolSocket:      "The API is a real-time socket API exchanging typed messages per entity.",
	spec.ProtocolCommandLine: "The API is a command-line tool with one command group per entity.",
}

// promptShape is the answer format shown to the model. It mirrors the
// extraction schema checked by ResponseParser.
const promptShape = `{
  "protocol": "REST|GRAPHQL|RPC|SOCKET|COMMAND_LINE",
  "confidence": 0.0,
  "entities": [
    {
      "name": "EntityName",
      "fields": [
        {"name": "field_name", "type": "string|integer|float|boolean|datetime|identifier", "required": true, "unique": false, "default": null}
      ],
      "relations": [
        {"toEntity": "OtherEntity", "kind": "ONE_TO_ONE|ONE_TO_MANY|MANY_TO_MANY"}
      ]
    }
  ],
  "endpoints": [
    {"path": "/entities", "action": "LIST|GET|CREATE|UPDATE|DELETE|CUSTOM", "entityRef": "EntityName", "authRequired": false}
  ],
  "auth": {"scheme": "NONE|JWT|OAUTH|BASIC"},
  "database": {"kind": "SQL|DOCUMENT|CACHE|NONE"}
}`

// Build returns the prompt for text in the given language
func (b *PromptBuilder) Build(text, lang string, hints PromptHints) string {
	system, ok := systemPrompts[lang]
	if !ok {
		system = systemPrompts["en"]
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n")
	if p, ok := protocolPrompts[hints.Protocol]; ok {
		sb.WriteString("\n" + p)
	}
	if d, ok := domainPrompts[hints.Domain]; ok {
		sb.WriteString("\n" + d)
	}

	fmt.Fprintf(&sb, "\n\nDescription language: %s\n", lang)
	fmt.Fprintf(&sb, "Description:\n\"\"\"\n%s\n\"\"\"\n", strings.TrimSpace(text))
	sb.WriteString("\nReturn exactly one JSON object with this shape:\n")
	sb.WriteString(promptShape)
	sb.WriteString(`

Rules:
- List only entities the description asks for; do not invent placeholder entities.
- Leave "endpoints" empty unless the description restricts or names specific operations.
- Omit "auth" and "database" when the description does not mention them.
- Set "confidence" to how sure you are about the whole answer.
Respond with JSON only, no comments or prose.`)

	return sb.String()
}
