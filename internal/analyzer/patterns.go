package analyzer

import (
	"math"
	"strings"
	"unicode"

	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// maxRelationGap is the largest number of tokens between two entity mentions
// that can still carry a cardinality phrase
const maxRelationGap = 8

// maxFieldWords is the longest phrase accepted as a single field name
const maxFieldWords = 3

var (
	optionalMarkers = set("optional", "opcjonalne", "opcjonalnym", "opcjonalna", "optionalem", "optionaler", "optional")
	uniqueMarkers   = set("unique", "unikalne", "unikalnym", "unikalny", "eindeutigem", "eindeutiger", "eindeutig")
	nonFieldWords   = set("support", "pagination", "filtering", "sorting", "validation", "endpoints", "endpoint",
		"operations", "crud", "ability", "possibility", "paginacja", "paginacji", "walidacja", "walidacji", "paginierung")
)

// PatternExtractor extracts a partial specification with keyword tables. It
// is deterministic and independent of the model. It holds no state and is
// safe for concurrent use.
type PatternExtractor struct{}

// NewPatternExtractor creates a PatternExtractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// token is a folded lower-case word or a comma
type token struct {
	word     string
	sentence int
}

func (t token) comma() bool { return t.word == "," }

// mention is an entity name found in the token stream
type mention struct {
	entity string
	index  int
	plural bool
}

// Extract scans text with the tables of lang, falling back to English
func (p *PatternExtractor) Extract(text, lang string) *Partial {
	t := tableFor(lang)
	if t == nil {
		t = tableFor("en")
	}

	folded := strings.ToLower(naming.Fold(text))
	toks := scanTokens(folded)
	mentions := findMentions(t, toks)

	part := &Partial{Source: SourcePattern}
	index := map[string]int{}
	for _, m := range mentions {
		if _, ok := index[m.entity]; ok {
			continue
		}
		index[m.entity] = len(part.Entities)
		part.Entities = append(part.Entities, spec.Entity{Name: m.entity})
	}

	mentionAt := make(map[int]bool, len(mentions))
	for _, m := range mentions {
		mentionAt[m.index] = true
	}

	fields := extractFields(t, toks, mentions, mentionAt)
	for _, mf := range fields {
		e := &part.Entities[index[mf.entity]]
		if _, dup := e.Field(mf.field.Name); !dup {
			e.Fields = append(e.Fields, mf.field)
		}
	}

	relations := extractRelations(t, toks, mentions)
	for _, r := range relations {
		e := &part.Entities[index[r.FromEntity]]
		e.Relations = append(e.Relations, r)
	}

	part.Domain = p.domain(t, folded)
	if part.Domain != "" {
		seedDomain(part, index, part.Domain)
	}

	if proto, ok := detectProtocol(t, folded); ok {
		part.Protocol = proto
	}
	for _, a := range t.auth {
		if a.words.match(folded) {
			part.Auth = &spec.AuthSpec{Scheme: a.scheme}
			break
		}
	}
	for _, d := range t.database {
		if d.words.match(folded) {
			part.Database = &spec.DatabaseSpec{Kind: d.kind}
			break
		}
	}

	if t.readOnly.match(folded) {
		for _, e := range part.Entities {
			base := "/" + naming.Kebab(naming.Plural(e.Name))
			part.Endpoints = append(part.Endpoints,
				spec.Endpoint{Path: base, Action: spec.ActionList, EntityRef: e.Name, AuthRequired: part.Auth != nil},
				spec.Endpoint{Path: base + "/{id}", Action: spec.ActionGet, EntityRef: e.Name, AuthRequired: part.Auth != nil},
			)
		}
	}

	part.Confidence = patternConfidence(t, folded, part, len(fields) > 0, len(relations) > 0)
	return part
}

// Domain returns the application domain suggested by the text, or ""
func (p *PatternExtractor) Domain(text, lang string) string {
	t := tableFor(lang)
	if t == nil {
		t = tableFor("en")
	}
	return p.domain(t, strings.ToLower(naming.Fold(text)))
}

// Protocol returns the protocol named in the text, if any
func (p *PatternExtractor) Protocol(text, lang string) (spec.Protocol, bool) {
	t := tableFor(lang)
	if t == nil {
		t = tableFor("en")
	}
	return detectProtocol(t, strings.ToLower(naming.Fold(text)))
}

func (p *PatternExtractor) domain(t *extractionTable, folded string) string {
	for _, d := range t.domains {
		if d.words.match(folded) {
			return d.domain
		}
	}
	return ""
}

func detectProtocol(t *extractionTable, folded string) (spec.Protocol, bool) {
	for _, pk := range t.protocols {
		if pk.words.match(folded) {
			return pk.protocol, true
		}
	}
	return "", false
}

// scanTokens splits folded text into words and commas. Sentence punctuation
// and line breaks start a new sentence.
func scanTokens(folded string) []token {
	var (
		toks     []token
		sentence int
		cur      strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, token{word: cur.String(), sentence: sentence})
			cur.Reset()
		}
	}
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			cur.WriteRune(r)
		case r == ',':
			flush()
			toks = append(toks, token{word: ",", sentence: sentence})
		case r == '.' || r == '!' || r == '?' || r == ';' || r == ':' || r == '\n':
			flush()
			sentence++
		default:
			flush()
		}
	}
	flush()
	return toks
}

// findMentions locates entity names using the lexicon and subject markers
func findMentions(t *extractionTable, toks []token) []mention {
	var out []mention
	for i, tok := range toks {
		if tok.comma() {
			continue
		}
		if lx, ok := matchLexicon(t, tok.word); ok {
			out = append(out, mention{
				entity: lx.entity,
				index:  i,
				plural: tok.word != lx.stem || strings.HasSuffix(tok.word, "ies"),
			})
			continue
		}
		// "<name> api": an entity outside the lexicon
		if t.subjectMarkers[tok.word] && i > 0 {
			prev := toks[i-1]
			if prev.sentence != tok.sentence || prev.comma() || t.genericWords[prev.word] || t.subjectMarkers[prev.word] {
				continue
			}
			if _, known := matchLexicon(t, prev.word); known || len(prev.word) < 3 || !isLetters(prev.word) {
				continue
			}
			out = append(out, mention{
				entity: naming.Pascal(naming.Singular(prev.word)),
				index:  i - 1,
				plural: naming.Singular(prev.word) != prev.word,
			})
		}
	}
	return out
}

// matchLexicon returns the longest stem that word starts with
func matchLexicon(t *extractionTable, word string) (lexeme, bool) {
	var (
		best  lexeme
		found bool
	)
	for _, lx := range t.lexicon {
		if !strings.HasPrefix(word, lx.stem) || len(word)-len(lx.stem) > t.maxSuffix {
			continue
		}
		if !found || len(lx.stem) > len(best.stem) {
			best, found = lx, true
		}
	}
	return best, found
}

type mentionedField struct {
	entity string
	field  spec.Field
}

// extractFields reads field lists such as "with title, body and a due date".
// The list belongs to the closest entity mentioned before it in the sentence.
func extractFields(t *extractionTable, toks []token, mentions []mention, mentionAt map[int]bool) []mentionedField {
	var out []mentionedField
	for i, tok := range toks {
		if !t.fieldIntro[tok.word] {
			continue
		}
		owner := ""
		for _, m := range mentions {
			if m.index < i && toks[m.index].sentence == tok.sentence {
				owner = m.entity
			}
		}
		if owner == "" {
			continue
		}

		j := i + 1
		for j < len(toks) && toks[j].sentence == tok.sentence && t.fieldNouns[toks[j].word] {
			j++
		}

		var piece []int
		stop := false
		accept := func() {
			defer func() { piece = piece[:0] }()
			if len(piece) == 0 || stop {
				return
			}
			f, ok := buildField(t, toks, piece, mentionAt)
			if !ok {
				stop = true
				return
			}
			out = append(out, mentionedField{entity: owner, field: f})
		}
		for ; j < len(toks) && toks[j].sentence == tok.sentence && !stop; j++ {
			w := toks[j].word
			if toks[j].comma() || t.conjunctions[w] {
				accept()
				continue
			}
			piece = append(piece, j)
		}
		accept()
	}
	return out
}

// buildField turns a phrase into a field, or reports that the phrase ends
// the field list
func buildField(t *extractionTable, toks []token, piece []int, mentionAt map[int]bool) (spec.Field, bool) {
	f := spec.Field{Required: true}
	var words []string
	for _, idx := range piece {
		w := toks[idx].word
		switch {
		case mentionAt[idx], t.many[w], t.has[w], t.fieldIntro[w], t.belongsTo[w], nonFieldWords[w]:
			return spec.Field{}, false
		case optionalMarkers[w]:
			f.Required = false
		case uniqueMarkers[w]:
			f.Unique = true
		case t.articles[w]:
		case t.one[w]:
			return spec.Field{}, false
		default:
			words = append(words, w)
		}
	}
	if len(words) == 0 || len(words) > maxFieldWords {
		return spec.Field{}, false
	}
	phrase := strings.Join(words, " ")
	if detectsAny(t, phrase) {
		return spec.Field{}, false
	}

	f.Name = naming.Snake(strings.Join(words, "_"))
	if f.Name == "" {
		return spec.Field{}, false
	}
	f.Type = inferType(t, strings.Split(f.Name, "_"))
	if t.uniqueHints[words[len(words)-1]] {
		f.Unique = true
	}
	return f, true
}

// detectsAny reports whether a phrase names a protocol, auth or storage feature
func detectsAny(t *extractionTable, phrase string) bool {
	for _, a := range t.auth {
		if a.words.match(phrase) {
			return true
		}
	}
	for _, d := range t.database {
		if d.words.match(phrase) {
			return true
		}
	}
	_, ok := detectProtocol(t, phrase)
	return ok
}

// inferType guesses a field type from its words
func inferType(t *extractionTable, words []string) spec.FieldType {
	last := words[len(words)-1]
	first := words[0]
	switch {
	case last == "id" || last == "uuid":
		return spec.TypeIdentifier
	case last == "at" && len(words) > 1:
		return spec.TypeDatetime
	case len(words) > 1 && (first == "is" || first == "has" || first == "czy" || first == "ist"):
		return spec.TypeBoolean
	}
	for _, w := range []string{last, first} {
		for _, h := range t.typeHints {
			if h.words[w] {
				return h.fieldType
			}
		}
	}
	return spec.TypeString
}

// extractRelations reads cardinality phrases between consecutive mentions
func extractRelations(t *extractionTable, toks []token, mentions []mention) []spec.Relation {
	var out []spec.Relation
	seen := map[[2]string]bool{}

	add := func(from, to string, kind spec.RelationKind) {
		if from == to || seen[[2]string{from, to}] || seen[[2]string{to, from}] {
			return
		}
		seen[[2]string{from, to}] = true
		out = append(out, spec.Relation{FromEntity: from, ToEntity: to, Kind: kind})
	}

	for k := 0; k+1 < len(mentions); k++ {
		a, b := mentions[k], mentions[k+1]
		if toks[a.index].sentence != toks[b.index].sentence || b.index-a.index-1 > maxRelationGap {
			continue
		}
		between := toks[a.index+1 : b.index]

		switch {
		case containsAny(between, t.belongsTo):
			add(b.entity, a.entity, spec.OneToMany)
		case containsAny(between, t.many):
			kind := spec.OneToMany
			if containsAny(sentenceBefore(toks, a.index), t.many) {
				kind = spec.ManyToMany
			}
			add(a.entity, b.entity, kind)
		case containsAny(between, t.one):
			add(a.entity, b.entity, spec.OneToOne)
		case t.pluralHas && b.plural && containsAny(between, t.has):
			add(a.entity, b.entity, spec.OneToMany)
		}
	}
	return out
}

func sentenceBefore(toks []token, index int) []token {
	start := index
	for start > 0 && toks[start-1].sentence == toks[index].sentence {
		start--
	}
	return toks[start:index]
}

func containsAny(toks []token, words map[string]bool) bool {
	for _, tok := range toks {
		if words[tok.word] {
			return true
		}
	}
	return false
}

// seedDomain adds the default entities of a domain. Mentioned entities
// without fields take the seed fields.
func seedDomain(part *Partial, index map[string]int, domain string) {
	for _, seed := range domainSeeds[domain] {
		if i, ok := index[seed.Name]; ok {
			if len(part.Entities[i].Fields) == 0 {
				part.Entities[i].Fields = seed.Clone().Fields
			}
			continue
		}
		index[seed.Name] = len(part.Entities)
		clone := seed.Clone()
		clone.Relations = nil
		part.Entities = append(part.Entities, clone)
	}
	for _, seed := range domainSeeds[domain] {
		for _, r := range seed.Relations {
			from := &part.Entities[index[r.FromEntity]]
			if hasRelation(part, r.FromEntity, r.ToEntity) {
				continue
			}
			from.Relations = append(from.Relations, r)
		}
	}
}

func hasRelation(part *Partial, a, b string) bool {
	for _, e := range part.Entities {
		for _, r := range e.Relations {
			if (r.FromEntity == a && r.ToEntity == b) || (r.FromEntity == b && r.ToEntity == a) {
				return true
			}
		}
	}
	return false
}

// patternConfidence scores how much the heuristic found
func patternConfidence(t *extractionTable, folded string, part *Partial, hasFields, hasRelations bool) float64 {
	if len(part.Entities) == 0 {
		return 0.1
	}
	c := 0.3 + 0.1
	if len(part.Entities) > 1 {
		c += 0.05
	}
	if hasFields {
		c += 0.1
	}
	if hasRelations {
		c += 0.05
	}
	if part.Protocol != "" {
		c += 0.05
	}
	if t.create.match(folded) || t.read.match(folded) || t.update.match(folded) || t.remove.match(folded) {
		c += 0.05
	}
	if part.Auth != nil || part.Database != nil {
		c += 0.05
	}
	if part.Domain != "" {
		c += 0.05
	}
	return math.Min(0.8, math.Round(c*100)/100)
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
