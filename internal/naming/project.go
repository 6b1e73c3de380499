package naming

import (
	"regexp"
	"strings"
)

var projectStopWords = map[string]bool{
	"api": true, "for": true, "to": true, "the": true, "a": true, "an": true,
	"create": true, "build": true, "make": true, "and": true, "simple": true,
	"i": true, "want": true, "need": true, "of": true, "service": true,
	"dla": true, "utworz": true, "stworz": true, "prosty": true, "prosta": true, "prostego": true,
	"fur": true, "und": true, "eine": true, "ein": true, "einfache": true, "einfaches": true,
}

// the subject of a description ends where its attribute list starts
var subjectEnd = regexp.MustCompile(`(?i)\s(with|that|which|where|z|ze|mit|die|der)\s`)

// ProjectName derives a directory-safe project name from the first sentence
// of a description, keeping at most three meaningful words and appending
// "api". "Simple note API with title and body" -> "note_api".
func ProjectName(text string) string {
	first := text
	if i := strings.IndexAny(text, ".!?\n"); i >= 0 {
		first = text[:i]
	}
	if loc := subjectEnd.FindStringIndex(first); loc != nil {
		first = first[:loc[0]]
	}
	var kept []string
	for _, w := range Words(first) {
		if projectStopWords[w] || !isAlpha(w) {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return "generated_api"
	}
	return strings.Join(kept, "_") + "_api"
}

func isAlpha(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return w != ""
}
