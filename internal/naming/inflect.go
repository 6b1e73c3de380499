package naming

import "strings"

var irregularPlurals = map[string]string{
	"person":   "people",
	"child":    "children",
	"man":      "men",
	"woman":    "women",
	"mouse":    "mice",
	"datum":    "data",
	"analysis": "analyses",
	"status":   "statuses",
}

var irregularSingulars = func() map[string]string {
	m := make(map[string]string, len(irregularPlurals))
	for s, p := range irregularPlurals {
		m[p] = s
	}
	return m
}()

// Plural returns a naive English plural of a single lower-case word or of the
// last word of a snake/kebab identifier.
func Plural(word string) string {
	prefix, last := splitLast(word)
	if last == "" {
		return word
	}
	lower := strings.ToLower(last)
	if p, ok := irregularPlurals[lower]; ok {
		return prefix + matchCase(last, p)
	}
	switch {
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return prefix + last[:len(last)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return prefix + last + "es"
	}
	return prefix + last + "s"
}

// Singular reverses Plural for regular English words. Words that already look
// singular are returned unchanged.
func Singular(word string) string {
	prefix, last := splitLast(word)
	lower := strings.ToLower(last)
	if s, ok := irregularSingulars[lower]; ok {
		return prefix + matchCase(last, s)
	}
	if _, ok := irregularPlurals[lower]; ok {
		return word
	}
	switch {
	case len(lower) > 4 && strings.HasSuffix(lower, "ies"):
		return prefix + last[:len(last)-3] + "y"
	case len(lower) > 4 && (strings.HasSuffix(lower, "ches") || strings.HasSuffix(lower, "shes") ||
		strings.HasSuffix(lower, "xes") || strings.HasSuffix(lower, "sses") || strings.HasSuffix(lower, "zes")):
		return prefix + last[:len(last)-2]
	case len(lower) > 3 && strings.HasSuffix(lower, "s") &&
		!strings.HasSuffix(lower, "ss") && !strings.HasSuffix(lower, "us") && !strings.HasSuffix(lower, "is"):
		return prefix + last[:len(last)-1]
	}
	return word
}

func splitLast(word string) (string, string) {
	i := strings.LastIndexAny(word, "_-")
	if i < 0 {
		return "", word
	}
	return word[:i+1], word[i+1:]
}

func matchCase(model, s string) string {
	if model != "" && strings.ToUpper(model[:1]) == model[:1] {
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}
