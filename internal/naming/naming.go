// Package naming converts free-form words into the identifier forms used by
// specifications and generated code.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// special letters that do not decompose into base + combining mark
var foldReplacer = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ß", "ss",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
)

// Fold strips diacritics so "Użytkownik" becomes "Uzytkownik".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Words splits s into lower-case ASCII words. Separators are any
// non-alphanumeric rune and lower-to-upper camel case boundaries.
func Words(s string) []string {
	s = Fold(s)
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// Pascal returns the PascalCase form: "order item" -> "OrderItem".
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return trimLeadingDigits(b.String())
}

// Camel returns the camelCase form: "created at" -> "createdAt".
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}
	rs := []rune(p)
	i := 0
	for i < len(rs) && unicode.IsUpper(rs[i]) {
		i++
	}
	switch {
	case i == len(rs):
		return strings.ToLower(p)
	case i > 1:
		i--
	}
	return strings.ToLower(string(rs[:i])) + string(rs[i:])
}

// Snake returns the snake_case form: "CreatedAt" -> "created_at".
func Snake(s string) string {
	return trimLeadingDigits(strings.Join(Words(s), "_"))
}

// Kebab returns the kebab-case form: "OrderItem" -> "order-item".
func Kebab(s string) string {
	return trimLeadingDigits(strings.Join(Words(s), "-"))
}

// Upper returns the SCREAMING_SNAKE form used for enum-like constants.
func Upper(s string) string {
	return strings.ToUpper(Snake(s))
}

func trimLeadingDigits(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsDigit(r) || r == '_' || r == '-' })
}
