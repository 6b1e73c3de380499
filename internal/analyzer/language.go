package analyzer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultThreshold is the minimum per-word score a language needs to be picked
const DefaultThreshold = 0.1

// minDetectLength is the cleaned length below which detection is not attempted
const minDetectLength = 10

// LanguageInfo describes the outcome of language detection
type LanguageInfo struct {
	Language   string  `json:"language"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"wordCount"`
	Supported  bool    `json:"supported"`
	Detected   bool    `json:"detected"`
}

// LanguageDetector scores text against per-language word tables. It holds no
// mutable state and is safe for concurrent use.
type LanguageDetector struct {
	defaultLang string
	threshold   float64
}

// NewLanguageDetector creates a detector. An unparseable default falls back to
// English; a non-positive threshold uses DefaultThreshold.
func NewLanguageDetector(defaultLang string, threshold float64) *LanguageDetector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &LanguageDetector{
		defaultLang: canonicalLanguage(defaultLang, "en"),
		threshold:   threshold,
	}
}

// Default returns the configured default language code
func (d *LanguageDetector) Default() string {
	return d.defaultLang
}

// Detect returns the language code of text, or the default language when the
// text is too short or no language scores above the threshold
func (d *LanguageDetector) Detect(text string) string {
	return d.DetectWithConfidence(text).Language
}

// DetectWithConfidence returns the detected language with its score
func (d *LanguageDetector) DetectWithConfidence(text string) LanguageInfo {
	cleaned := cleanText(text)
	words := tokenize(cleaned)

	info := d.info(d.defaultLang, 0, len(words))
	if len([]rune(cleaned)) < minDetectLength || len(words) == 0 {
		return info
	}

	best, bestScore, total := "", 0.0, 0.0
	for _, p := range profiles {
		s := p.score(words)
		total += s
		if s > bestScore {
			best, bestScore = p.code, s
		}
	}
	if best == "" || bestScore < d.threshold {
		return info
	}

	out := d.info(best, bestScore/total, len(words))
	out.Detected = true
	return out
}

func (d *LanguageDetector) info(code string, confidence float64, words int) LanguageInfo {
	_, supported := extractionTables[code]
	return LanguageInfo{
		Language:   code,
		Name:       languageName(code),
		Confidence: confidence,
		WordCount:  words,
		Supported:  supported,
	}
}

// languageProfile is the detection data for one language
type languageProfile struct {
	code       string
	stopWords  map[string]bool
	suffixes   []string
	diacritics string
}

func (p languageProfile) score(words []string) float64 {
	var hits float64
	for _, w := range words {
		if p.stopWords[w] {
			hits++
		}
		if strings.ContainsAny(w, p.diacritics) {
			hits += 0.5
		}
		if len([]rune(w)) > 4 {
			for _, s := range p.suffixes {
				if strings.HasSuffix(w, s) {
					hits += 0.25
					break
				}
			}
		}
	}
	return hits / float64(len(words))
}

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// cleanText drops URLs, e-mail addresses and symbols, keeping letters, digits
// and sentence punctuation
func cleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = emailPattern.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune(".,!?;:()-'", r):
			return r
		}
		return -1
	}, text)
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// tokenize splits text into lower-case words
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// canonicalLanguage returns the base language subtag of code, or fallback
func canonicalLanguage(code, fallback string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return fallback
	}
	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	base, _ := tag.Base()
	return base.String()
}

// languageName returns the self-name of a language, e.g. "polski" for pl
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}
