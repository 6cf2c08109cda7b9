// Package analysis implements the deterministic mood classification pipeline:
// normalization, crisis detection, sentiment scoring, the category cascade,
// mood selection and trend analysis. Every function here is pure; the keyword
// tables are package-level values that are never written after init.
package analysis

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	apostropheFolder  = strings.NewReplacer("‘", "'", "’", "'", "ʼ", "'")
)

// Normalized holds the views of a text that the pipeline stages consume.
type Normalized struct {
	// Phrase is lowercased with tags removed and whitespace collapsed.
	// Punctuation is kept so phrases like "can't wait" match by containment.
	Phrase string
	// Clean additionally replaces every non-word character with a space.
	Clean string
	// Tokens are the whitespace-separated words of Clean.
	Tokens []string
}

// IsEmpty reports whether the text had no words at all.
func (n Normalized) IsEmpty() bool {
	return len(n.Tokens) == 0
}

// Normalize builds every view of text. It never fails; empty input yields
// empty strings and no tokens.
func Normalize(text string) Normalized {
	clean := Clean(text)
	return Normalized{
		Phrase: phraseText(text),
		Clean:  clean,
		Tokens: Tokenize(clean),
	}
}

// Clean strips markup tags and punctuation, collapses whitespace and lowercases.
// Tags are removed without a separator so markup inside a word keeps it whole.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	s := tagPattern.ReplaceAllString(text, "")
	s = nonWordPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokenize splits cleaned text on whitespace, discarding empty tokens.
func Tokenize(clean string) []string {
	fields := strings.Fields(clean)
	if fields == nil {
		return []string{}
	}
	return fields
}

func phraseText(text string) string {
	if text == "" {
		return ""
	}
	s := tagPattern.ReplaceAllString(text, "")
	s = apostropheFolder.Replace(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Stem strips a single trailing "ing", "ed" or "s". It is a matching aid for
// keyword lists, not a linguistic stemmer.
func Stem(word string) string {
	switch {
	case len(word) > 5 && strings.HasSuffix(word, "ing"):
		return word[:len(word)-3]
	case len(word) > 4 && strings.HasSuffix(word, "ed"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}

// keywordSet is a read-only word list that also matches stemmed variants.
type keywordSet struct {
	words map[string]struct{}
	stems map[string]struct{}
}

func newKeywordSet(words ...string) keywordSet {
	set := keywordSet{
		words: make(map[string]struct{}, len(words)),
		stems: make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		set.words[w] = struct{}{}
		set.stems[Stem(w)] = struct{}{}
	}
	return set
}

// contains matches the token itself first, then its stem against the stems of the list.
func (s keywordSet) contains(token string) bool {
	if _, ok := s.words[token]; ok {
		return true
	}
	_, ok := s.stems[Stem(token)]
	return ok
}
