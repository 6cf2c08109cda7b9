package analysis

import (
	"sort"
	"strings"

	"github.com/bbalet/stopwords"
)

const (
	themeLanguage       = "en"
	minThemeTokenLength = 3
)

// Theme is a word that recurs across several texts.
type Theme struct {
	Term  string `json:"term"`
	Stem  string `json:"stem"`
	Count int    `json:"count"`
}

// ExtractThemes counts, per stem, how many texts mention a non-stopword term.
// The surface form kept for each stem is the first one seen. Results are
// ordered by count descending, then stem ascending, and cut to limit.
func ExtractThemes(texts []string, limit int) []Theme {
	if limit <= 0 || len(texts) == 0 {
		return []Theme{}
	}

	counts := make(map[string]int)
	terms := make(map[string]string)

	for _, text := range texts {
		mentioned := make(map[string]struct{})
		for _, token := range Normalize(text).Tokens {
			if !isThemeCandidate(token) {
				continue
			}
			stem := Stem(token)
			if _, ok := terms[stem]; !ok {
				terms[stem] = token
			}
			mentioned[stem] = struct{}{}
		}
		for stem := range mentioned {
			counts[stem]++
		}
	}

	themes := make([]Theme, 0, len(counts))
	for stem, count := range counts {
		themes = append(themes, Theme{Term: terms[stem], Stem: stem, Count: count})
	}
	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Stem < themes[j].Stem
	})

	if len(themes) > limit {
		themes = themes[:limit]
	}
	return themes
}

func isThemeCandidate(token string) bool {
	if len(token) < minThemeTokenLength || isNumeric(token) {
		return false
	}
	return strings.TrimSpace(stopwords.CleanString(token, themeLanguage, false)) != ""
}

func isNumeric(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
