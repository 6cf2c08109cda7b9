// Package mood holds the storage-free classification commands.
package mood

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// Commands returns the top-level commands of this package.
func Commands() []*cobra.Command {
	return []*cobra.Command{classifyCmd, helplineCmd}
}

func classifier() *analysis.Classifier {
	if app := cli.GetApp(); app != nil && app.Classifier != nil {
		return app.Classifier
	}
	return analysis.NewClassifier()
}

func defaultCountry() string {
	if app := cli.GetApp(); app != nil && app.HelplineCountry != "" {
		return app.HelplineCountry
	}
	return "US"
}

// PrintClassification writes a human-readable classification.
func PrintClassification(w io.Writer, result domain.ClassificationResult) {
	fmt.Fprintf(w, "Mood:       %s\n", result.EffectiveMood())
	if result.ManualMood != nil {
		fmt.Fprintf(w, "Detected:   %s\n", result.DetectedMood)
	}
	fmt.Fprintf(w, "Confidence: %.2f\n", result.Confidence)
	fmt.Fprintf(w, "Sentiment:  %+.2f\n", result.SentimentScore)
	if len(result.MatchedKeywords) > 0 {
		fmt.Fprintf(w, "Keywords:   %s\n", strings.Join(result.MatchedKeywords, ", "))
	}
	fmt.Fprintf(w, "Reasoning:  %s\n", result.Reasoning)

	if scores := topScores(result.MoodScores); len(scores) > 0 {
		fmt.Fprintf(w, "Scores:     %s\n", strings.Join(scores, ", "))
	}
}

// PrintHelpline writes a helpline record as a safety notice.
func PrintHelpline(w io.Writer, h domain.HelplineRecord) {
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, "If you are in crisis, please reach out now:")
	fmt.Fprintf(w, "  %s (%s)\n", h.Name, h.Country)
	fmt.Fprintf(w, "  Call: %s\n", h.Number)
	if h.TextNumber != "" {
		fmt.Fprintf(w, "  Text: %s\n", h.TextNumber)
	}
	fmt.Fprintf(w, "  Web:  %s\n", h.Website)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// topScores lists the non-zero scores, highest first.
func topScores(scores domain.Scores) []string {
	type scored struct {
		mood  domain.Mood
		score int
	}
	var list []scored
	for _, m := range domain.AllMoods() {
		if s := scores[m]; s > 0 {
			list = append(list, scored{m, s})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	out := make([]string, len(list))
	for i, s := range list {
		out[i] = fmt.Sprintf("%s=%d", s.mood, s.score)
	}
	return out
}
