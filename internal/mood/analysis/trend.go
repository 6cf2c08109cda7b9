package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

const (
	trendMargin      = 1
	anxietyShareWarn = 0.30
)

// NoEntriesInsight is the only insight produced for an empty history.
const NoEntriesInsight = "No entries available for analysis"

// AnalyzeTrend summarizes past classifications. Records are ordered by
// CreatedAt (stable, so equal timestamps keep their given order) before the
// most recent domain.TrendWindow records decide the direction.
func AnalyzeTrend(history []domain.HistoryRecord) domain.TrendSummary {
	if len(history) == 0 {
		return domain.TrendSummary{
			DominantMood:     domain.MoodNeutral,
			TrendDirection:   domain.TrendStable,
			MoodDistribution: map[domain.Mood]int{},
			Insights:         []string{NoEntriesInsight},
		}
	}

	records := make([]domain.HistoryRecord, len(history))
	copy(records, history)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	distribution := make(map[domain.Mood]int)
	var order []domain.Mood
	for _, r := range records {
		if _, seen := distribution[r.Mood]; !seen {
			order = append(order, r.Mood)
		}
		distribution[r.Mood]++
	}

	dominant := order[0]
	for _, m := range order[1:] {
		if distribution[m] > distribution[dominant] {
			dominant = m
		}
	}

	window := records
	if len(window) > domain.TrendWindow {
		window = window[len(window)-domain.TrendWindow:]
	}
	direction := trendDirection(window)

	return domain.TrendSummary{
		DominantMood:     dominant,
		TrendDirection:   direction,
		MoodDistribution: distribution,
		Insights:         buildInsights(direction, dominant, distribution, len(records)),
	}
}

func trendDirection(window []domain.HistoryRecord) domain.TrendDirection {
	var positive, negative int
	for _, r := range window {
		switch r.Mood.Valence() {
		case domain.ValencePositive:
			positive++
		case domain.ValenceNegative:
			negative++
		}
	}

	switch {
	case positive-negative > trendMargin:
		return domain.TrendImproving
	case negative-positive > trendMargin:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func buildInsights(direction domain.TrendDirection, dominant domain.Mood, distribution map[domain.Mood]int, total int) []string {
	insights := make([]string, 0, 4)

	switch direction {
	case domain.TrendImproving:
		insights = append(insights, "Your mood has been improving over your recent entries.")
	case domain.TrendDeclining:
		insights = append(insights, "Your mood has been declining over your recent entries. Consider reaching out to someone you trust.")
	default:
		insights = append(insights, "Your mood has been relatively stable over your recent entries.")
	}

	insights = append(insights, fmt.Sprintf("Your most common mood is %s (%d%% of entries).",
		dominant, percent(distribution[dominant], total)))

	if grateful := distribution[domain.MoodGrateful]; grateful > 0 {
		insights = append(insights, fmt.Sprintf("You expressed gratitude in %d %s. Keep noticing the good moments.",
			grateful, pluralize(grateful, "entry", "entries")))
	}

	if float64(distribution[domain.MoodAnxious])/float64(total) > anxietyShareWarn {
		insights = append(insights, "Anxiety appears in more than 30% of your entries. Consider stress-management techniques or talking to a professional.")
	}

	return insights
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) * 100 / float64(total)))
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
