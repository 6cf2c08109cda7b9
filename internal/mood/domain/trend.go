package domain

import "time"

// TrendWindow is the number of most recent records used for trend direction.
const TrendWindow = 7

// TrendDirection indicates how mood moved across the trend window.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// HistoryRecord is the minimal view of a past classification used for trends.
type HistoryRecord struct {
	Mood      Mood      `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}

// TrendSummary aggregates a sequence of history records.
type TrendSummary struct {
	DominantMood     Mood           `json:"dominant_mood"`
	TrendDirection   TrendDirection `json:"trend_direction"`
	MoodDistribution map[Mood]int   `json:"mood_distribution"`
	Insights         []string       `json:"insights"`
}
