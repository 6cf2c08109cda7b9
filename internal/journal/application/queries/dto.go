package queries

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// EntryDTO is the read model of a journal entry.
type EntryDTO struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title,omitempty"`
	Content         string           `json:"content"`
	Tags            []string         `json:"tags"`
	Mood            moodDomain.Mood  `json:"mood"`
	DetectedMood    moodDomain.Mood  `json:"detected_mood"`
	ManualMood      *moodDomain.Mood `json:"manual_mood,omitempty"`
	Confidence      float64          `json:"confidence"`
	SelfHarm        bool             `json:"self_harm_detected"`
	SentimentScore  float64          `json:"sentiment_score"`
	MatchedKeywords []string         `json:"matched_keywords"`
	Reasoning       string           `json:"reasoning"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func toEntryDTO(entry *domain.JournalEntry) EntryDTO {
	c := entry.Classification()
	tags := entry.Tags()
	if tags == nil {
		tags = []string{}
	}
	keywords := c.MatchedKeywords
	if keywords == nil {
		keywords = []string{}
	}
	return EntryDTO{
		ID:              entry.ID(),
		Title:           entry.Title(),
		Content:         entry.Content(),
		Tags:            tags,
		Mood:            entry.EffectiveMood(),
		DetectedMood:    c.DetectedMood,
		ManualMood:      c.ManualMood,
		Confidence:      c.Confidence,
		SelfHarm:        c.SelfHarmDetected,
		SentimentScore:  c.SentimentScore,
		MatchedKeywords: keywords,
		Reasoning:       c.Reasoning,
		CreatedAt:       entry.CreatedAt(),
		UpdatedAt:       entry.UpdatedAt(),
	}
}
