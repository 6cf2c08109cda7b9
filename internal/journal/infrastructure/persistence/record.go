// Package persistence stores journal entries in SQLite, PostgreSQL or MongoDB.
// Title and content pass through a crypto.ContentCipher; classification
// fields are kept in clear.
package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
)

// entryRecord is the storage form of a JournalEntry with title and content sealed.
type entryRecord struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Title           string
	Content         string
	DetectedMood    string
	ManualMood      *string
	Confidence      float64
	SelfHarm        bool
	CrisisPhrases   []string
	SentimentScore  float64
	MatchedKeywords []string
	MoodScores      map[string]int
	Reasoning       string
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

func sealEntry(cipher crypto.ContentCipher, entry *domain.JournalEntry) (entryRecord, error) {
	title, err := cipher.Seal(entry.Title())
	if err != nil {
		return entryRecord{}, fmt.Errorf("seal title: %w", err)
	}
	content, err := cipher.Seal(entry.Content())
	if err != nil {
		return entryRecord{}, fmt.Errorf("seal content: %w", err)
	}

	c := entry.Classification()
	rec := entryRecord{
		ID:              entry.ID(),
		UserID:          entry.UserID(),
		Title:           title,
		Content:         content,
		DetectedMood:    string(c.DetectedMood),
		Confidence:      c.Confidence,
		SelfHarm:        c.SelfHarmDetected,
		CrisisPhrases:   nonNil(c.CrisisPhrases),
		SentimentScore:  c.SentimentScore,
		MatchedKeywords: nonNil(c.MatchedKeywords),
		MoodScores:      make(map[string]int, len(c.MoodScores)),
		Reasoning:       c.Reasoning,
		Tags:            nonNil(entry.Tags()),
		CreatedAt:       entry.CreatedAt().UTC(),
		UpdatedAt:       entry.UpdatedAt().UTC(),
		Version:         entry.Version(),
	}
	if c.ManualMood != nil {
		manual := string(*c.ManualMood)
		rec.ManualMood = &manual
	}
	for mood, score := range c.MoodScores {
		rec.MoodScores[string(mood)] = score
	}
	return rec, nil
}

func (r entryRecord) open(cipher crypto.ContentCipher) (*domain.JournalEntry, error) {
	title, err := cipher.Open(r.Title)
	if err != nil {
		return nil, fmt.Errorf("open title of entry %s: %w", r.ID, err)
	}
	content, err := cipher.Open(r.Content)
	if err != nil {
		return nil, fmt.Errorf("open content of entry %s: %w", r.ID, err)
	}

	classification := moodDomain.ClassificationResult{
		DetectedMood:     moodDomain.Mood(r.DetectedMood),
		Confidence:       r.Confidence,
		SelfHarmDetected: r.SelfHarm,
		SentimentScore:   r.SentimentScore,
		MatchedKeywords:  nonNil(r.MatchedKeywords),
		MoodScores:       make(moodDomain.Scores, len(r.MoodScores)),
		Reasoning:        r.Reasoning,
	}
	if len(r.CrisisPhrases) > 0 {
		classification.CrisisPhrases = r.CrisisPhrases
	}
	if r.ManualMood != nil && *r.ManualMood != "" {
		manual := moodDomain.Mood(*r.ManualMood)
		classification.ManualMood = &manual
	}
	for mood, score := range r.MoodScores {
		classification.MoodScores[moodDomain.Mood(mood)] = score
	}

	return domain.RehydrateJournalEntry(
		r.ID, r.UserID, title, content, nonNil(r.Tags), classification,
		r.CreatedAt.UTC(), r.UpdatedAt.UTC(), r.Version,
	), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// reverse turns a newest-first page into chronological order.
func reverse(entries []*domain.JournalEntry) []*domain.JournalEntry {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}
