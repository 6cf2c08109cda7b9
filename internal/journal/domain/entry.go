// Package domain models journal entries and their mood classifications.
package domain

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	sharedDomain "github.com/felixgeelhaar/moodlens/internal/shared/domain"
)

var (
	ErrEntryNotFound = errors.New("journal entry not found")
	ErrEmptyContent  = errors.New("journal entry content cannot be empty")
	ErrInvalidUserID = errors.New("user id is required")
	ErrTitleTooLong  = errors.New("journal entry title is too long")
)

// MaxTitleLength bounds entry titles, in runes.
const MaxTitleLength = 200

// JournalEntry is a piece of user writing together with its classification.
type JournalEntry struct {
	sharedDomain.BaseAggregateRoot
	userID         uuid.UUID
	title          string
	content        string
	tags           []string
	classification moodDomain.ClassificationResult
}

// NewJournalEntry creates an entry written now.
func NewJournalEntry(userID uuid.UUID, title, content string, tags []string, classification moodDomain.ClassificationResult, country string) (*JournalEntry, error) {
	return NewJournalEntryAt(userID, title, content, tags, classification, country, time.Now().UTC())
}

// NewJournalEntryAt creates an entry with an explicit creation time, used
// when importing or backfilling older writing. A crisis classification also
// raises a safety alert for country.
func NewJournalEntryAt(userID uuid.UUID, title, content string, tags []string, classification moodDomain.ClassificationResult, country string, createdAt time.Time) (*JournalEntry, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	title = strings.TrimSpace(title)
	if len([]rune(title)) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	createdAt = createdAt.UTC()
	entry := &JournalEntry{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(uuid.New(), createdAt, createdAt), 1),
		userID:         userID,
		title:          title,
		content:        content,
		tags:           NormalizeTags(tags),
		classification: classification.Clone(),
	}

	entry.AddDomainEvent(NewEntryCreated(entry))
	if classification.SelfHarmDetected {
		entry.AddDomainEvent(NewSafetyAlertRaised(entry, country))
	}
	return entry, nil
}

// RehydrateJournalEntry recreates an entry from storage without raising events.
func RehydrateJournalEntry(
	id, userID uuid.UUID,
	title, content string,
	tags []string,
	classification moodDomain.ClassificationResult,
	createdAt, updatedAt time.Time,
	version int,
) *JournalEntry {
	return &JournalEntry{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), version),
		userID:         userID,
		title:          title,
		content:        content,
		tags:           tags,
		classification: classification,
	}
}

func (e *JournalEntry) UserID() uuid.UUID { return e.userID }
func (e *JournalEntry) Title() string     { return e.title }
func (e *JournalEntry) Content() string   { return e.content }
func (e *JournalEntry) Tags() []string    { return slices.Clone(e.tags) }

// Classification returns a copy of the current classification.
func (e *JournalEntry) Classification() moodDomain.ClassificationResult {
	return e.classification.Clone()
}

// ManualMood returns the user's override, or nil.
func (e *JournalEntry) ManualMood() *moodDomain.Mood {
	if e.classification.ManualMood == nil {
		return nil
	}
	m := *e.classification.ManualMood
	return &m
}

// EffectiveMood is the manual override when set, otherwise the detected mood.
func (e *JournalEntry) EffectiveMood() moodDomain.Mood {
	return e.classification.EffectiveMood()
}

// HistoryRecord is the trend view of this entry.
func (e *JournalEntry) HistoryRecord() moodDomain.HistoryRecord {
	return moodDomain.HistoryRecord{Mood: e.EffectiveMood(), CreatedAt: e.CreatedAt()}
}

// IsOwnedBy reports whether userID wrote the entry.
func (e *JournalEntry) IsOwnedBy(userID uuid.UUID) bool {
	return e.userID == userID
}

// Reclassify replaces the classification. It returns false and changes
// nothing when the new result matches the current one.
func (e *JournalEntry) Reclassify(result moodDomain.ClassificationResult, country string) bool {
	if SameClassification(e.classification, result) {
		return false
	}

	previous := e.classification
	e.classification = result.Clone()
	e.Touch()
	e.IncrementVersion()

	if previous.DetectedMood != result.DetectedMood {
		e.AddDomainEvent(NewEntryReclassified(e, previous.DetectedMood))
	}
	if result.SelfHarmDetected && !previous.SelfHarmDetected {
		e.AddDomainEvent(NewSafetyAlertRaised(e, country))
	}
	return true
}

// SameClassification compares the fields a classifier run can change.
func SameClassification(a, b moodDomain.ClassificationResult) bool {
	return a.DetectedMood == b.DetectedMood &&
		a.Confidence == b.Confidence &&
		a.SelfHarmDetected == b.SelfHarmDetected &&
		a.SentimentScore == b.SentimentScore &&
		a.Reasoning == b.Reasoning &&
		a.EffectiveMood() == b.EffectiveMood() &&
		slices.Equal(a.CrisisPhrases, b.CrisisPhrases) &&
		slices.Equal(a.MatchedKeywords, b.MatchedKeywords) &&
		maps.Equal(a.MoodScores, b.MoodScores)
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
