package domain

import (
	"github.com/google/uuid"

	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	sharedDomain "github.com/felixgeelhaar/moodlens/internal/shared/domain"
)

const aggregateType = "JournalEntry"

// Routing keys for journal events.
const (
	RoutingKeyEntryCreated      = "journal.entry.created"
	RoutingKeyEntryReclassified = "journal.entry.reclassified"
	RoutingKeySafetyAlertRaised = "journal.safety.alert_raised"
)

// EntryCreated is emitted when an entry is written. It never carries the text.
type EntryCreated struct {
	sharedDomain.BaseEvent
	EntryID    uuid.UUID       `json:"entry_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Mood       moodDomain.Mood `json:"mood"`
	Confidence float64         `json:"confidence"`
	SelfHarm   bool            `json:"self_harm"`
}

// NewEntryCreated creates an EntryCreated event.
func NewEntryCreated(e *JournalEntry) *EntryCreated {
	return &EntryCreated{
		BaseEvent:  sharedDomain.NewBaseEvent(e.ID(), aggregateType, RoutingKeyEntryCreated),
		EntryID:    e.ID(),
		UserID:     e.UserID(),
		Mood:       e.EffectiveMood(),
		Confidence: e.classification.Confidence,
		SelfHarm:   e.classification.SelfHarmDetected,
	}
}

// EntryReclassified is emitted when a rerun changes the detected mood.
type EntryReclassified struct {
	sharedDomain.BaseEvent
	EntryID      uuid.UUID       `json:"entry_id"`
	UserID       uuid.UUID       `json:"user_id"`
	PreviousMood moodDomain.Mood `json:"previous_mood"`
	Mood         moodDomain.Mood `json:"mood"`
}

// NewEntryReclassified creates an EntryReclassified event.
func NewEntryReclassified(e *JournalEntry, previous moodDomain.Mood) *EntryReclassified {
	return &EntryReclassified{
		BaseEvent:    sharedDomain.NewBaseEvent(e.ID(), aggregateType, RoutingKeyEntryReclassified),
		EntryID:      e.ID(),
		UserID:       e.UserID(),
		PreviousMood: previous,
		Mood:         e.classification.DetectedMood,
	}
}

// SafetyAlertRaised is emitted when crisis language is found in an entry.
type SafetyAlertRaised struct {
	sharedDomain.BaseEvent
	EntryID       uuid.UUID                 `json:"entry_id"`
	UserID        uuid.UUID                 `json:"user_id"`
	CrisisPhrases []string                  `json:"crisis_phrases"`
	Helpline      moodDomain.HelplineRecord `json:"helpline"`
}

// NewSafetyAlertRaised creates a SafetyAlertRaised event for the country's helpline.
func NewSafetyAlertRaised(e *JournalEntry, country string) *SafetyAlertRaised {
	return &SafetyAlertRaised{
		BaseEvent:     sharedDomain.NewBaseEvent(e.ID(), aggregateType, RoutingKeySafetyAlertRaised),
		EntryID:       e.ID(),
		UserID:        e.UserID(),
		CrisisPhrases: append([]string{}, e.classification.CrisisPhrases...),
		Helpline:      moodDomain.HelplineInfo(country),
	}
}
