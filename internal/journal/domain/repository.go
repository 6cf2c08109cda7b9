package domain

import (
	"context"

	"github.com/google/uuid"

	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// ListOptions filters and pages FindByUser.
type ListOptions struct {
	// Limit <= 0 returns every matching entry.
	Limit  int
	Offset int
	// Mood filters on the effective mood when set.
	Mood *moodDomain.Mood
}

// Repository persists journal entries.
type Repository interface {
	// Save inserts or updates an entry.
	Save(ctx context.Context, entry *JournalEntry) error

	// FindByID returns ErrEntryNotFound when the entry does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// FindByUser returns entries newest first.
	FindByUser(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*JournalEntry, error)

	// RecentEntries returns the newest limit entries, oldest first.
	RecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*JournalEntry, error)

	// CountByUser counts a user's entries, filtered on effective mood when mood is set.
	CountByUser(ctx context.Context, userID uuid.UUID, mood *moodDomain.Mood) (int, error)

	// Delete returns ErrEntryNotFound when nothing was removed.
	Delete(ctx context.Context, id uuid.UUID) error
}

// MoodHistory maps entries to the records the trend analyzer consumes,
// keeping their order.
func MoodHistory(entries []*JournalEntry) []moodDomain.HistoryRecord {
	history := make([]moodDomain.HistoryRecord, 0, len(entries))
	for _, entry := range entries {
		history = append(history, entry.HistoryRecord())
	}
	return history
}
