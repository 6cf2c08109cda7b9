package persistence

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
)

func setupEntryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	sqlDB, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, sqlDB))
	return sqlDB
}

func testCipher(t *testing.T) crypto.ContentCipher {
	t.Helper()
	cipher, err := crypto.NewContentCipher(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	require.NoError(t, err)
	return cipher
}

func newEntry(t *testing.T, userID uuid.UUID, content string, manual *moodDomain.Mood, at time.Time) *domain.JournalEntry {
	t.Helper()
	entry, err := domain.NewJournalEntryAt(userID, "title", content, []string{"Home"},
		analysis.Classify(content, manual), "US", at)
	require.NoError(t, err)
	return entry
}

func TestSQLiteEntryRepository_SaveAndFind(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, testCipher(t))
	ctx := context.Background()

	userID := uuid.New()
	entry := newEntry(t, userID, "I want to end my life", nil, time.Date(2024, 2, 1, 7, 30, 0, 123, time.UTC))
	require.NoError(t, repo.Save(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID())
	require.NoError(t, err)

	assert.Equal(t, entry.ID(), found.ID())
	assert.Equal(t, userID, found.UserID())
	assert.Equal(t, "title", found.Title())
	assert.Equal(t, "I want to end my life", found.Content())
	assert.Equal(t, []string{"home"}, found.Tags())
	assert.True(t, domain.SameClassification(entry.Classification(), found.Classification()))
	assert.True(t, entry.CreatedAt().Equal(found.CreatedAt()))
	assert.Equal(t, 1, found.Version())
	assert.Empty(t, found.DomainEvents())
}

func TestSQLiteEntryRepository_ContentIsSealedAtRest(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, testCipher(t))
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "a very private thought", nil, time.Now())
	require.NoError(t, repo.Save(ctx, entry))

	var stored, detected string
	require.NoError(t, sqlDB.QueryRowContext(ctx,
		`SELECT content, detected_mood FROM journal_entries WHERE id = ?`, entry.ID().String()).
		Scan(&stored, &detected))

	assert.NotEqual(t, "a very private thought", stored)
	assert.True(t, crypto.IsSealed(stored))
	assert.Equal(t, string(entry.Classification().DetectedMood), detected)

	plain := NewSQLiteEntryRepository(sqlDB, nil)
	_, err := plain.FindByID(ctx, entry.ID())
	assert.ErrorIs(t, err, crypto.ErrEncryptionKeyRequired)
}

func TestSQLiteEntryRepository_SaveUpdates(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, nil)
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "hello", nil, time.Now())
	require.NoError(t, repo.Save(ctx, entry))

	require.True(t, entry.Reclassify(analysis.Classify("I feel so happy", nil), "US"))
	require.NoError(t, repo.Save(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID())
	require.NoError(t, err)
	assert.Equal(t, moodDomain.MoodHappy, found.Classification().DetectedMood)
	assert.Equal(t, 2, found.Version())

	count, err := repo.CountByUser(ctx, entry.UserID(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteEntryRepository_FindByUser(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, nil)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	calm := moodDomain.MoodCalm
	contents := []string{"I feel so happy", "so sad and tired", "I feel so happy again", "meh"}
	var saved []*domain.JournalEntry
	for i, content := range contents {
		var manual *moodDomain.Mood
		if i == 3 {
			manual = &calm
		}
		entry := newEntry(t, userID, content, manual, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Save(ctx, entry))
		saved = append(saved, entry)
	}
	require.NoError(t, repo.Save(ctx, newEntry(t, uuid.New(), "someone else", nil, base)))

	t.Run("newest first", func(t *testing.T) {
		entries, err := repo.FindByUser(ctx, userID, domain.ListOptions{})
		require.NoError(t, err)
		require.Len(t, entries, 4)
		assert.Equal(t, saved[3].ID(), entries[0].ID())
		assert.Equal(t, saved[0].ID(), entries[3].ID())
	})

	t.Run("paging", func(t *testing.T) {
		entries, err := repo.FindByUser(ctx, userID, domain.ListOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, saved[2].ID(), entries[0].ID())
		assert.Equal(t, saved[1].ID(), entries[1].ID())
	})

	t.Run("mood filter uses the effective mood", func(t *testing.T) {
		happy := moodDomain.MoodHappy
		entries, err := repo.FindByUser(ctx, userID, domain.ListOptions{Mood: &happy})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = repo.FindByUser(ctx, userID, domain.ListOptions{Mood: &calm})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, saved[3].ID(), entries[0].ID())
	})

	t.Run("count applies the same mood filter", func(t *testing.T) {
		happy := moodDomain.MoodHappy
		total, err := repo.CountByUser(ctx, userID, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		happyCount, err := repo.CountByUser(ctx, userID, &happy)
		require.NoError(t, err)
		assert.Equal(t, 2, happyCount)

		calmCount, err := repo.CountByUser(ctx, userID, &calm)
		require.NoError(t, err)
		assert.Equal(t, 1, calmCount)
	})

	t.Run("recent entries are chronological", func(t *testing.T) {
		entries, err := repo.RecentEntries(ctx, userID, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, saved[1].ID(), entries[0].ID())
		assert.Equal(t, saved[3].ID(), entries[2].ID())

		history := domain.MoodHistory(entries)
		assert.Equal(t, moodDomain.MoodCalm, history[2].Mood)
	})
}

func TestSQLiteEntryRepository_Delete(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, nil)
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "hello", nil, time.Now())
	require.NoError(t, repo.Save(ctx, entry))

	require.NoError(t, repo.Delete(ctx, entry.ID()))
	_, err := repo.FindByID(ctx, entry.ID())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, entry.ID()), domain.ErrEntryNotFound)
}

func TestSQLiteEntryRepository_UnitOfWorkRollback(t *testing.T) {
	sqlDB := setupEntryTestDB(t)
	repo := NewSQLiteEntryRepository(sqlDB, nil)
	uow := sharedPersistence.NewSQLiteUnitOfWork(sqlDB)
	ctx := context.Background()

	entry := newEntry(t, uuid.New(), "hello", nil, time.Now())

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(txCtx, entry))
	require.NoError(t, uow.Rollback(txCtx))

	_, err = repo.FindByID(ctx, entry.ID())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}
