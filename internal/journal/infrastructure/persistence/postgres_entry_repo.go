package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
	sharedPersistence "github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
)

// PostgresEntryRepository implements domain.Repository using PostgreSQL.
type PostgresEntryRepository struct {
	pool   *pgxpool.Pool
	cipher crypto.ContentCipher
}

// NewPostgresEntryRepository creates a new PostgreSQL entry repository.
func NewPostgresEntryRepository(pool *pgxpool.Pool, cipher crypto.ContentCipher) *PostgresEntryRepository {
	if cipher == nil {
		cipher = crypto.Plaintext{}
	}
	return &PostgresEntryRepository{pool: pool, cipher: cipher}
}

const postgresEntryColumns = `id, user_id, title, content, detected_mood, manual_mood, confidence,
	self_harm, crisis_phrases, sentiment_score, matched_keywords, mood_scores, reasoning, tags,
	created_at, updated_at, version`

// Save upserts the entry.
func (r *PostgresEntryRepository) Save(ctx context.Context, entry *domain.JournalEntry) error {
	rec, err := sealEntry(r.cipher, entry)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO journal_entries (` + postgresEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			detected_mood = EXCLUDED.detected_mood,
			manual_mood = EXCLUDED.manual_mood,
			confidence = EXCLUDED.confidence,
			self_harm = EXCLUDED.self_harm,
			crisis_phrases = EXCLUDED.crisis_phrases,
			sentiment_score = EXCLUDED.sentiment_score,
			matched_keywords = EXCLUDED.matched_keywords,
			mood_scores = EXCLUDED.mood_scores,
			reasoning = EXCLUDED.reasoning,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
	`
	_, err = sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.Content,
		rec.DetectedMood,
		rec.ManualMood,
		rec.Confidence,
		rec.SelfHarm,
		pq.Array(rec.CrisisPhrases),
		rec.SentimentScore,
		pq.Array(rec.MatchedKeywords),
		rec.MoodScores,
		rec.Reasoning,
		pq.Array(rec.Tags),
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (r *PostgresEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	query := `SELECT ` + postgresEntryColumns + ` FROM journal_entries WHERE id = $1`
	rec, err := scanPostgresEntry(sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.open(r.cipher)
}

func (r *PostgresEntryRepository) FindByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]*domain.JournalEntry, error) {
	mood := moodParam(opts.Mood)
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	query := `SELECT ` + postgresEntryColumns + ` FROM journal_entries
		WHERE user_id = $1
		  AND ($2::text IS NULL OR COALESCE(manual_mood, detected_mood) = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, userID, mood, limit, max(opts.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.JournalEntry{}
	for rows.Next() {
		rec, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, err
		}
		entry, err := rec.open(r.cipher)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PostgresEntryRepository) RecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	entries, err := r.FindByUser(ctx, userID, domain.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return reverse(entries), nil
}

func (r *PostgresEntryRepository) CountByUser(ctx context.Context, userID uuid.UUID, mood *moodDomain.Mood) (int, error) {
	var count int
	err := sharedPersistence.Executor(ctx, r.pool).
		QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
			WHERE user_id = $1
			  AND ($2::text IS NULL OR COALESCE(manual_mood, detected_mood) = $2)`, userID, moodParam(mood)).
		Scan(&count)
	return count, err
}

func moodParam(mood *moodDomain.Mood) *string {
	if mood == nil {
		return nil
	}
	m := string(*mood)
	return &m
}

func (r *PostgresEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func scanPostgresEntry(row pgx.Row) (entryRecord, error) {
	var rec entryRecord
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Title, &rec.Content, &rec.DetectedMood, &rec.ManualMood, &rec.Confidence,
		&rec.SelfHarm, pq.Array(&rec.CrisisPhrases), &rec.SentimentScore, pq.Array(&rec.MatchedKeywords),
		&rec.MoodScores, &rec.Reasoning, pq.Array(&rec.Tags),
		&rec.CreatedAt, &rec.UpdatedAt, &rec.Version,
	)
	return rec, err
}
