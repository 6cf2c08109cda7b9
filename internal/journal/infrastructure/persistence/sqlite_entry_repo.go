package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
	sharedPersistence "github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
)

// SQLiteEntryRepository implements domain.Repository on the local journal database.
type SQLiteEntryRepository struct {
	db     *sql.DB
	cipher crypto.ContentCipher
}

// NewSQLiteEntryRepository creates a new SQLite entry repository. A nil
// cipher stores text as written.
func NewSQLiteEntryRepository(db *sql.DB, cipher crypto.ContentCipher) *SQLiteEntryRepository {
	if cipher == nil {
		cipher = crypto.Plaintext{}
	}
	return &SQLiteEntryRepository{db: db, cipher: cipher}
}

const sqliteEntryColumns = `id, user_id, title, content, detected_mood, manual_mood, confidence,
	self_harm, crisis_phrases, sentiment_score, matched_keywords, mood_scores, reasoning, tags,
	created_at, updated_at, version`

// Save inserts the entry or overwrites the stored row.
func (r *SQLiteEntryRepository) Save(ctx context.Context, entry *domain.JournalEntry) error {
	rec, err := sealEntry(r.cipher, entry)
	if err != nil {
		return err
	}

	crisis, err := json.Marshal(rec.CrisisPhrases)
	if err != nil {
		return err
	}
	keywords, err := json.Marshal(rec.MatchedKeywords)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(rec.MoodScores)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return err
	}

	query := `INSERT INTO journal_entries (` + sqliteEntryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			detected_mood = excluded.detected_mood,
			manual_mood = excluded.manual_mood,
			confidence = excluded.confidence,
			self_harm = excluded.self_harm,
			crisis_phrases = excluded.crisis_phrases,
			sentiment_score = excluded.sentiment_score,
			matched_keywords = excluded.matched_keywords,
			mood_scores = excluded.mood_scores,
			reasoning = excluded.reasoning,
			tags = excluded.tags,
			updated_at = excluded.updated_at,
			version = excluded.version`

	_, err = sharedPersistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx, query,
		rec.ID.String(),
		rec.UserID.String(),
		rec.Title,
		rec.Content,
		rec.DetectedMood,
		nullString(rec.ManualMood),
		rec.Confidence,
		boolToInt(rec.SelfHarm),
		string(crisis),
		rec.SentimentScore,
		string(keywords),
		string(scores),
		rec.Reasoning,
		string(tags),
		sharedPersistence.FormatSQLiteTime(rec.CreatedAt),
		sharedPersistence.FormatSQLiteTime(rec.UpdatedAt),
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (r *SQLiteEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	query := `SELECT ` + sqliteEntryColumns + ` FROM journal_entries WHERE id = ?`
	row := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryRowContext(ctx, query, id.String())

	rec, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.open(r.cipher)
}

func (r *SQLiteEntryRepository) FindByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]*domain.JournalEntry, error) {
	where, args := sqliteUserFilter(userID, opts.Mood)

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, max(opts.Offset, 0))

	query := `SELECT ` + sqliteEntryColumns + ` FROM journal_entries
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	return r.query(ctx, query, args...)
}

func (r *SQLiteEntryRepository) RecentEntries(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.JournalEntry, error) {
	entries, err := r.FindByUser(ctx, userID, domain.ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return reverse(entries), nil
}

func (r *SQLiteEntryRepository) CountByUser(ctx context.Context, userID uuid.UUID, mood *moodDomain.Mood) (int, error) {
	where, args := sqliteUserFilter(userID, mood)
	var count int
	err := sharedPersistence.SQLiteExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE `+strings.Join(where, " AND "), args...).
		Scan(&count)
	return count, err
}

func sqliteUserFilter(userID uuid.UUID, mood *moodDomain.Mood) ([]string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID.String()}
	if mood != nil {
		where = append(where, "COALESCE(manual_mood, detected_mood) = ?")
		args = append(args, string(*mood))
	}
	return where, args
}

func (r *SQLiteEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sharedPersistence.SQLiteExecutor(ctx, r.db).
		ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *SQLiteEntryRepository) query(ctx context.Context, query string, args ...any) ([]*domain.JournalEntry, error) {
	rows, err := sharedPersistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.JournalEntry{}
	for rows.Next() {
		rec, err := scanSQLiteEntry(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (entryRecord, error) {
	var (
		rec                                  entryRecord
		id, userID, createdAt, updatedAt     string
		manual                               sql.NullString
		selfHarm                             int
		crisis, keywords, scores, tagsColumn string
	)
	err := row.Scan(
		&id, &userID, &rec.Title, &rec.Content, &rec.DetectedMood, &manual, &rec.Confidence,
		&selfHarm, &crisis, &rec.SentimentScore, &keywords, &scores, &rec.Reasoning, &tagsColumn,
		&createdAt, &updatedAt, &rec.Version,
	)
	if err != nil {
		return entryRecord{}, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return entryRecord{}, err
	}
	if rec.UserID, err = uuid.Parse(userID); err != nil {
		return entryRecord{}, err
	}
	if manual.Valid {
		rec.ManualMood = &manual.String
	}
	rec.SelfHarm = selfHarm != 0

	columns := []struct {
		raw    string
		target any
	}{
		{crisis, &rec.CrisisPhrases},
		{keywords, &rec.MatchedKeywords},
		{scores, &rec.MoodScores},
		{tagsColumn, &rec.Tags},
	}
	for _, column := range columns {
		if err := json.Unmarshal([]byte(column.raw), column.target); err != nil {
			return entryRecord{}, fmt.Errorf("decode entry %s: %w", id, err)
		}
	}

	if rec.CreatedAt, err = sharedPersistence.ParseSQLiteTime(createdAt); err != nil {
		return entryRecord{}, err
	}
	if rec.UpdatedAt, err = sharedPersistence.ParseSQLiteTime(updatedAt); err != nil {
		return entryRecord{}, err
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
