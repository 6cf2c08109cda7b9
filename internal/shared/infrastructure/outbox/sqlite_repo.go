package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
)

// SQLiteRepository implements Repository on the local journal database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

const sqliteOutboxColumns = `id, event_id, aggregate_type, aggregate_id, routing_key, payload, created_at,
	published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason`

func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, inTx := persistence.SQLiteTxInfoFromContext(ctx); inTx {
		return r.insertAll(ctx, persistence.SQLiteExecutor(ctx, r.db), msgs)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.insertAll(ctx, tx, msgs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) insertAll(ctx context.Context, exec persistence.SQLExecutor, msgs []*Message) error {
	const query = `INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, msg := range msgs {
		result, err := exec.ExecContext(ctx, query,
			msg.EventID.String(),
			msg.AggregateType,
			msg.AggregateID.String(),
			msg.RoutingKey,
			string(msg.Payload),
			persistence.FormatSQLiteTime(msg.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", msg.RoutingKey, err)
		}
		if msg.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `SELECT ` + sqliteOutboxColumns + ` FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`

	rows, err := persistence.SQLiteExecutor(ctx, r.db).QueryContext(ctx, query,
		persistence.FormatSQLiteTime(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := persistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET published_at = ?, next_retry_at = NULL WHERE id = ?`,
		persistence.FormatSQLiteTime(r.now()), id)
	return err
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := persistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`,
		errMsg, persistence.FormatSQLiteTime(nextRetryAt), id)
	return err
}

func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := persistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?, last_error = ? WHERE id = ?`,
		persistence.FormatSQLiteTime(r.now()), reason, reason, id)
	return err
}

func (r *SQLiteRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	result, err := persistence.SQLiteExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`,
		persistence.FormatSQLiteTime(publishedBefore))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSQLiteMessage(rows *sql.Rows) (*Message, error) {
	var (
		msg                                    Message
		eventID, aggregateID, payload, created string
		publishedAt, nextRetryAt, deadAt       sql.NullString
		lastError, deadReason                  sql.NullString
	)
	if err := rows.Scan(&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.RoutingKey, &payload, &created,
		&publishedAt, &nextRetryAt, &msg.RetryCount, &lastError, &deadAt, &deadReason); err != nil {
		return nil, err
	}

	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox %d event_id: %w", msg.ID, err)
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, fmt.Errorf("outbox %d aggregate_id: %w", msg.ID, err)
	}
	if msg.CreatedAt, err = persistence.ParseSQLiteTime(created); err != nil {
		return nil, fmt.Errorf("outbox %d created_at: %w", msg.ID, err)
	}
	msg.Payload = json.RawMessage(payload)
	msg.PublishedAt = parseNullTime(publishedAt)
	msg.NextRetryAt = parseNullTime(nextRetryAt)
	msg.DeadLetteredAt = parseNullTime(deadAt)
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadReason.Valid {
		msg.DeadLetterReason = &deadReason.String
	}
	return &msg, nil
}

func parseNullTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := persistence.ParseSQLiteTime(value.String)
	if err != nil {
		return nil
	}
	return &t
}
