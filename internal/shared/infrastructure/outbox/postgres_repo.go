package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertOutboxSQL = `
	INSERT INTO outbox (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`

func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, inTx := persistence.TxInfoFromContext(ctx); inTx {
		return insertPostgres(ctx, persistence.Executor(ctx, r.pool), msgs)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertPostgres(ctx, tx, msgs)
	})
}

func insertPostgres(ctx context.Context, exec persistence.DBExecutor, msgs []*Message) error {
	for _, msg := range msgs {
		err := exec.QueryRow(ctx, insertOutboxSQL,
			msg.EventID,
			msg.AggregateType,
			msg.AggregateID,
			msg.RoutingKey,
			[]byte(msg.Payload),
			msg.CreatedAt,
		).Scan(&msg.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	const query = `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, created_at,
		       published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var msg Message
		var payload []byte
		if err := rows.Scan(
			&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey, &payload, &msg.CreatedAt,
			&msg.PublishedAt, &msg.NextRetryAt, &msg.RetryCount, &msg.LastError, &msg.DeadLetteredAt, &msg.DeadLetterReason,
		); err != nil {
			return nil, err
		}
		msg.Payload = payload
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox SET published_at = NOW(), next_retry_at = NULL WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3 WHERE id = $1`,
		id, errMsg, nextRetryAt)
	return err
}

func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = NOW(), dead_letter_reason = $2, last_error = $2 WHERE id = $1`,
		id, reason)
	return err
}

func (r *PostgresRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, publishedBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
