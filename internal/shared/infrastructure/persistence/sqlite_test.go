package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/shared/application"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	return db
}

func countNotes(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestSQLiteUnitOfWork_CommitPersists(t *testing.T) {
	db := setupTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	err := application.WithUnitOfWork(context.Background(), uow, func(txCtx context.Context) error {
		_, err := SQLiteExecutor(txCtx, db).ExecContext(txCtx, `INSERT INTO notes (body) VALUES ('kept')`)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countNotes(t, db))
}

func TestSQLiteUnitOfWork_RollbackDiscards(t *testing.T) {
	db := setupTestDB(t)
	uow := NewSQLiteUnitOfWork(db)
	boom := errors.New("boom")

	err := application.WithUnitOfWork(context.Background(), uow, func(txCtx context.Context) error {
		_, err := SQLiteExecutor(txCtx, db).ExecContext(txCtx, `INSERT INTO notes (body) VALUES ('dropped')`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, countNotes(t, db))
}

func TestSQLiteUnitOfWork_NestedBeginJoinsOuter(t *testing.T) {
	db := setupTestDB(t)
	uow := NewSQLiteUnitOfWork(db)
	ctx := context.Background()

	outerCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	outer, ok := SQLiteTxInfoFromContext(outerCtx)
	require.True(t, ok)
	assert.True(t, outer.Owned)

	innerCtx, err := uow.Begin(outerCtx)
	require.NoError(t, err)
	inner, ok := SQLiteTxInfoFromContext(innerCtx)
	require.True(t, ok)
	assert.False(t, inner.Owned)
	assert.Same(t, outer.Tx, inner.Tx)

	require.NoError(t, uow.Commit(innerCtx))
	require.NoError(t, uow.Rollback(outerCtx))
}

func TestSQLiteUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewSQLiteUnitOfWork(setupTestDB(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

func TestSQLiteTxInfoFromContext_NilTx(t *testing.T) {
	info, ok := SQLiteTxInfoFromContext(WithSQLiteTx(context.Background(), nil, true))

	assert.False(t, ok)
	assert.Nil(t, info.Tx)
}

func TestSQLiteExecutor_FallsBackToDB(t *testing.T) {
	db := setupTestDB(t)

	assert.Same(t, db, SQLiteExecutor(context.Background(), db))
}

func TestSQLiteTime_SortsLexically(t *testing.T) {
	early := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)
	late := early.Add(500 * time.Millisecond)

	assert.Less(t, FormatSQLiteTime(early), FormatSQLiteTime(late))

	parsed, err := ParseSQLiteTime(FormatSQLiteTime(late))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(late))

	parsed, err = ParseSQLiteTime("2026-03-01T10:00:05+01:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(early))

	assert.False(t, NullSQLiteTime(nil).Valid)
	assert.True(t, NullSQLiteTime(&early).Valid)
}
