package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNoRows is returned when a query expected to return a row returns none.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err means "not found" for any supported driver.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		errors.Is(err, ErrNoRows)
}
