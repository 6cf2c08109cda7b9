package database

import "strings"

// Driver represents a storage backend type.
type Driver string

const (
	// DriverPostgres represents PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite represents a local SQLite file.
	DriverSQLite Driver = "sqlite"
	// DriverMongo represents MongoDB.
	DriverMongo Driver = "mongodb"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// DetectDriver parses a connection string and returns the driver type.
// Empty URLs select SQLite so the CLI works without any setup.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DriverMongo
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	}
	return DriverPostgres
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite, DriverMongo:
		return true
	default:
		return false
	}
}

// SQLitePathFromURL extracts a file path from a sqlite:// or file: URL.
// Other values are returned unchanged.
func SQLitePathFromURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(url, "file:"); ok {
		return rest
	}
	return url
}
