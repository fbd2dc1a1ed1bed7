package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite:"

// Open connects to the database described by dsn. DSNs starting with "sqlite:" open a SQLite
// database; anything else is handed to the PostgreSQL driver.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return ConnectSQLite(strings.TrimPrefix(dsn, sqlitePrefix))
	}
	return ConnectPostgres(dsn)
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite opens a SQLite database file (or ":memory:").
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return db, nil
}
