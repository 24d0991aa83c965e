package shared

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDatabase is the path that opens a private in-memory database.
const MemoryDatabase = ":memory:"

// NewDatabase opens a connection to a SQLite database at the specified path, creating its directory if needed.
//
// An in-memory database is pinned to a single connection; every new connection would otherwise see an empty database.
func NewDatabase(path string) (*sql.DB, error) {
	if path != MemoryDatabase {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryDatabase {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for a file-backed database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// OpenStore opens the database described by c, applies pool settings and runs pending migrations.
func OpenStore(c DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabase(c.Path)
	if err != nil {
		return nil, err
	}
	if c.Path != MemoryDatabase {
		ConfigureDatabase(db, c.MaxOpenConns, c.MaxIdleConns)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
