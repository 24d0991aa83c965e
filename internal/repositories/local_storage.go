package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vorplay/internal/session"
)

// LocalStorage implements key/value persistence over the local_storage table.
type LocalStorage struct {
	db *sql.DB
}

// NewLocalStorage creates a new [LocalStorage] with the given database connection
func NewLocalStorage(db *sql.DB) *LocalStorage {
	return &LocalStorage{db: db}
}

var _ session.Persistence = (*LocalStorage)(nil)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func set(ctx context.Context, q querier, key, value string) error {
	query := `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := q.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func remove(ctx context.Context, q querier, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	return remove(ctx, s.db, key)
}

// Keys lists every stored key in lexical order.
func (s *LocalStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// LoadSession reads the credential and identity snapshot.
func (s *LocalStorage) LoadSession(ctx context.Context) (string, []byte, error) {
	credential, _, err := get(ctx, s.db, session.CredentialKey)
	if err != nil {
		return "", nil, err
	}
	identity, ok, err := get(ctx, s.db, session.IdentityKey)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return credential, nil, nil
	}
	return credential, []byte(identity), nil
}

// SaveSession writes the credential and identity snapshot in one transaction.
func (s *LocalStorage) SaveSession(ctx context.Context, credential string, identity []byte) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := set(ctx, tx, session.CredentialKey, credential); err != nil {
			return err
		}
		return set(ctx, tx, session.IdentityKey, string(identity))
	})
}

// ClearSession erases the credential and identity snapshot in one transaction.
func (s *LocalStorage) ClearSession(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := remove(ctx, tx, session.CredentialKey); err != nil {
			return err
		}
		return remove(ctx, tx, session.IdentityKey)
	})
}

func (s *LocalStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
