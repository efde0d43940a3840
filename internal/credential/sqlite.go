// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore keeps the credential record in a small key/value table.
// The token and the serialized user live under KeyToken and KeyUser.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) the store at path.
// The file is restricted to the owner since it holds a bearer token.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("credential store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=2000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to restrict store permissions: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get returns the stored record.
// A store holding only one of the two keys is reported as ErrIncomplete.
func (s *SQLiteStore) Get() (Record, error) {
	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser)
	if err != nil {
		return Record{}, fmt.Errorf("read credential: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Record{}, fmt.Errorf("read credential: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("read credential: %w", err)
	}

	token, hasToken := values[KeyToken]
	rawUser, hasUser := values[KeyUser]
	switch {
	case !hasToken && !hasUser:
		return Record{}, ErrNotFound
	case !hasToken || !hasUser:
		return Record{}, ErrIncomplete
	}

	user, err := decodeUser(rawUser)
	if err != nil {
		return Record{}, err
	}
	return Record{Token: token, User: user}, nil
}

// Set replaces both keys in a single transaction.
func (s *SQLiteStore) Set(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rawUser, err := encodeUser(rec.User)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin credential write: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, KeyToken, rec.Token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if _, err := tx.Exec(upsert, KeyUser, rawUser); err != nil {
		return fmt.Errorf("write user: %w", err)
	}
	return tx.Commit()
}

// Clear deletes both keys in a single transaction.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?, ?)`, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
