// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore persists namespaces as rows of a single key/value table.
// Each namespace is one row, written in one transaction, so the whole-value
// atomicity contract holds the same way it does for the file backend.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer; the engine has no concurrent store writers either.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadRooms returns the persisted room set, empty when absent or corrupt.
func (s *SQLiteStore) LoadRooms() []model.Room {
	var rooms []model.Room
	if !s.loadNamespace(NamespaceRooms, &rooms) {
		return []model.Room{}
	}
	return rooms
}

// SaveRooms replaces the persisted room set.
func (s *SQLiteStore) SaveRooms(rooms []model.Room) error {
	return s.saveNamespace(NamespaceRooms, rooms)
}

// LoadMessages returns the room-to-log mapping, empty when absent or corrupt.
func (s *SQLiteStore) LoadMessages() map[int][]model.Message {
	messages := make(map[int][]model.Message)
	if !s.loadNamespace(NamespaceMessages, &messages) || messages == nil {
		return make(map[int][]model.Message)
	}
	return messages
}

// SaveMessages replaces the whole mapping in one transaction.
func (s *SQLiteStore) SaveMessages(messages map[int][]model.Message) error {
	return s.saveNamespace(NamespaceMessages, messages)
}

// LoadProfile returns the stored profile and whether one exists.
func (s *SQLiteStore) LoadProfile() (model.Profile, bool) {
	var profile model.Profile
	if !s.loadNamespace(NamespaceProfile, &profile) || profile.ID == 0 {
		return model.Profile{}, false
	}
	return profile, true
}

// SaveProfile replaces the stored profile.
func (s *SQLiteStore) SaveProfile(profile model.Profile) error {
	return s.saveNamespace(NamespaceProfile, profile)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// NAMESPACE I/O
// =============================================================================

func (s *SQLiteStore) loadNamespace(namespace string, v any) bool {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM kv WHERE namespace = ?`, namespace).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("storage read failed, using empty default")
		}
		return false
	}

	if err := json.Unmarshal(payload, v); err != nil {
		s.logger.Warn().Err(err).Str("namespace", namespace).Msg("storage corrupt, using empty default")
		return false
	}
	return true
}

func (s *SQLiteStore) saveNamespace(namespace string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO kv (namespace, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		namespace, payload, time.Now().UTC())
	return err
}
