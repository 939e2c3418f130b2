// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore persists each namespace as one JSON file under a base directory.
type FileStore struct {
	// BaseDir is the directory holding the namespace files.
	BaseDir string

	logger zerolog.Logger
}

// NewFileStore creates a file-backed store rooted at dir, creating it if
// needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{BaseDir: dir, logger: logger}, nil
}

// LoadRooms returns the persisted room set, empty when absent or corrupt.
func (s *FileStore) LoadRooms() []model.Room {
	var rooms []model.Room
	if !s.loadNamespace(NamespaceRooms, &rooms) {
		return []model.Room{}
	}
	return rooms
}

// SaveRooms replaces the persisted room set atomically.
func (s *FileStore) SaveRooms(rooms []model.Room) error {
	return s.saveNamespace(NamespaceRooms, rooms)
}

// LoadMessages returns the room-to-log mapping, empty when absent or corrupt.
func (s *FileStore) LoadMessages() map[int][]model.Message {
	messages := make(map[int][]model.Message)
	if !s.loadNamespace(NamespaceMessages, &messages) {
		return make(map[int][]model.Message)
	}
	if messages == nil {
		return make(map[int][]model.Message)
	}
	return messages
}

// SaveMessages replaces the whole mapping atomically.
func (s *FileStore) SaveMessages(messages map[int][]model.Message) error {
	return s.saveNamespace(NamespaceMessages, messages)
}

// LoadProfile returns the stored profile and whether one exists.
func (s *FileStore) LoadProfile() (model.Profile, bool) {
	var profile model.Profile
	if !s.loadNamespace(NamespaceProfile, &profile) {
		return model.Profile{}, false
	}
	if profile.ID == 0 {
		return model.Profile{}, false
	}
	return profile, true
}

// SaveProfile replaces the stored profile atomically.
func (s *FileStore) SaveProfile(profile model.Profile) error {
	return s.saveNamespace(NamespaceProfile, profile)
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

// =============================================================================
// NAMESPACE I/O
// =============================================================================

// namespacePath returns the file backing a namespace.
func (s *FileStore) namespacePath(namespace string) string {
	return filepath.Join(s.BaseDir, namespace+".json")
}

// loadNamespace decodes a namespace file into v. Returns false when the file
// is absent or unparseable; corruption is logged and treated as absent so
// the caller falls back to the empty default.
func (s *FileStore) loadNamespace(namespace string, v any) bool {
	data, err := os.ReadFile(s.namespacePath(namespace))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("namespace", namespace).Msg("storage read failed, using empty default")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn().Err(err).Str("namespace", namespace).Msg("storage corrupt, using empty default")
		return false
	}
	return true
}

// saveNamespace writes a namespace atomically with fsync. The previous
// value survives a crash mid-write.
func (s *FileStore) saveNamespace(namespace string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(s.namespacePath(namespace), data, 0644)
}
