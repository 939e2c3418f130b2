// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

// Namespace keys. These are the durable names; the file backend derives its
// file names from them and the SQLite backend uses them as primary keys.
const (
	NamespaceRooms    = "chatRooms"
	NamespaceMessages = "chatMessages"
	NamespaceProfile  = "userProfile"
)

// Store is the device-local key/value persistence consumed by the room
// directory and chat sessions.
//
// Load methods never fail on absent or corrupt data: they return the empty
// default and log, so callers can always render the baseline. Errors are
// reserved for I/O failures on write.
type Store interface {
	// LoadRooms returns the persisted room set, empty when absent/corrupt.
	LoadRooms() []model.Room

	// SaveRooms replaces the persisted room set atomically.
	SaveRooms(rooms []model.Room) error

	// LoadMessages returns the full room-to-log mapping, empty when
	// absent/corrupt.
	LoadMessages() map[int][]model.Message

	// SaveMessages replaces the whole mapping atomically. The mapping, not
	// an individual log, is the unit of durability.
	SaveMessages(messages map[int][]model.Message) error

	// LoadProfile returns the local user profile and whether one was stored.
	LoadProfile() (model.Profile, bool)

	// SaveProfile replaces the stored profile atomically.
	SaveProfile(profile model.Profile) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates a Store of the given backend rooted at dir.
func Open(backend, dir string, logger zerolog.Logger) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir, logger)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "chat.db"), logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// SaveRoomMessages is a convenience over Load/SaveMessages that replaces one
// room's log within the chatMessages namespace.
func SaveRoomMessages(s Store, roomID int, messages []model.Message) error {
	all := s.LoadMessages()
	all[roomID] = messages
	return s.SaveMessages(all)
}

// LoadRoomMessages returns one room's persisted log, or nil when the room
// has never produced a message write.
func LoadRoomMessages(s Store, roomID int) []model.Message {
	return s.LoadMessages()[roomID]
}
