// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func sampleRoom(id int) model.Room {
	return model.Room{
		ID:   id,
		Peer: model.Peer{ID: 100 + id, Name: "민준", Online: true},
		Game: "리그 오브 레전드",
		LastMessage: &model.LastMessage{
			Content:   "hello",
			Timestamp: time.Now().Round(0),
			SenderID:  100 + id,
		},
		Unread: 2,
	}
}

func sampleMessages(t *testing.T) []model.Message {
	t.Helper()
	u, err := model.NewUserMessage(1, "hi")
	if err != nil {
		t.Fatal(err)
	}
	a, err := model.NewAssistantMessage(42, "hey there")
	if err != nil {
		t.Fatal(err)
	}
	return []model.Message{u, a}
}

// =============================================================================
// FILE STORE TESTS
// =============================================================================

func TestFileStore_RoomsRoundTrip(t *testing.T) {
	s := newFileStore(t)

	rooms := []model.Room{sampleRoom(1), sampleRoom(2)}
	if err := s.SaveRooms(rooms); err != nil {
		t.Fatalf("SaveRooms failed: %v", err)
	}

	loaded := s.LoadRooms()
	if len(loaded) != 2 {
		t.Fatalf("loaded %d rooms, want 2", len(loaded))
	}
	if loaded[0].ID != 1 || loaded[0].Peer.Name != "민준" {
		t.Errorf("room fields lost in round trip: %+v", loaded[0])
	}
	if loaded[0].LastMessage == nil || loaded[0].LastMessage.Content != "hello" {
		t.Error("last message summary lost in round trip")
	}
}

func TestFileStore_AbsentYieldsEmpty(t *testing.T) {
	s := newFileStore(t)

	if rooms := s.LoadRooms(); len(rooms) != 0 {
		t.Errorf("expected empty room set, got %d", len(rooms))
	}
	if msgs := s.LoadMessages(); len(msgs) != 0 {
		t.Errorf("expected empty message map, got %d", len(msgs))
	}
	if _, ok := s.LoadProfile(); ok {
		t.Error("expected no stored profile")
	}
}

func TestFileStore_CorruptYieldsEmpty(t *testing.T) {
	s := newFileStore(t)

	// A half-written or garbage namespace must degrade to empty, not error.
	for _, ns := range []string{NamespaceRooms, NamespaceMessages, NamespaceProfile} {
		path := filepath.Join(s.BaseDir, ns+".json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if rooms := s.LoadRooms(); len(rooms) != 0 {
		t.Errorf("corrupt rooms should load empty, got %d", len(rooms))
	}
	if msgs := s.LoadMessages(); len(msgs) != 0 {
		t.Errorf("corrupt messages should load empty, got %d", len(msgs))
	}
	if _, ok := s.LoadProfile(); ok {
		t.Error("corrupt profile should load as absent")
	}
}

func TestFileStore_MessagesRoundTrip(t *testing.T) {
	s := newFileStore(t)

	msgs := sampleMessages(t)
	if err := s.SaveMessages(map[int][]model.Message{7: msgs}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	loaded := s.LoadMessages()
	if len(loaded[7]) != 2 {
		t.Fatalf("loaded %d messages for room 7, want 2", len(loaded[7]))
	}
	if loaded[7][0].Content != "hi" || loaded[7][1].Content != "hey there" {
		t.Error("message order or content lost in round trip")
	}
}

func TestFileStore_ProfileRoundTrip(t *testing.T) {
	s := newFileStore(t)

	profile := model.Profile{ID: 1, Name: "소환사A", Bio: "bio"}
	if err := s.SaveProfile(profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	loaded, ok := s.LoadProfile()
	if !ok {
		t.Fatal("expected stored profile")
	}
	if loaded.Name != "소환사A" {
		t.Errorf("Name = %q, want %q", loaded.Name, "소환사A")
	}
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	s := newFileStore(t)
	if err := s.SaveRooms([]model.Room{sampleRoom(1)}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != NamespaceRooms+".json" {
			t.Errorf("unexpected file in store dir: %s", e.Name())
		}
	}
}

// =============================================================================
// SQLITE STORE TESTS
// =============================================================================

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoomsRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)

	if err := s.SaveRooms([]model.Room{sampleRoom(3)}); err != nil {
		t.Fatalf("SaveRooms failed: %v", err)
	}

	loaded := s.LoadRooms()
	if len(loaded) != 1 || loaded[0].ID != 3 {
		t.Errorf("round trip lost rooms: %+v", loaded)
	}
}

func TestSQLiteStore_OverwriteReplacesValue(t *testing.T) {
	s := newSQLiteStore(t)

	if err := s.SaveRooms([]model.Room{sampleRoom(1), sampleRoom(2)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRooms([]model.Room{sampleRoom(9)}); err != nil {
		t.Fatal(err)
	}

	loaded := s.LoadRooms()
	if len(loaded) != 1 || loaded[0].ID != 9 {
		t.Errorf("overwrite should replace the namespace, got %+v", loaded)
	}
}

func TestSQLiteStore_AbsentYieldsEmpty(t *testing.T) {
	s := newSQLiteStore(t)
	if rooms := s.LoadRooms(); len(rooms) != 0 {
		t.Errorf("expected empty room set, got %d", len(rooms))
	}
	if _, ok := s.LoadProfile(); ok {
		t.Error("expected no stored profile")
	}
}

func TestSQLiteStore_MessagesRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)

	if err := s.SaveMessages(map[int][]model.Message{5: sampleMessages(t)}); err != nil {
		t.Fatal(err)
	}
	loaded := s.LoadMessages()
	if len(loaded[5]) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(loaded[5]))
	}
}

// =============================================================================
// HELPERS AND OPEN
// =============================================================================

func TestSaveRoomMessages_PreservesOtherRooms(t *testing.T) {
	s := newFileStore(t)

	if err := SaveRoomMessages(s, 1, sampleMessages(t)); err != nil {
		t.Fatal(err)
	}
	if err := SaveRoomMessages(s, 2, sampleMessages(t)[:1]); err != nil {
		t.Fatal(err)
	}

	if got := LoadRoomMessages(s, 1); len(got) != 2 {
		t.Errorf("room 1 log = %d messages, want 2", len(got))
	}
	if got := LoadRoomMessages(s, 2); len(got) != 1 {
		t.Errorf("room 2 log = %d messages, want 1", len(got))
	}
}

func TestOpen_Backends(t *testing.T) {
	fileStore, err := Open(BackendFile, t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(file) failed: %v", err)
	}
	fileStore.Close()

	sqliteStore, err := Open(BackendSQLite, t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	sqliteStore.Close()

	if _, err := Open("bogus", t.TempDir(), zerolog.Nop()); err == nil {
		t.Error("unknown backend should fail")
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_FiresOnNamespaceWrite(t *testing.T) {
	dir := t.TempDir()

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(dir, 50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	path := filepath.Join(dir, NamespaceRooms+".json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not fire after a namespace write")
	}
}

func TestWatcher_IgnoresTempFiles(t *testing.T) {
	w := &Watcher{}

	tmp := fsnotify.Event{Name: "/data/.tmp-123", Op: fsnotify.Write}
	if w.relevant(tmp) {
		t.Error("temp files from atomic writes must be ignored")
	}

	ns := fsnotify.Event{Name: "/data/chatRooms.json", Op: fsnotify.Write}
	if !w.relevant(ns) {
		t.Error("namespace writes must be relevant")
	}

	chmod := fsnotify.Event{Name: "/data/chatRooms.json", Op: fsnotify.Chmod}
	if w.relevant(chmod) {
		t.Error("chmod-only events must be ignored")
	}
}
