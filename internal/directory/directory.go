// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"sort"
	"strings"
	"sync"

	"github.com/innerbloo/RALLY-sub001/internal/catalog"
	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/store"
)

// =============================================================================
// ROOM DIRECTORY
// =============================================================================

// Directory merges the baseline catalog with the persisted room set and
// serves the sorted result to list views and badge counters.
type Directory struct {
	store store.Store

	mu    sync.RWMutex
	cache []model.Room
	valid bool
}

// New creates a directory over the given store.
func New(s store.Store) *Directory {
	return &Directory{store: s}
}

// Resolve returns the merged, sorted room directory. The result is cached
// until Invalidate; the returned slice is a copy safe for the caller to
// filter and reorder.
func (d *Directory) Resolve() []model.Room {
	d.mu.RLock()
	if d.valid {
		out := make([]model.Room, len(d.cache))
		copy(out, d.cache)
		d.mu.RUnlock()
		return out
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid {
		d.cache = d.merge()
		d.valid = true
	}
	out := make([]model.Room, len(d.cache))
	copy(out, d.cache)
	return out
}

// Room returns the resolved room with the given ID.
func (d *Directory) Room(id int) (model.Room, bool) {
	for _, room := range d.Resolve() {
		if room.ID == id {
			return room, true
		}
	}
	return model.Room{}, false
}

// Invalidate drops the cached snapshot so the next Resolve re-merges.
// Called after message writes and by the store watcher.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.valid = false
	d.cache = nil
	d.mu.Unlock()
}

// UpsertPersisted writes a room's dynamic state into the persisted set and
// invalidates the snapshot. Static fields of baseline rooms are kept by the
// merge regardless of what the persisted record carries.
func (d *Directory) UpsertPersisted(room model.Room) error {
	rooms := d.store.LoadRooms()

	replaced := false
	for i := range rooms {
		if rooms[i].ID == room.ID {
			rooms[i] = room
			replaced = true
			break
		}
	}
	if !replaced {
		rooms = append(rooms, room)
	}

	if err := d.store.SaveRooms(rooms); err != nil {
		return err
	}
	d.Invalidate()
	return nil
}

// merge builds the directory: baseline first, persisted overlaid by room ID.
// Membership is map-indexed so the merge stays linear in the input sizes.
func (d *Directory) merge() []model.Room {
	merged := catalog.Rooms()

	index := make(map[int]int, len(merged))
	for i, room := range merged {
		index[room.ID] = i
	}

	for _, persisted := range d.store.LoadRooms() {
		i, exists := index[persisted.ID]
		if !exists {
			index[persisted.ID] = len(merged)
			merged = append(merged, persisted)
			continue
		}
		// Baseline stays authoritative for static fields; persisted wins
		// the dynamic ones once it has produced a message write.
		if persisted.LastMessage != nil {
			merged[i].LastMessage = persisted.LastMessage
			merged[i].Unread = persisted.Unread
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		ta, tb := merged[a].LastActivity(), merged[b].LastActivity()
		if ta.Equal(tb) {
			return merged[a].ID < merged[b].ID
		}
		return ta.After(tb)
	})

	return merged
}

// =============================================================================
// FILTERS
// =============================================================================

// Filter is a pure predicate over a resolved room.
type Filter func(model.Room) bool

// ByPeerName matches rooms whose peer name contains q, case-insensitively.
// A blank query matches everything.
func ByPeerName(q string) Filter {
	q = strings.ToLower(strings.TrimSpace(q))
	return func(room model.Room) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(room.Peer.Name), q)
	}
}

// UnreadOnly matches rooms with at least one unread message.
func UnreadOnly() Filter {
	return func(room model.Room) bool {
		return room.Unread > 0
	}
}

// ByGame matches rooms with the exact game tag. A blank tag matches
// everything.
func ByGame(tag string) Filter {
	tag = strings.TrimSpace(tag)
	return func(room model.Room) bool {
		if tag == "" {
			return true
		}
		return room.Game == tag
	}
}

// Apply returns the rooms passing every filter, preserving order. Filters
// AND-compose and never mutate their input.
func Apply(rooms []model.Room, filters ...Filter) []model.Room {
	out := make([]model.Room, 0, len(rooms))
	for _, room := range rooms {
		keep := true
		for _, f := range filters {
			if !f(room) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, room)
		}
	}
	return out
}

// MatchingRooms returns resolved rooms whose conversation log contains the
// query, case-insensitively. Feeds the room-list text search.
func (d *Directory) MatchingRooms(query string) []model.Room {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d.Resolve()
	}

	logs := d.store.LoadMessages()

	var out []model.Room
	for _, room := range d.Resolve() {
		msgs := logs[room.ID]
		if msgs == nil {
			msgs = catalog.Messages(room.ID)
		}
		for _, msg := range msgs {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				out = append(out, room)
				break
			}
		}
	}
	return out
}
