// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides device-local persistence for the chat engine.
//
// Three namespaces are durable, each persisted as a whole value:
//
//   - chatRooms    -> the persisted room set
//   - chatMessages -> room ID to full conversation log
//   - userProfile  -> the local user's display identity
//
// Writes are atomic at namespace granularity: a crash mid-write leaves the
// prior durable value intact, never a truncated one. Absent or corrupt data
// degrades to the empty default so baseline rooms always render; corruption
// is logged and never surfaced to the caller as a hard failure.
//
// Two backends implement the Store interface: JSON files (default) and a
// SQLite key/value table.
package store
