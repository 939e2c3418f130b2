// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates chat rooms end to end.
//
// The Engine owns each room's conversation log, drives the streaming
// completion client, and keeps the persisted store and the room directory
// consistent with every mutation.
//
// # Key Types
//
//   - Engine: per-process chat orchestrator
//   - Event: notifications pushed to the UI (ReplyToken, ReplyDone, ReplyFailed)
//
// # Lifecycle of a send
//
// SendMessage appends the user's message, persists it, then streams the
// peer's reply in the background. Text increments surface as ReplyToken
// events; the finished reply is promoted into the log and persisted as one
// message. A failed stream discards everything accumulated: the log never
// sees a partial reply.
//
// One reply may be in flight per room. A second send while streaming
// returns ErrReplyInFlight. Navigating away does not cancel the stream;
// the reply finalizes in the background and the room's unread badge picks
// it up.
package session
