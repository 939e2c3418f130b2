// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for rooms, messages and
// conversation logs.
//
// A Room is one matched-peer conversation thread. Its ConversationLog is the
// full ordered message history, append-only and persisted as a whole. A
// PendingReply is the transient assistant message being filled by streamed
// text; it is promoted into the log on completion and discarded on failure.
package model
