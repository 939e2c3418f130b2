// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/innerbloo/RALLY-sub001/internal/model"

// =============================================================================
// ENGINE EVENTS
// =============================================================================

// Event is a notification pushed to the UI while a reply streams.
// Events for one room arrive in order; the UI adapts them to its own
// message types.
type Event interface {
	isEvent()
}

// ReplyToken carries one text increment of an in-flight reply. Seq is the
// chunk's 1-based position in its stream; a view that re-attached via
// PendingSnapshot drops tokens at or below the snapshot's sequence.
type ReplyToken struct {
	RoomID  int
	Content string
	Seq     int
}

// ReplyDone announces the finalized reply message, already appended to the
// room's log and persisted.
type ReplyDone struct {
	RoomID  int
	Message model.Message
}

// ReplyFailed announces a discarded reply. Any tokens the UI rendered for
// this stream must be dropped.
type ReplyFailed struct {
	RoomID int
	Err    error
}

func (ReplyToken) isEvent()  {}
func (ReplyDone) isEvent()   {}
func (ReplyFailed) isEvent() {}
