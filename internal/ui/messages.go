// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/session"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// StreamTokenMsg delivers one text increment of an in-flight reply. Seq is
// the chunk's position in its stream; the chat view drops tokens already
// covered by the snapshot it re-attached from.
type StreamTokenMsg struct {
	RoomID  int
	Content string
	Seq     int
}

// StreamDoneMsg signals that a reply finalized into the log.
type StreamDoneMsg struct {
	RoomID  int
	Message model.Message
}

// StreamFailedMsg signals a discarded reply; rendered tokens must go.
type StreamFailedMsg struct {
	RoomID int
	Err    error
}

// StoreChangedMsg signals that another process rewrote the store; the room
// list refreshes itself.
type StoreChangedMsg struct{}

// ExportDoneMsg reports the result of a transcript export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// CopyDoneMsg reports the result of a clipboard copy.
type CopyDoneMsg struct {
	Err error
}

// TranslateEvent maps an engine event onto the shell's message types.
// Used as the engine's notify callback via Program.Send, which preserves
// per-room ordering.
func TranslateEvent(ev session.Event) interface{} {
	switch ev := ev.(type) {
	case session.ReplyToken:
		return StreamTokenMsg{RoomID: ev.RoomID, Content: ev.Content, Seq: ev.Seq}
	case session.ReplyDone:
		return StreamDoneMsg{RoomID: ev.RoomID, Message: ev.Message}
	case session.ReplyFailed:
		return StreamFailedMsg{RoomID: ev.RoomID, Err: ev.Err}
	default:
		return nil
	}
}
