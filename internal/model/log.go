// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION LOG
// =============================================================================

// ConversationLog is the ordered, append-only message history of one room.
//
// The log is exclusively owned by the session that opened the room; it is not
// safe for concurrent writers. Persistence happens at whole-log granularity:
// every mutation saves the complete sequence.
type ConversationLog struct {
	RoomID   int
	messages []Message
}

// NewConversationLog creates an empty log for a room.
func NewConversationLog(roomID int) *ConversationLog {
	return &ConversationLog{RoomID: roomID}
}

// RestoreConversationLog rebuilds a log from persisted messages, preserving
// their order.
func RestoreConversationLog(roomID int, messages []Message) *ConversationLog {
	log := &ConversationLog{RoomID: roomID}
	log.messages = append(log.messages, messages...)
	return log
}

// Append adds a message to the end of the log. Blank content is rejected
// with ErrInvalidMessage; the log never stores an empty entry.
//
// Timestamps are clamped to be non-decreasing so that persisted order,
// visible order and time order never disagree.
func (l *ConversationLog) Append(msg Message) error {
	if msg.Content == "" || isBlank(msg.Content) {
		return ErrInvalidMessage
	}
	if n := len(l.messages); n > 0 && msg.Timestamp.Before(l.messages[n-1].Timestamp) {
		msg.Timestamp = l.messages[n-1].Timestamp
	}
	l.messages = append(l.messages, msg)
	return nil
}

// Messages returns the messages in append order. The returned slice is a
// copy; the log's own sequence cannot be shortened or reordered through it.
func (l *ConversationLog) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *ConversationLog) Len() int {
	return len(l.messages)
}

// Last returns the most recent message and true, or a zero Message and false
// for an empty log.
func (l *ConversationLog) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// LastVisible returns the most recent non-system message, if any. System
// notices are excluded from last-message summaries.
func (l *ConversationLog) LastVisible() (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if !l.messages[i].IsSystem() {
			return l.messages[i], true
		}
	}
	return Message{}, false
}

// MarkRead flips the read flag on every message not authored by the local
// user. Called when the room is opened. Returns the number of messages that
// changed state.
func (l *ConversationLog) MarkRead(localUserID int) int {
	changed := 0
	for i := range l.messages {
		if l.messages[i].IsMine(localUserID) {
			continue
		}
		if !l.messages[i].Read {
			l.messages[i].Read = true
			changed++
		}
	}
	return changed
}

// UnreadCount returns the number of unread, non-system messages authored by
// the peer.
func (l *ConversationLog) UnreadCount(localUserID int) int {
	count := 0
	for i := range l.messages {
		msg := &l.messages[i]
		if msg.IsSystem() || msg.IsMine(localUserID) {
			continue
		}
		if !msg.Read {
			count++
		}
	}
	return count
}

// Transcript returns the model-visible history for a completion request:
// every non-system message in order. System notices are room furniture, not
// part of the conversation the remote model sees.
func (l *ConversationLog) Transcript() []Message {
	out := make([]Message, 0, len(l.messages))
	for _, msg := range l.messages {
		if msg.IsSystem() {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
