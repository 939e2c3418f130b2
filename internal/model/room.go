// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// PEER
// =============================================================================

// Peer describes the matched partner of a room.
type Peer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Online bool   `json:"online"`
}

// =============================================================================
// ROOM
// =============================================================================

// LastMessage is the room-list summary of the most recent visible message.
type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	SenderID  int       `json:"sender_id"`
}

// Room is one matched-peer conversation thread.
//
// Peer and Game are static fields seeded by the baseline catalog; LastMessage
// and Unread are dynamic fields owned by whichever side last produced a
// message write.
type Room struct {
	ID          int          `json:"id"`
	Peer        Peer         `json:"peer"`
	Game        string       `json:"game"`
	LastMessage *LastMessage `json:"last_message,omitempty"`
	Unread      int          `json:"unread"`
}

// HasActivity reports whether the room has ever seen a message.
func (r Room) HasActivity() bool {
	return r.LastMessage != nil
}

// LastActivity returns the timestamp of the last visible message, or the
// zero time for a room with no activity. Used for recency ordering.
func (r Room) LastActivity() time.Time {
	if r.LastMessage == nil {
		return time.Time{}
	}
	return r.LastMessage.Timestamp
}

// =============================================================================
// USER PROFILE
// =============================================================================

// Profile is the local user's display identity. The chat engine consumes it
// read-only for "is this message mine" rendering; profile editing lives
// outside the core.
type Profile struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
}
