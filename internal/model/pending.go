// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// PENDING REPLY
// =============================================================================

// PendingReply is an in-flight assistant message whose content grows
// monotonically as stream chunks arrive. It is owned by the send that
// created it and is never persisted: on completion it is promoted into the
// conversation log via Finalize, on failure it is simply dropped.
//
// RELIABILITY: the stream goroutine appends while the UI reads in-progress
// text, so every accessor synchronizes on the internal mutex.
type PendingReply struct {
	RoomID    int
	SenderID  int
	StartedAt time.Time

	mu sync.Mutex
	// PERFORMANCE: strings.Builder avoids quadratic allocations while streaming
	content strings.Builder
	seq     int
}

// NewPendingReply starts an empty pending reply for the given room and peer.
func NewPendingReply(roomID, senderID int) *PendingReply {
	return &PendingReply{
		RoomID:    roomID,
		SenderID:  senderID,
		StartedAt: time.Now(),
	}
}

// Append adds a stream chunk and returns its 1-based sequence number.
// Chunks are applied in arrival order; the rendered text after n chunks
// equals the concatenation of the first n.
func (p *PendingReply) Append(chunk string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content.WriteString(chunk)
	p.seq++
	return p.seq
}

// Content returns the text accumulated so far.
func (p *PendingReply) Content() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content.String()
}

// Snapshot returns the accumulated text together with the sequence number
// of the last chunk it covers, as one consistent read.
func (p *PendingReply) Snapshot() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content.String(), p.seq
}

// Len returns the accumulated length in bytes.
func (p *PendingReply) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content.Len()
}

// IsEmpty reports whether any content has arrived yet.
func (p *PendingReply) IsEmpty() bool {
	return p.Len() == 0
}

// Finalize promotes the pending reply into a persisted-shape assistant
// Message. Returns ErrInvalidMessage if the stream produced no usable text,
// in which case nothing should be appended to the log.
func (p *PendingReply) Finalize() (Message, error) {
	content := p.Content()
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrInvalidMessage
	}
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Kind:      KindAssistant,
		SenderID:  p.SenderID,
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}
