// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE KIND
// =============================================================================

// Kind identifies who produced a message.
type Kind string

const (
	KindUser      Kind = "user"      // the local user
	KindAssistant Kind = "assistant" // the matched peer's generated reply
	KindSystem    Kind = "system"    // room notices; never attributed to a sender
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ErrInvalidMessage is returned when a message body is empty after trimming.
var ErrInvalidMessage = errors.New("message content is empty")

// Message is a single entry in a room's conversation log.
//
// Messages are append-only: once in a log the only mutation ever applied is
// flipping the Read flag.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	SenderID  int       `json:"sender_id,omitempty"` // zero for system messages
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewMessage creates a message with a generated ID and the current time.
// Returns ErrInvalidMessage when content is blank.
func NewMessage(kind Kind, senderID int, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrInvalidMessage
	}
	return Message{
		ID:        "msg_" + uuid.NewString(),
		Kind:      kind,
		SenderID:  senderID,
		Content:   content,
		Timestamp: time.Now(),
	}, nil
}

// NewUserMessage creates a message authored by the local user.
// User messages are born read.
func NewUserMessage(senderID int, content string) (Message, error) {
	msg, err := NewMessage(KindUser, senderID, content)
	if err != nil {
		return Message{}, err
	}
	msg.Read = true
	return msg, nil
}

// NewAssistantMessage creates a finalized peer reply.
func NewAssistantMessage(senderID int, content string) (Message, error) {
	return NewMessage(KindAssistant, senderID, content)
}

// NewSystemMessage creates a room notice. System messages carry no sender
// and are born read so they never count toward unread badges.
func NewSystemMessage(content string) (Message, error) {
	msg, err := NewMessage(KindSystem, 0, content)
	if err != nil {
		return Message{}, err
	}
	msg.Read = true
	return msg, nil
}

// IsSystem reports whether the message is a room notice.
func (m Message) IsSystem() bool {
	return m.Kind == KindSystem
}

// IsMine reports whether the message was authored by the given local user.
func (m Message) IsMine(localUserID int) bool {
	return m.Kind != KindSystem && m.SenderID == localUserID
}

// Preview returns a single-line, rune-truncated preview of the content.
func (m Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
