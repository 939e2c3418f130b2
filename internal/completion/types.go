// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import "github.com/innerbloo/RALLY-sub001/internal/model"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is one transcript entry in the wire format the service expects.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body for the completion endpoint.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// StreamChunk is a single text increment from the streaming response.
type StreamChunk struct {
	// Content is the text of this increment; may be empty on the final chunk.
	Content string

	// Done marks the terminal chunk of a successful stream.
	Done bool

	// Error is set when the stream failed; delivered as the last chunk on
	// the channel variant.
	Error error
}

// serviceError is the error payload carried by non-2xx responses.
type serviceError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// streamLine is the wire shape of one newline-delimited stream chunk.
type streamLine struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// TRANSCRIPT CONVERSION
// =============================================================================

// TranscriptMessages maps a conversation history into the wire transcript.
// Messages authored by the local user become "user" turns, peer replies
// become "assistant" turns. System-kind log entries are room furniture, not
// part of the model-visible transcript, and are skipped defensively even if
// the caller forgot to strip them.
func TranscriptMessages(history []model.Message, localUserID int) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.IsSystem() {
			continue
		}
		role := "assistant"
		if msg.IsMine(localUserID) {
			role = "user"
		}
		out = append(out, ChatMessage{Role: role, Content: msg.Content})
	}
	return out
}
