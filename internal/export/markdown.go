// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/util"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls transcript rendering.
type Options struct {
	// IncludeTimestamps renders a timestamp next to every message.
	IncludeTimestamps bool

	// IncludeMetadata adds YAML frontmatter and a session info section.
	IncludeMetadata bool

	// OutputDir is where ToFile writes (default: current directory).
	OutputDir string
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeTimestamps: true,
		IncludeMetadata:   true,
	}
}

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// Markdown renders a room transcript as a Markdown document.
func Markdown(room model.Room, profile model.Profile, messages []model.Message, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(messages) == 0 {
		return nil, errors.New("export: conversation has no messages")
	}

	title := room.Peer.Name + " · " + room.Game

	var sb strings.Builder

	if opts.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(title)))
		sb.WriteString(fmt.Sprintf("peer: %s\n", escapeYAML(room.Peer.Name)))
		sb.WriteString(fmt.Sprintf("game: %s\n", escapeYAML(room.Game)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: rally\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	for i, msg := range messages {
		label := roleLabel(msg, room, profile)
		if opts.IncludeTimestamps && !msg.IsSystem() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				label, msg.Timestamp.Format("2006-01-02 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from rally on %s*\n",
		time.Now().Format("2006-01-02 15:04")))

	return []byte(sb.String()), nil
}

// ToFile renders the transcript and writes it atomically. Returns the path
// of the written file.
func ToFile(room model.Room, profile model.Profile, messages []model.Message, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	data, err := Markdown(room, profile, messages, opts)
	if err != nil {
		return "", err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("rally-%s-%s.md",
		sanitizeFilename(room.Peer.Name),
		time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// roleLabel picks the display name for a message author.
func roleLabel(msg model.Message, room model.Room, profile model.Profile) string {
	switch {
	case msg.IsSystem():
		return "[알림]"
	case msg.SenderID == profile.ID:
		return profile.Name
	default:
		return room.Peer.Name
	}
}

// sanitizeFilename strips characters that are unsafe in file names.
func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}
	out := strings.Trim(sb.String(), "-.")
	if out == "" {
		return "room"
	}
	return out
}

// escapeMarkdown escapes characters that would break heading formatting.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values that contain YAML-significant characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return "\"" + s + "\""
	}
	return s
}
