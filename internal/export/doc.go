// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to Markdown files.
//
// The exporter renders a room's full message history with peer names,
// optional timestamps and a YAML frontmatter block, and writes the result
// atomically so a crash never leaves a half-written transcript.
package export
