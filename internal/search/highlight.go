// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// HIGHLIGHT STYLES
// =============================================================================

// Two-tier highlighting: the match under the cursor gets the loud style,
// every other match gets the subtle one.
var (
	currentMatchStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("214")).
				Foreground(lipgloss.Color("232")).
				Bold(true)

	otherMatchStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("238")).
			Foreground(lipgloss.Color("214"))
)

// =============================================================================
// HIGHLIGHTING
// =============================================================================

// Highlight returns text with every query occurrence wrapped in highlight
// styling. msgIndex identifies which message this text belongs to, so the
// cursor match can be told apart from the rest. Rune-offset slicing keeps
// multi-byte text intact.
func (n *Navigator) Highlight(text string, msgIndex int) string {
	if len(n.queryRunes) == 0 || len(n.matches) == 0 {
		return text
	}

	hasMatches := false
	for _, match := range n.matches {
		if match.MessageIndex == msgIndex {
			hasMatches = true
			break
		}
	}
	if !hasMatches {
		return text
	}

	// Slice the NFC form so offsets computed during the scan line up.
	displayRunes := []rune(norm.NFC.String(text))
	searchRunes := []rune(normalize(text))
	if len(displayRunes) != len(searchRunes) {
		// Case folding changed the rune count; styling offsets would lie.
		return text
	}

	var result strings.Builder
	lastEnd := 0
	for _, start := range findAll(searchRunes, n.queryRunes) {
		end := start + len(n.queryRunes)
		if start > lastEnd {
			result.WriteString(string(displayRunes[lastEnd:start]))
		}

		matchText := string(displayRunes[start:end])
		if n.isCurrent(msgIndex, start) {
			result.WriteString(currentMatchStyle.Render(matchText))
		} else {
			result.WriteString(otherMatchStyle.Render(matchText))
		}
		lastEnd = end
	}
	if lastEnd < len(displayRunes) {
		result.WriteString(string(displayRunes[lastEnd:]))
	}
	return result.String()
}

// isCurrent reports whether the cursor match starts at the given rune
// offset of the given message.
func (n *Navigator) isCurrent(msgIndex, start int) bool {
	cur, ok := n.Current()
	return ok && cur.MessageIndex == msgIndex && cur.Start == start
}
