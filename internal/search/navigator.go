// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

// =============================================================================
// MATCH
// =============================================================================

// Match is one occurrence of the query in the conversation.
// Start and Length are RUNE offsets into the NFC-normalized message content.
type Match struct {
	MessageIndex int
	Start        int
	Length       int
}

// End returns the rune offset one past the match.
func (m Match) End() int {
	return m.Start + m.Length
}

// =============================================================================
// NAVIGATOR
// =============================================================================

// Navigator holds the active query, its match set, and the cursor over it.
// Not safe for concurrent use; each conversation view owns one.
//
// The cursor starts BEFORE the match set: the first Next lands on the first
// match, so next,next,previous round-trips back to it. Until then Current
// reports the first match for display.
type Navigator struct {
	query      string
	queryRunes []rune
	matches    []Match
	current    int
}

// NewNavigator returns an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{current: -1}
}

// SetQuery replaces the active query and rescans the given messages.
// The query is a literal substring: no pattern syntax, every character
// matches itself. A blank query clears the match set. The cursor resets
// to just before the first match.
func (n *Navigator) SetQuery(query string, messages []model.Message) {
	n.query = query
	n.queryRunes = []rune(normalize(query))
	n.matches = nil
	n.current = -1

	if len(n.queryRunes) == 0 {
		return
	}

	for msgIdx, msg := range messages {
		if msg.Content == "" {
			continue
		}
		textRunes := []rune(normalize(msg.Content))
		for _, start := range findAll(textRunes, n.queryRunes) {
			n.matches = append(n.matches, Match{
				MessageIndex: msgIdx,
				Start:        start,
				Length:       len(n.queryRunes),
			})
		}
	}
}

// Query returns the active query as entered.
func (n *Navigator) Query() string {
	return n.query
}

// Clear drops the query, the matches, and the cursor.
func (n *Navigator) Clear() {
	n.query = ""
	n.queryRunes = nil
	n.matches = nil
	n.current = -1
}

// Matches returns the full match set in document order.
func (n *Navigator) Matches() []Match {
	return n.matches
}

// Len returns the number of matches for the active query.
func (n *Navigator) Len() int {
	return len(n.matches)
}

// Current returns the match under the cursor, or false if there are none.
// Before any navigation the first match counts as current.
func (n *Navigator) Current() (Match, bool) {
	if len(n.matches) == 0 {
		return Match{}, false
	}
	if n.current < 0 {
		return n.matches[0], true
	}
	return n.matches[n.current], true
}

// CurrentIndex returns the cursor position, for "3/7" style indicators.
func (n *Navigator) CurrentIndex() int {
	if n.current < 0 {
		return 0
	}
	return n.current
}

// Next advances the cursor, wrapping from the last match to the first. The
// first call after SetQuery lands on the first match.
func (n *Navigator) Next() (Match, bool) {
	if len(n.matches) == 0 {
		return Match{}, false
	}
	n.current = (n.current + 1) % len(n.matches)
	return n.matches[n.current], true
}

// Previous moves the cursor back, wrapping from the first match to the last.
func (n *Navigator) Previous() (Match, bool) {
	if len(n.matches) == 0 {
		return Match{}, false
	}
	n.current--
	if n.current < 0 {
		n.current = len(n.matches) - 1
	}
	return n.matches[n.current], true
}

// =============================================================================
// MATCHING
// =============================================================================

// normalize folds case and composes the text to NFC so that visually
// identical Hangul sequences compare equal.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// findAll returns the rune offsets of every non-overlapping occurrence of
// query in text. Both slices must already be normalized.
func findAll(text, query []rune) []int {
	var out []int
	for i := 0; i <= len(text)-len(query); i++ {
		matched := true
		for j := range query {
			if text[i+j] != query[j] {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, i)
			i += len(query) - 1 // skip past this match
		}
	}
	return out
}
