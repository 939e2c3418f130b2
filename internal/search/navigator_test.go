// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

func msgs(contents ...string) []model.Message {
	out := make([]model.Message, len(contents))
	for i, c := range contents {
		m, _ := model.NewUserMessage(1, c)
		out[i] = m
	}
	return out
}

func TestSetQuery_FindsAllOccurrences(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello world hello"))

	if nav.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", nav.Len())
	}
	m := nav.Matches()
	if m[0].Start != 0 || m[1].Start != 12 {
		t.Errorf("starts = %d,%d, want 0,12", m[0].Start, m[1].Start)
	}
	if m[0].Length != 5 {
		t.Errorf("Length = %d, want 5", m[0].Length)
	}
}

func TestSetQuery_CaseInsensitive(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("GG", msgs("gg 잘했어요, GG!"))

	if nav.Len() != 2 {
		t.Errorf("Len() = %d, want 2", nav.Len())
	}
}

func TestSetQuery_RuneOffsets(t *testing.T) {
	// "듀오" starts at rune 3, well past byte 3.
	nav := NewNavigator()
	nav.SetQuery("듀오", msgs("오늘 듀오 하실래요"))

	m, ok := nav.Current()
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Start != 3 || m.Length != 2 {
		t.Errorf("match = %+v, want Start 3 Length 2", m)
	}
}

func TestSetQuery_LiteralNotPattern(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("a.c", msgs("abc a.c axc"))

	if nav.Len() != 1 {
		t.Errorf("Len() = %d, want 1: dot must not act as a wildcard", nav.Len())
	}
}

func TestSetQuery_BlankClearsMatches(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello"))
	nav.SetQuery("", msgs("hello"))

	if nav.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after blank query", nav.Len())
	}
	if _, ok := nav.Current(); ok {
		t.Error("Current() must report no match after blank query")
	}
}

func TestNavigation_CircularRoundTrip(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello world hello"))

	// The first next lands on the first match, so next,next,previous
	// round-trips back to it.
	if m, _ := nav.Next(); m.Start != 0 {
		t.Errorf("first Next() landed at %d, want 0", m.Start)
	}
	if m, _ := nav.Next(); m.Start != 12 {
		t.Errorf("second Next() landed at %d, want 12", m.Start)
	}
	if m, _ := nav.Previous(); m.Start != 0 {
		t.Errorf("Previous() landed at %d, want back to 0", m.Start)
	}

	// A third next wraps; previous from the start wraps the other way.
	nav.Next()
	if m, _ := nav.Next(); m.Start != 0 {
		t.Errorf("Next() past the end landed at %d, want wrap to 0", m.Start)
	}
	if m, _ := nav.Previous(); m.Start != 12 {
		t.Errorf("Previous() from the start landed at %d, want wrap to 12", m.Start)
	}
}

func TestNavigation_CurrentBeforeNavigation(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello world hello"))

	// Before any navigation the first match is current for display.
	if m, ok := nav.Current(); !ok || m.Start != 0 {
		t.Errorf("Current() = %+v %v, want first match", m, ok)
	}
	if nav.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", nav.CurrentIndex())
	}
}

func TestNavigation_EmptyMatchSet(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("없는말", msgs("hello"))

	if _, ok := nav.Next(); ok {
		t.Error("Next() on empty match set must report no match")
	}
	if _, ok := nav.Previous(); ok {
		t.Error("Previous() on empty match set must report no match")
	}
}

func TestSetQuery_SpansMessages(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("랭크", msgs("랭크 가실?", "저는 일반만 해요", "랭크도 좋아요"))

	if nav.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", nav.Len())
	}
	if nav.Matches()[0].MessageIndex != 0 || nav.Matches()[1].MessageIndex != 2 {
		t.Errorf("message indexes = %d,%d, want 0,2",
			nav.Matches()[0].MessageIndex, nav.Matches()[1].MessageIndex)
	}
}

func TestSetQuery_NormalizedHangul(t *testing.T) {
	// Decomposed jamo in the message, composed syllable in the query.
	decomposed := "한" // 한 as jamo sequence
	nav := NewNavigator()
	nav.SetQuery("한", msgs(decomposed+"국 서버"))

	if nav.Len() != 1 {
		t.Errorf("Len() = %d, want 1: NFC must unify composed and decomposed Hangul", nav.Len())
	}
}

func TestHighlight_WrapsMatches(t *testing.T) {
	// Headless test runs detect no color support, which would make the
	// styles render as identity.
	lipgloss.SetColorProfile(termenv.TrueColor)

	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello world hello"))

	out := nav.Highlight("hello world hello", 0)
	if out == "hello world hello" {
		t.Error("Highlight() must style matching spans")
	}
	if !strings.Contains(out, " world ") {
		t.Error("non-matching text must pass through unstyled")
	}
}

func TestHighlight_UntouchedWithoutMatches(t *testing.T) {
	nav := NewNavigator()
	nav.SetQuery("hello", msgs("hello", "no overlap here"))

	if out := nav.Highlight("no overlap here", 1); out != "no overlap here" {
		t.Errorf("Highlight() = %q, want unchanged text", out)
	}
}
