// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the shell's lipgloss styles. Built once at startup from the
// configured theme name.
type Theme struct {
	Title      lipgloss.Style
	Header     lipgloss.Style
	PeerName   lipgloss.Style
	GameTag    lipgloss.Style
	Preview    lipgloss.Style
	Timestamp  lipgloss.Style
	Badge      lipgloss.Style
	Online     lipgloss.Style
	Offline    lipgloss.Style
	Selected   lipgloss.Style
	MyBubble   lipgloss.Style
	PeerBubble lipgloss.Style
	System     lipgloss.Style
	Streaming  lipgloss.Style
	ErrorBar   lipgloss.Style
	StatusBar  lipgloss.Style
	InputBox   lipgloss.Style
}

// NewTheme builds the style set for the given theme name. Unknown names get
// the dark theme.
func NewTheme(name string) Theme {
	text := lipgloss.Color("252")
	dim := lipgloss.Color("243")
	accent := lipgloss.Color("212")
	good := lipgloss.Color("42")
	bad := lipgloss.Color("203")
	surface := lipgloss.Color("236")

	if name == "light" {
		text = lipgloss.Color("235")
		dim = lipgloss.Color("245")
		accent = lipgloss.Color("168")
		surface = lipgloss.Color("254")
	}

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Header:     lipgloss.NewStyle().Foreground(dim).Bold(true),
		PeerName:   lipgloss.NewStyle().Bold(true).Foreground(text),
		GameTag:    lipgloss.NewStyle().Foreground(accent),
		Preview:    lipgloss.NewStyle().Foreground(dim),
		Timestamp:  lipgloss.NewStyle().Foreground(dim),
		Badge:      lipgloss.NewStyle().Background(bad).Foreground(lipgloss.Color("231")).Padding(0, 1).Bold(true),
		Online:     lipgloss.NewStyle().Foreground(good),
		Offline:    lipgloss.NewStyle().Foreground(dim),
		Selected:   lipgloss.NewStyle().Background(surface),
		MyBubble:   lipgloss.NewStyle().Foreground(text).Background(surface).Padding(0, 1),
		PeerBubble: lipgloss.NewStyle().Foreground(text).Padding(0, 1),
		System:     lipgloss.NewStyle().Foreground(dim).Italic(true),
		Streaming:  lipgloss.NewStyle().Foreground(accent),
		ErrorBar:   lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(bad).Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(dim),
		InputBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1),
	}
}
