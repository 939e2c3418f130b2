// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/innerbloo/RALLY-sub001/internal/directory"
	"github.com/innerbloo/RALLY-sub001/internal/model"
)

// =============================================================================
// ROOM LIST
// =============================================================================

// roomList is the directory screen: the merged, sorted room directory with
// live filters.
type roomList struct {
	theme Theme

	rooms    []model.Room
	cursor   int
	width    int
	height   int
	unread   bool // unread-only filter active
	filter   textinput.Model
	focusing bool // filter input focused
}

func newRoomList(theme Theme) roomList {
	ti := textinput.New()
	ti.Placeholder = "닉네임 검색"
	ti.CharLimit = 40
	ti.Width = 24
	return roomList{theme: theme, filter: ti}
}

// setRooms installs a freshly resolved directory, applying the active
// filters and clamping the cursor.
func (r *roomList) setRooms(rooms []model.Room) {
	var filters []directory.Filter
	if q := strings.TrimSpace(r.filter.Value()); q != "" {
		filters = append(filters, directory.ByPeerName(q))
	}
	if r.unread {
		filters = append(filters, directory.UnreadOnly())
	}
	r.rooms = directory.Apply(rooms, filters...)
	if r.cursor >= len(r.rooms) {
		r.cursor = len(r.rooms) - 1
	}
	if r.cursor < 0 {
		r.cursor = 0
	}
}

// selected returns the room under the cursor.
func (r *roomList) selected() (model.Room, bool) {
	if r.cursor < 0 || r.cursor >= len(r.rooms) {
		return model.Room{}, false
	}
	return r.rooms[r.cursor], true
}

func (r *roomList) update(msg tea.Msg) (tea.Cmd, *model.Room) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		return nil, nil

	case tea.KeyMsg:
		if r.focusing {
			switch msg.String() {
			case "enter", "esc":
				r.focusing = false
				r.filter.Blur()
			default:
				var cmd tea.Cmd
				r.filter, cmd = r.filter.Update(msg)
				return cmd, nil
			}
			return nil, nil
		}

		switch msg.String() {
		case "up", "k":
			if r.cursor > 0 {
				r.cursor--
			}
		case "down", "j":
			if r.cursor < len(r.rooms)-1 {
				r.cursor++
			}
		case "/":
			r.focusing = true
			return r.filter.Focus(), nil
		case "u":
			r.unread = !r.unread
		case "enter":
			if room, ok := r.selected(); ok {
				return nil, &room
			}
		}
	}
	return nil, nil
}

// =============================================================================
// RENDERING
// =============================================================================

func (r *roomList) view() string {
	var sb strings.Builder

	sb.WriteString(r.theme.Title.Render("RALLY"))
	sb.WriteString("  ")
	sb.WriteString(r.theme.StatusBar.Render("듀오 채팅"))
	sb.WriteString("\n\n")

	if r.focusing || r.filter.Value() != "" {
		sb.WriteString(r.filter.View())
		sb.WriteString("\n\n")
	}
	if r.unread {
		sb.WriteString(r.theme.Header.Render("안 읽은 방만 보는 중"))
		sb.WriteString("\n\n")
	}

	if len(r.rooms) == 0 {
		sb.WriteString(r.theme.Preview.Render("표시할 채팅방이 없습니다"))
		sb.WriteString("\n")
	}

	for i, room := range r.rooms {
		line := r.renderRoom(room)
		if i == r.cursor {
			line = r.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(r.theme.StatusBar.Render("enter 열기 · / 검색 · u 안읽음 · q 종료"))
	return sb.String()
}

// renderRoom lays out one directory row. Peer names are CJK-wide; runewidth
// keeps the columns aligned where len() would not.
func (r *roomList) renderRoom(room model.Room) string {
	presence := r.theme.Offline.Render("○")
	if room.Peer.Online {
		presence = r.theme.Online.Render("●")
	}

	name := runewidth.FillRight(runewidth.Truncate(room.Peer.Name, 16, "…"), 16)
	game := runewidth.FillRight(runewidth.Truncate(room.Game, 14, "…"), 14)

	preview := ""
	stamp := ""
	if room.LastMessage != nil {
		preview = runewidth.Truncate(strings.ReplaceAll(room.LastMessage.Content, "\n", " "), 28, "…")
		stamp = relativeTime(room.LastMessage.Timestamp)
	}

	badge := ""
	if room.Unread > 0 {
		badge = " " + r.theme.Badge.Render(fmt.Sprintf("%d", room.Unread))
	}

	return fmt.Sprintf("%s %s %s %s %s%s",
		presence,
		r.theme.PeerName.Render(name),
		r.theme.GameTag.Render(game),
		r.theme.Preview.Render(runewidth.FillRight(preview, 28)),
		r.theme.Timestamp.Render(stamp),
		badge,
	)
}

// relativeTime renders a compact "time ago" label.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "방금"
	case d < time.Hour:
		return fmt.Sprintf("%d분 전", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d시간 전", int(d.Hours()))
	default:
		return fmt.Sprintf("%d일 전", int(d.Hours()/24))
	}
}
