// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/config"
	"github.com/innerbloo/RALLY-sub001/internal/session"
)

// =============================================================================
// APP MODEL
// =============================================================================

type screen int

const (
	screenRooms screen = iota
	screenChat
)

// App is the root Bubble Tea model: it routes between the room list and the
// chat view and refreshes the directory when the engine or the store watcher
// reports changes.
type App struct {
	eng    *session.Engine
	logger zerolog.Logger
	theme  Theme

	screen screen
	rooms  roomList
	chat   chatView

	toast string
}

// NewApp builds the shell over a wired engine.
func NewApp(eng *session.Engine, cfg *config.Config, logger zerolog.Logger) *App {
	theme := NewTheme(cfg.UI.Theme)
	exportDir, _ := cfg.DataDir()

	app := &App{
		eng:    eng,
		logger: logger.With().Str("component", "ui").Logger(),
		theme:  theme,
		rooms:  newRoomList(theme),
		chat:   newChatView(theme, eng, cfg.UI.ShowTimestamps, cfg.UI.RenderMarkdown, exportDir),
	}
	app.rooms.setRooms(eng.Rooms())
	return app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.screen == screenRooms && !a.rooms.focusing {
				return a, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		roomsCmd, _ := a.rooms.update(msg)
		chatCmd, _ := a.chat.update(msg)
		return a, tea.Batch(roomsCmd, chatCmd)

	case StoreChangedMsg:
		a.rooms.setRooms(a.eng.Rooms())
		return a, nil

	case StreamDoneMsg, StreamFailedMsg, StreamTokenMsg:
		// The chat view consumes stream traffic for its own room; anything
		// else only moves the directory ordering.
		cmd, _ := a.chat.update(msg)
		a.rooms.setRooms(a.eng.Rooms())
		return a, cmd

	case ExportDoneMsg:
		if msg.Err != nil {
			a.toast = "내보내기 실패"
			a.logger.Warn().Err(msg.Err).Msg("export failed")
		} else {
			a.toast = "저장됨: " + msg.Path
		}
		return a, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			a.toast = "복사 실패"
		} else {
			a.toast = "복사됨"
		}
		return a, nil
	}

	switch a.screen {
	case screenRooms:
		cmd, open := a.rooms.update(msg)
		if open != nil {
			if err := a.chat.open(*open); err != nil {
				a.logger.Error().Int("room", open.ID).Err(err).Msg("failed to open room")
				a.toast = "채팅방을 열 수 없습니다"
				return a, cmd
			}
			a.screen = screenChat
			a.toast = ""
			// Opening marks messages read; the list must drop the badge.
			a.rooms.setRooms(a.eng.Rooms())
			return a, a.chat.spin.Tick
		}
		return a, cmd

	default:
		cmd, back := a.chat.update(msg)
		if back {
			a.screen = screenRooms
			a.toast = ""
			a.rooms.setRooms(a.eng.Rooms())
		}
		return a, cmd
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var body string
	if a.screen == screenRooms {
		body = a.rooms.view()
	} else {
		body = a.chat.view()
	}
	if a.toast != "" {
		body += "\n" + a.theme.StatusBar.Render(a.toast)
	}
	return body
}
