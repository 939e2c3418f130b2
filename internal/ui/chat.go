// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/innerbloo/RALLY-sub001/internal/export"
	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/search"
	"github.com/innerbloo/RALLY-sub001/internal/session"
)

// sentMsg confirms the user's message was appended to the log.
type sentMsg struct {
	Message model.Message
}

// =============================================================================
// CHAT VIEW
// =============================================================================

// chatView is the conversation screen for one open room.
type chatView struct {
	theme Theme
	eng   *session.Engine

	room     model.Room
	profile  model.Profile
	messages []model.Message

	// In-flight reply accumulation; discarded wholesale on failure.
	// streamSeq is the last chunk sequence applied to streambuf, so tokens
	// already covered by a re-attach snapshot are not rendered twice.
	streambuf strings.Builder
	streamSeq int
	streaming bool

	errText string

	vp          viewport.Model
	input       textinput.Model
	spin        spinner.Model
	searchInput textinput.Model
	searching   bool
	nav         *search.Navigator

	renderer       *glamour.TermRenderer
	showTimestamps bool
	renderMarkdown bool
	exportDir      string

	width  int
	height int
}

func newChatView(theme Theme, eng *session.Engine, showTimestamps, renderMarkdown bool, exportDir string) chatView {
	input := textinput.New()
	input.Placeholder = "메시지 입력"
	input.CharLimit = 500

	si := textinput.New()
	si.Placeholder = "대화 내용 검색"
	si.CharLimit = 60

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	var renderer *glamour.TermRenderer
	if renderMarkdown {
		// Rendering failure just disables markdown; plain text always works.
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(72)); err == nil {
			renderer = r
		}
	}

	return chatView{
		theme:          theme,
		eng:            eng,
		input:          input,
		searchInput:    si,
		spin:           sp,
		nav:            search.NewNavigator(),
		renderer:       renderer,
		showTimestamps: showTimestamps,
		renderMarkdown: renderMarkdown,
		exportDir:      exportDir,
		vp:             viewport.New(80, 20),
	}
}

// open loads a room's history and resets the transient view state. An
// in-flight stream for this room is re-attached, not restarted.
func (c *chatView) open(room model.Room) error {
	messages, err := c.eng.OpenRoom(room.ID)
	if err != nil {
		return err
	}
	c.room = room
	c.profile = c.eng.Profile()
	c.messages = messages
	pending, seq := c.eng.PendingSnapshot(room.ID)
	c.streambuf.Reset()
	c.streambuf.WriteString(pending)
	c.streamSeq = seq
	c.streaming = c.eng.InFlight(room.ID)
	c.errText = ""
	c.nav.Clear()
	c.searching = false
	c.searchInput.SetValue("")
	c.refresh()
	c.vp.GotoBottom()
	return nil
}

// =============================================================================
// UPDATE
// =============================================================================

func (c *chatView) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.vp.Width = msg.Width
		c.vp.Height = msg.Height - 6
		if c.vp.Height < 3 {
			c.vp.Height = 3
		}
		c.input.Width = msg.Width - 6
		c.refresh()
		return nil, false

	case sentMsg:
		c.messages = append(c.messages, msg.Message)
		c.streaming = true
		c.streamSeq = 0
		c.refresh()
		c.vp.GotoBottom()
		return c.spin.Tick, false

	case StreamTokenMsg:
		if msg.RoomID != c.room.ID {
			return nil, false
		}
		if msg.Seq != 0 && msg.Seq <= c.streamSeq {
			// Already present via the re-attach snapshot.
			return nil, false
		}
		c.streambuf.WriteString(msg.Content)
		c.streamSeq = msg.Seq
		c.refresh()
		c.vp.GotoBottom()
		return nil, false

	case StreamDoneMsg:
		if msg.RoomID != c.room.ID {
			return nil, false
		}
		c.streaming = false
		c.streambuf.Reset()
		c.streamSeq = 0
		c.messages = append(c.messages, msg.Message)
		// The reply landed while the room is open; clear its badge.
		if err := c.eng.MarkRead(c.room.ID); err == nil {
			for i := range c.messages {
				c.messages[i].Read = true
			}
		}
		c.refresh()
		c.vp.GotoBottom()
		return nil, false

	case StreamFailedMsg:
		if msg.RoomID != c.room.ID {
			return nil, false
		}
		c.streaming = false
		c.streambuf.Reset()
		c.streamSeq = 0
		c.errText = "답장을 받지 못했어요. 다시 시도해 주세요."
		c.refresh()
		return nil, false

	case spinner.TickMsg:
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		if c.streaming {
			c.refresh()
			return cmd, false
		}
		return nil, false

	case tea.KeyMsg:
		return c.updateKey(msg)
	}
	return nil, false
}

// updateKey handles keyboard input. The second return value asks the app to
// go back to the room list.
func (c *chatView) updateKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if c.searching {
		switch msg.String() {
		case "esc":
			c.searching = false
			c.searchInput.Blur()
			c.nav.Clear()
			c.refresh()
			return nil, false
		case "enter":
			c.nav.SetQuery(c.searchInput.Value(), c.messages)
			c.searchInput.Blur()
			c.refresh()
			c.scrollToMatch()
			return nil, false
		}

		// While the query input is focused, every other key types into it.
		if c.searchInput.Focused() {
			var cmd tea.Cmd
			c.searchInput, cmd = c.searchInput.Update(msg)
			return cmd, false
		}

		switch msg.String() {
		case "n":
			c.nav.Next()
		case "N":
			c.nav.Previous()
		}
		c.refresh()
		c.scrollToMatch()
		return nil, false
	}

	switch msg.String() {
	case "esc":
		// The in-flight reply keeps streaming; it finalizes in background.
		return nil, true
	case "enter":
		content := strings.TrimSpace(c.input.Value())
		if content == "" {
			return nil, false
		}
		c.input.SetValue("")
		c.errText = ""
		return c.send(content), false
	case "ctrl+f":
		c.searching = true
		c.searchInput.SetValue("")
		return c.searchInput.Focus(), false
	case "ctrl+e":
		return c.exportTranscript(), false
	case "ctrl+y":
		return c.copyLastReply(), false
	case "up":
		c.vp.LineUp(1)
		return nil, false
	case "down":
		c.vp.LineDown(1)
		return nil, false
	case "pgup":
		c.vp.HalfViewUp()
		return nil, false
	case "pgdown":
		c.vp.HalfViewDown()
		return nil, false
	default:
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return cmd, false
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// send submits the message through the engine. A rejected send (blank or
// reply in flight) surfaces like a stream failure, scoped to this room.
func (c *chatView) send(content string) tea.Cmd {
	roomID := c.room.ID
	eng := c.eng
	return func() tea.Msg {
		msg, err := eng.SendMessage(context.Background(), roomID, content)
		if err != nil {
			return StreamFailedMsg{RoomID: roomID, Err: err}
		}
		return sentMsg{Message: msg}
	}
}

func (c *chatView) exportTranscript() tea.Cmd {
	room, profile, messages := c.room, c.profile, c.messages
	dir := c.exportDir
	return func() tea.Msg {
		path, err := export.ToFile(room, profile, messages, &export.Options{
			IncludeTimestamps: true,
			IncludeMetadata:   true,
			OutputDir:         dir,
		})
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func (c *chatView) copyLastReply() tea.Cmd {
	var content string
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Kind == model.KindAssistant {
			content = c.messages[i].Content
			break
		}
	}
	if content == "" {
		return nil
	}
	return func() tea.Msg {
		return CopyDoneMsg{Err: clipboard.WriteAll(content)}
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// refresh re-renders the transcript into the viewport.
func (c *chatView) refresh() {
	var sb strings.Builder
	for i, msg := range c.messages {
		sb.WriteString(c.renderMessage(msg, i))
		sb.WriteString("\n")
	}
	if c.streaming {
		sb.WriteString(c.renderStreaming())
		sb.WriteString("\n")
	}
	c.vp.SetContent(sb.String())
}

func (c *chatView) renderMessage(msg model.Message, idx int) string {
	if msg.IsSystem() {
		return c.theme.System.Render("· " + msg.Content + " ·")
	}

	content := msg.Content
	if msg.Kind == model.KindAssistant && c.renderer != nil {
		if rendered, err := c.renderer.Render(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}
	content = c.nav.Highlight(content, idx)

	stamp := ""
	if c.showTimestamps {
		stamp = " " + c.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	}

	if msg.IsMine(c.profile.ID) {
		bubble := c.theme.MyBubble.Render(content)
		return lipgloss.PlaceHorizontal(c.vp.Width, lipgloss.Right, bubble+stamp)
	}
	name := c.theme.PeerName.Render(c.room.Peer.Name)
	return name + stamp + "\n" + c.theme.PeerBubble.Render(content)
}

// renderStreaming draws the partial reply with a spinner. Streamed text is
// never run through the markdown renderer until it finalizes; reflowing a
// half-finished document flickers.
func (c *chatView) renderStreaming() string {
	name := c.theme.PeerName.Render(c.room.Peer.Name)
	partial := c.streambuf.String()
	if partial == "" {
		return name + "\n" + c.theme.Streaming.Render(c.spin.View()+" 입력 중")
	}
	return name + "\n" + c.theme.PeerBubble.Render(partial) + " " + c.theme.Streaming.Render(c.spin.View())
}

// scrollToMatch brings the current search match into view. Line estimation
// is approximate; matches land within a message, so centering the message
// is enough.
func (c *chatView) scrollToMatch() {
	cur, ok := c.nav.Current()
	if !ok {
		return
	}
	if len(c.messages) == 0 {
		return
	}
	frac := float64(cur.MessageIndex) / float64(len(c.messages))
	c.vp.SetYOffset(int(frac * float64(c.vp.TotalLineCount())))
}

func (c *chatView) view() string {
	var sb strings.Builder

	presence := "오프라인"
	style := c.theme.Offline
	if c.room.Peer.Online {
		presence = "온라인"
		style = c.theme.Online
	}
	sb.WriteString(c.theme.Title.Render(c.room.Peer.Name))
	sb.WriteString("  ")
	sb.WriteString(c.theme.GameTag.Render(c.room.Game))
	sb.WriteString("  ")
	sb.WriteString(style.Render(presence))
	sb.WriteString("\n\n")

	sb.WriteString(c.vp.View())
	sb.WriteString("\n")

	if c.errText != "" {
		sb.WriteString(c.theme.ErrorBar.Render(c.errText))
		sb.WriteString("\n")
	}

	if c.searching {
		count := ""
		if c.nav.Len() > 0 {
			count = fmt.Sprintf(" %d/%d", c.nav.CurrentIndex()+1, c.nav.Len())
		}
		sb.WriteString(c.searchInput.View())
		sb.WriteString(c.theme.StatusBar.Render(count + "  n 다음 · N 이전 · esc 닫기"))
		sb.WriteString("\n")
	} else {
		sb.WriteString(c.theme.InputBox.Render(c.input.View()))
		sb.WriteString("\n")
		sb.WriteString(c.theme.StatusBar.Render("enter 전송 · ctrl+f 검색 · ctrl+e 내보내기 · ctrl+y 복사 · esc 목록"))
	}
	return sb.String()
}
