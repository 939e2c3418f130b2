// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/catalog"
	"github.com/innerbloo/RALLY-sub001/internal/completion"
	"github.com/innerbloo/RALLY-sub001/internal/directory"
	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/persona"
	"github.com/innerbloo/RALLY-sub001/internal/store"
)

// stubCompleter plays back a canned stream.
type stubCompleter struct {
	chunks []string
	err    error
	gate   chan struct{} // when set, Send blocks until the gate closes
}

func (s *stubCompleter) Send(_ context.Context, _ []model.Message, _ persona.Policy, _ int, cb completion.ChunkFunc) error {
	if s.gate != nil {
		<-s.gate
	}
	for _, c := range s.chunks {
		cb(completion.StreamChunk{Content: c})
	}
	if s.err != nil {
		return s.err
	}
	cb(completion.StreamChunk{Done: true})
	return nil
}

func newTestEngine(t *testing.T, completer Completer) (*Engine, chan Event, store.Store) {
	t.Helper()
	st, err := store.Open(store.BackendFile, t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	// Buffer every event a test can produce (TestPendingText_SafeDuringStream
	// streams 5000 chunks without draining) so notify never blocks the stream.
	events := make(chan Event, 8192)
	eng := NewEngine(st, directory.New(st), completer, persona.Default(), zerolog.Nop(), func(ev Event) {
		events <- ev
	})
	return eng, events, st
}

func waitFor[T Event](t *testing.T, events chan Event) T {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestOpenRoom_MarksReadAndPersists(t *testing.T) {
	eng, _, st := newTestEngine(t, &stubCompleter{})

	msgs, err := eng.OpenRoom(1)
	if err != nil {
		t.Fatalf("OpenRoom() error = %v", err)
	}
	if len(msgs) == 0 {
		t.Fatal("seed conversation must not be empty")
	}
	for _, m := range msgs {
		if !m.Read {
			t.Errorf("message %q still unread after OpenRoom", m.ID)
		}
	}

	// The read flip must be durable, not just cached.
	persisted := store.LoadRoomMessages(st, 1)
	if persisted == nil {
		t.Fatal("OpenRoom must persist the marked log")
	}
	for _, m := range persisted {
		if !m.Read {
			t.Error("persisted log still carries unread messages")
		}
	}

	// And the directory badge must clear.
	room, ok := directory.New(st).Room(1)
	if !ok {
		t.Fatal("room 1 missing from directory")
	}
	if room.Unread != 0 {
		t.Errorf("Unread = %d, want 0 after opening", room.Unread)
	}
}

func TestSendMessage_AppendsAndStreamsReply(t *testing.T) {
	eng, events, st := newTestEngine(t, &stubCompleter{chunks: []string{"네 ", "좋아요", "!"}})

	if _, err := eng.OpenRoom(1); err != nil {
		t.Fatalf("OpenRoom() error = %v", err)
	}
	sent, err := eng.SendMessage(context.Background(), 1, "오늘 한 판 어때요?")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if sent.Kind != model.KindUser || !sent.Read {
		t.Errorf("sent message = %+v, want a born-read user message", sent)
	}

	done := waitFor[ReplyDone](t, events)
	if done.Message.Content != "네 좋아요!" {
		t.Errorf("reply content = %q, want %q", done.Message.Content, "네 좋아요!")
	}
	if done.Message.Kind != model.KindAssistant {
		t.Errorf("reply kind = %q, want assistant", done.Message.Kind)
	}

	// Log now ends user message, assistant reply.
	history, err := eng.History(1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	last := history[len(history)-1]
	if last.Content != "네 좋아요!" || last.Read {
		t.Errorf("last = %+v, want the unread assistant reply", last)
	}

	// Directory surfaces the reply as last message with one unread.
	room, _ := directory.New(st).Room(1)
	if room.LastMessage == nil || room.LastMessage.Content != "네 좋아요!" {
		t.Errorf("LastMessage = %+v, want the streamed reply", room.LastMessage)
	}
	if room.Unread != 1 {
		t.Errorf("Unread = %d, want 1 until marked read", room.Unread)
	}

	if err := eng.MarkRead(1); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if room, _ := directory.New(st).Room(1); room.Unread != 0 {
		t.Errorf("Unread = %d after MarkRead, want 0", room.Unread)
	}
}

func TestSendMessage_TokensArriveInOrder(t *testing.T) {
	chunks := []string{"하", "나", "씩", " 옵니다"}
	eng, events, _ := newTestEngine(t, &stubCompleter{chunks: chunks})

	if _, err := eng.SendMessage(context.Background(), 2, "ㅎㅇ"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	var got strings.Builder
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case ReplyToken:
				got.WriteString(ev.Content)
			case ReplyDone:
				if got.String() != strings.Join(chunks, "") {
					t.Errorf("tokens = %q, want %q in order", got.String(), strings.Join(chunks, ""))
				}
				return
			case ReplyFailed:
				t.Fatalf("unexpected failure: %v", ev.Err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reply")
		}
	}
}

func TestSendMessage_RejectsDoubleSubmit(t *testing.T) {
	gate := make(chan struct{})
	eng, events, _ := newTestEngine(t, &stubCompleter{chunks: []string{"..."}, gate: gate})

	if _, err := eng.SendMessage(context.Background(), 1, "첫 번째"); err != nil {
		t.Fatalf("first SendMessage() error = %v", err)
	}
	if !eng.InFlight(1) {
		t.Error("InFlight(1) = false while streaming")
	}

	_, err := eng.SendMessage(context.Background(), 1, "두 번째")
	if !errors.Is(err, ErrReplyInFlight) {
		t.Errorf("second send error = %v, want ErrReplyInFlight", err)
	}

	// A different room is unaffected by room 1's stream.
	if _, err := eng.SendMessage(context.Background(), 2, "다른 방"); err != nil {
		t.Errorf("send to another room failed: %v", err)
	}

	close(gate)
	for {
		done := waitFor[ReplyDone](t, events)
		if done.RoomID == 1 {
			break
		}
	}
	if eng.InFlight(1) {
		t.Error("InFlight(1) = true after the reply settled")
	}
}

func TestSendMessage_FailureDiscardsPending(t *testing.T) {
	eng, events, _ := newTestEngine(t, &stubCompleter{
		chunks: []string{"여기까지 왔다가"},
		err:    errors.New("stream broke"),
	})

	if _, err := eng.OpenRoom(1); err != nil {
		t.Fatalf("OpenRoom() error = %v", err)
	}
	before, _ := eng.History(1)

	if _, err := eng.SendMessage(context.Background(), 1, "안녕하세요"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	failed := waitFor[ReplyFailed](t, events)
	if failed.Err == nil {
		t.Fatal("ReplyFailed must carry the stream error")
	}

	// The user's message stays; the partial reply does not.
	after, _ := eng.History(1)
	if len(after) != len(before)+1 {
		t.Errorf("log grew by %d entries, want 1 (user message only)", len(after)-len(before))
	}
	if last := after[len(after)-1]; last.Kind != model.KindUser {
		t.Errorf("last entry kind = %q, want the user message", last.Kind)
	}
	if eng.PendingText(1) != "" {
		t.Error("pending text must be discarded after failure")
	}
	if eng.InFlight(1) {
		t.Error("room must accept new sends after a failed stream")
	}
}

func TestSendMessage_BlankRejected(t *testing.T) {
	eng, _, _ := newTestEngine(t, &stubCompleter{})

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := eng.SendMessage(context.Background(), 1, content); !errors.Is(err, model.ErrInvalidMessage) {
			t.Errorf("SendMessage(%q) error = %v, want ErrInvalidMessage", content, err)
		}
	}
}

func TestSendMessage_UnknownRoom(t *testing.T) {
	eng, _, _ := newTestEngine(t, &stubCompleter{})

	if _, err := eng.SendMessage(context.Background(), 999, "아무도 없죠"); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("error = %v, want ErrUnknownRoom", err)
	}
	if _, err := eng.OpenRoom(999); !errors.Is(err, ErrUnknownRoom) {
		t.Errorf("OpenRoom error = %v, want ErrUnknownRoom", err)
	}
}

func TestEngine_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(store.BackendFile, dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}

	events := make(chan Event, 64)
	eng := NewEngine(st, directory.New(st), &stubCompleter{chunks: []string{"기억해요"}}, persona.Default(), zerolog.Nop(), func(ev Event) { events <- ev })

	if _, err := eng.SendMessage(context.Background(), 3, "기억하나요?"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	waitFor[ReplyDone](t, events)
	st.Close()

	// A fresh engine over the same directory sees the full exchange.
	st2, err := store.Open(store.BackendFile, dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer st2.Close()

	eng2 := NewEngine(st2, directory.New(st2), &stubCompleter{}, persona.Default(), zerolog.Nop(), nil)
	history, err := eng2.History(3)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	var sawUser, sawReply bool
	for _, m := range history {
		if m.Content == "기억하나요?" {
			sawUser = true
		}
		if m.Content == "기억해요" {
			sawReply = true
		}
	}
	if !sawUser || !sawReply {
		t.Errorf("restart lost the exchange: user=%v reply=%v", sawUser, sawReply)
	}
}

func TestProfile_PersistedWinsOverDefault(t *testing.T) {
	eng, _, st := newTestEngine(t, &stubCompleter{})

	if got := eng.Profile(); got != catalog.DefaultProfile() {
		t.Errorf("Profile() = %+v, want the baseline default", got)
	}

	saved := model.Profile{ID: catalog.LocalUserID, Name: "정글러김", Bio: "주말 위주"}
	if err := st.SaveProfile(saved); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	if got := eng.Profile(); got.Name != "정글러김" {
		t.Errorf("Profile().Name = %q, want persisted name", got.Name)
	}
}

// Seed sanity: the baseline catalog backs rooms the store has never seen.
func TestHistory_FallsBackToSeed(t *testing.T) {
	eng, _, _ := newTestEngine(t, &stubCompleter{})

	history, err := eng.History(catalog.Rooms()[0].ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) == 0 {
		t.Error("expected the seed conversation for an unwritten room")
	}
}

// The stream goroutine appends while the UI polls the in-progress text; the
// race detector fails this test if the pending reply is unsynchronized.
func TestPendingText_SafeDuringStream(t *testing.T) {
	chunks := make([]string, 5000)
	for i := range chunks {
		chunks[i] = "가"
	}
	eng, events, _ := newTestEngine(t, &stubCompleter{chunks: chunks})

	if _, err := eng.SendMessage(context.Background(), 1, "쭉 보내주세요"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	for eng.InFlight(1) {
		_ = eng.PendingText(1)
	}

	done := waitFor[ReplyDone](t, events)
	if got := len([]rune(done.Message.Content)); got != len(chunks) {
		t.Errorf("reply length = %d runes, want %d", got, len(chunks))
	}
}

func TestSendMessage_TokenSequenceNumbers(t *testing.T) {
	chunks := []string{"하", "나", "씩"}
	eng, events, _ := newTestEngine(t, &stubCompleter{chunks: chunks})

	if _, err := eng.SendMessage(context.Background(), 2, "ㅎㅇ"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	want := 1
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case ReplyToken:
				if ev.Seq != want {
					t.Errorf("token %q Seq = %d, want %d", ev.Content, ev.Seq, want)
				}
				want++
			case ReplyDone:
				if want != len(chunks)+1 {
					t.Errorf("saw %d tokens, want %d", want-1, len(chunks))
				}
				return
			case ReplyFailed:
				t.Fatalf("unexpected failure: %v", ev.Err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for reply")
		}
	}
}

func TestPendingSnapshot_EmptyWhenIdle(t *testing.T) {
	eng, _, _ := newTestEngine(t, &stubCompleter{})

	text, seq := eng.PendingSnapshot(1)
	if text != "" || seq != 0 {
		t.Errorf("PendingSnapshot(1) = %q, %d, want empty", text, seq)
	}
}
