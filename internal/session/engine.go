// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/innerbloo/RALLY-sub001/internal/catalog"
	"github.com/innerbloo/RALLY-sub001/internal/completion"
	"github.com/innerbloo/RALLY-sub001/internal/directory"
	"github.com/innerbloo/RALLY-sub001/internal/model"
	"github.com/innerbloo/RALLY-sub001/internal/persona"
	"github.com/innerbloo/RALLY-sub001/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrReplyInFlight is returned by SendMessage while a previous reply is
	// still streaming for the same room.
	ErrReplyInFlight = errors.New("a reply is already streaming for this room")

	// ErrUnknownRoom is returned for a room ID that neither the baseline
	// catalog nor the store knows about.
	ErrUnknownRoom = errors.New("unknown room")
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer streams a persona reply for a conversation history.
// *completion.Client satisfies it; tests substitute their own.
type Completer interface {
	Send(ctx context.Context, history []model.Message, policy persona.Policy, localUserID int, callback completion.ChunkFunc) error
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine drives chat rooms: it owns the conversation logs, streams replies,
// and keeps the store and directory consistent with every mutation.
//
// Safe for concurrent use. One reply may stream per room at a time; sends
// to different rooms proceed independently.
type Engine struct {
	mu sync.Mutex

	st        store.Store
	dir       *directory.Directory
	completer Completer
	policy    persona.Policy
	logger    zerolog.Logger
	notify    func(Event)

	localUserID int
	logs        map[int]*model.ConversationLog
	inflight    map[int]*model.PendingReply
}

// NewEngine wires an engine over its collaborators. notify may be nil when
// no UI is listening.
func NewEngine(st store.Store, dir *directory.Directory, completer Completer, policy persona.Policy, logger zerolog.Logger, notify func(Event)) *Engine {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Engine{
		st:          st,
		dir:         dir,
		completer:   completer,
		policy:      policy,
		logger:      logger.With().Str("component", "session").Logger(),
		notify:      notify,
		localUserID: catalog.LocalUserID,
		logs:        make(map[int]*model.ConversationLog),
		inflight:    make(map[int]*model.PendingReply),
	}
}

// log returns the cached conversation log for a room, loading it on first
// access. Persisted history wins; the baseline seed log is the fallback for
// rooms that have never been written. Callers must hold e.mu.
func (e *Engine) log(roomID int) (*model.ConversationLog, error) {
	if l, ok := e.logs[roomID]; ok {
		return l, nil
	}
	if _, known := e.dir.Room(roomID); !known {
		return nil, ErrUnknownRoom
	}

	var l *model.ConversationLog
	if persisted := store.LoadRoomMessages(e.st, roomID); persisted != nil {
		l = model.RestoreConversationLog(roomID, persisted)
	} else {
		l = catalog.Log(roomID)
	}
	e.logs[roomID] = l
	return l, nil
}

// =============================================================================
// ROOM OPERATIONS
// =============================================================================

// Rooms resolves the merged room directory.
func (e *Engine) Rooms() []model.Room {
	return e.dir.Resolve()
}

// OpenRoom loads a room's conversation, marks the peer's messages read, and
// returns the full history. The read flip is persisted immediately so the
// unread badge stays cleared across restarts.
func (e *Engine) OpenRoom(roomID int) ([]model.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.log(roomID)
	if err != nil {
		return nil, err
	}

	if changed := l.MarkRead(e.localUserID); changed > 0 {
		e.logger.Debug().Int("room", roomID).Int("marked", changed).Msg("marked messages read")
		if err := e.persistLocked(roomID, l); err != nil {
			return nil, err
		}
	}
	return l.Messages(), nil
}

// History returns a room's messages without touching read state.
func (e *Engine) History(roomID int) ([]model.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.log(roomID)
	if err != nil {
		return nil, err
	}
	return l.Messages(), nil
}

// InFlight reports whether a reply is currently streaming for the room.
func (e *Engine) InFlight(roomID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight[roomID] != nil
}

// PendingText returns the text accumulated so far for the room's in-flight
// reply.
func (e *Engine) PendingText(roomID int) string {
	text, _ := e.PendingSnapshot(roomID)
	return text
}

// PendingSnapshot returns the in-flight reply text together with the
// sequence number of the last chunk it covers. A view re-entering a room
// seeds its buffer from the snapshot and ignores ReplyToken events at or
// below the returned sequence; those chunks are already in the text.
func (e *Engine) PendingSnapshot(roomID int) (string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.inflight[roomID]; p != nil {
		return p.Snapshot()
	}
	return "", 0
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage appends the user's message to the room log, persists it, and
// starts streaming the peer's reply in the background. The appended message
// is returned immediately; reply progress arrives through events.
//
// Returns ErrReplyInFlight if the room already has a reply streaming, and
// model.ErrInvalidMessage for blank content. Room records are created by the
// matching flow (the baseline catalog or a persisted upsert), never by
// sending; a room neither set knows returns ErrUnknownRoom.
func (e *Engine) SendMessage(ctx context.Context, roomID int, content string) (model.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inflight[roomID] != nil {
		return model.Message{}, ErrReplyInFlight
	}

	l, err := e.log(roomID)
	if err != nil {
		return model.Message{}, err
	}
	room, ok := e.dir.Room(roomID)
	if !ok {
		return model.Message{}, ErrUnknownRoom
	}

	msg, err := model.NewUserMessage(e.localUserID, content)
	if err != nil {
		return model.Message{}, err
	}
	if err := l.Append(msg); err != nil {
		return model.Message{}, err
	}
	if err := e.persistLocked(roomID, l); err != nil {
		return model.Message{}, err
	}

	pending := model.NewPendingReply(roomID, room.Peer.ID)
	e.inflight[roomID] = pending

	history := l.Transcript()
	go e.streamReply(ctx, roomID, history, pending)

	return msg, nil
}

// streamReply drives one completion stream to its end and promotes or
// discards the pending reply. Runs outside the engine lock; only the final
// bookkeeping re-acquires it.
func (e *Engine) streamReply(ctx context.Context, roomID int, history []model.Message, pending *model.PendingReply) {
	err := e.completer.Send(ctx, history, e.policy, e.localUserID, func(chunk completion.StreamChunk) {
		if chunk.Done || chunk.Content == "" {
			return
		}
		seq := pending.Append(chunk.Content)
		e.notify(ReplyToken{RoomID: roomID, Content: chunk.Content, Seq: seq})
	})

	// Events fire after the lock is released so listeners may call back
	// into the engine.
	event := e.settleReply(roomID, pending, err)
	e.notify(event)
}

// settleReply finishes one stream under the lock and returns the event to
// emit for it.
func (e *Engine) settleReply(roomID int, pending *model.PendingReply, streamErr error) Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, roomID)

	if streamErr != nil {
		// Everything accumulated is discarded; the log never sees a
		// partial reply.
		e.logger.Warn().Int("room", roomID).Err(streamErr).Msg("reply stream failed")
		return ReplyFailed{RoomID: roomID, Err: streamErr}
	}

	msg, err := pending.Finalize()
	if err != nil {
		e.logger.Warn().Int("room", roomID).Msg("reply stream produced no text")
		return ReplyFailed{RoomID: roomID, Err: err}
	}

	l, err := e.log(roomID)
	if err != nil {
		return ReplyFailed{RoomID: roomID, Err: err}
	}
	if err := l.Append(msg); err != nil {
		return ReplyFailed{RoomID: roomID, Err: err}
	}
	if err := e.persistLocked(roomID, l); err != nil {
		e.logger.Error().Int("room", roomID).Err(err).Msg("failed to persist reply")
	}
	return ReplyDone{RoomID: roomID, Message: msg}
}

// MarkRead flips the room's unread messages to read and persists the
// change. Used by the UI when a reply lands while the room is open.
func (e *Engine) MarkRead(roomID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.log(roomID)
	if err != nil {
		return err
	}
	if l.MarkRead(e.localUserID) == 0 {
		return nil
	}
	return e.persistLocked(roomID, l)
}

// Profile returns the local user's display identity: the persisted profile
// when one exists, the baseline default otherwise.
func (e *Engine) Profile() model.Profile {
	if profile, ok := e.st.LoadProfile(); ok {
		return profile
	}
	return catalog.DefaultProfile()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persistLocked saves the room's full message sequence and refreshes the
// room's dynamic fields in the directory. Callers must hold e.mu.
func (e *Engine) persistLocked(roomID int, l *model.ConversationLog) error {
	if err := store.SaveRoomMessages(e.st, roomID, l.Messages()); err != nil {
		return err
	}

	room, ok := e.dir.Room(roomID)
	if !ok {
		return ErrUnknownRoom
	}
	room.Unread = l.UnreadCount(e.localUserID)
	if last, ok := l.LastVisible(); ok {
		room.LastMessage = &model.LastMessage{
			Content:   last.Content,
			Timestamp: last.Timestamp,
			SenderID:  last.SenderID,
		}
	}
	return e.dir.UpsertPersisted(room)
}
