// Copyright (c) 2025 innerbloo
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"sync"
	"time"

	"github.com/innerbloo/RALLY-sub001/internal/model"
)

// seedBase anchors all seed timestamps. Captured once so repeated reads of
// the catalog within one process are identical.
var (
	seedOnce sync.Once
	seedBase time.Time
)

func base() time.Time {
	seedOnce.Do(func() {
		seedBase = time.Now()
	})
	return seedBase
}

// LocalUserID is the seed identity used when no persisted profile exists.
const LocalUserID = 1

// DefaultProfile returns the seed local-user identity.
func DefaultProfile() model.Profile {
	return model.Profile{
		ID:     LocalUserID,
		Name:   "소환사A",
		Avatar: "/profile1.png",
		Bio:    "같이 즐겜하실 분 찾아요",
	}
}

// Rooms returns the baseline room set in catalog order. The caller receives
// a fresh slice on every call.
func Rooms() []model.Room {
	b := base()
	return []model.Room{
		{
			ID:   1,
			Peer: model.Peer{ID: 101, Name: "민준", Avatar: "/duo1.png", Online: true},
			Game: "리그 오브 레전드",
			LastMessage: &model.LastMessage{
				Content:   "이번 주말에 같이 랭크 돌리실래요?",
				Timestamp: b.Add(-5 * time.Minute),
				SenderID:  101,
			},
			Unread: 2,
		},
		{
			ID:   2,
			Peer: model.Peer{ID: 102, Name: "소라", Avatar: "/duo2.png", Online: false},
			Game: "발로란트",
			LastMessage: &model.LastMessage{
				Content:   "오늘 스파이크 러시 재밌었어요!",
				Timestamp: b.Add(-2 * time.Hour),
				SenderID:  LocalUserID,
			},
			Unread: 0,
		},
		{
			ID:   3,
			Peer: model.Peer{ID: 103, Name: "GG혜진", Avatar: "/duo3.png", Online: true},
			Game: "오버워치 2",
			LastMessage: &model.LastMessage{
				Content:   "힐러 자리 비었는데 오실래요?",
				Timestamp: b.Add(-30 * time.Minute),
				SenderID:  103,
			},
			Unread: 1,
		},
		{
			ID:   4,
			Peer: model.Peer{ID: 104, Name: "다온", Avatar: "/duo4.png", Online: false},
			Game: "메이플스토리",
			LastMessage: &model.LastMessage{
				Content:   "보스 레이드 고마웠어요~",
				Timestamp: b.Add(-26 * time.Hour),
				SenderID:  104,
			},
			Unread: 0,
		},
	}
}

// Messages returns the seed conversation log for a baseline room, oldest
// first, or nil for rooms the catalog does not know. Read flags are
// consistent with the room's seed unread count.
func Messages(roomID int) []model.Message {
	b := base()
	switch roomID {
	case 1:
		return []model.Message{
			sys("듀오 매칭이 성사되었어요. 매너 채팅 부탁드려요!", b.Add(-3*time.Hour)),
			peer(101, "안녕하세요! 듀오 신청 보고 연락드려요", b.Add(-3*time.Hour+2*time.Minute), true),
			mine("안녕하세요~ 주로 어느 라인 가세요?", b.Add(-3*time.Hour+5*time.Minute)),
			peer(101, "저는 정글 위주로 해요. 티어는 플레 2입니다", b.Add(-10*time.Minute), false),
			peer(101, "이번 주말에 같이 랭크 돌리실래요?", b.Add(-5*time.Minute), false),
		}
	case 2:
		return []model.Message{
			sys("듀오 매칭이 성사되었어요. 매너 채팅 부탁드려요!", b.Add(-8*time.Hour)),
			peer(102, "오늘 저녁에 한 판 어때요?", b.Add(-7*time.Hour), true),
			mine("좋아요, 8시에 접속할게요", b.Add(-6*time.Hour)),
			mine("오늘 스파이크 러시 재밌었어요!", b.Add(-2*time.Hour)),
		}
	case 3:
		return []model.Message{
			sys("듀오 매칭이 성사되었어요. 매너 채팅 부탁드려요!", b.Add(-2*time.Hour)),
			peer(103, "힐러 자리 비었는데 오실래요?", b.Add(-30*time.Minute), false),
		}
	case 4:
		return []model.Message{
			sys("듀오 매칭이 성사되었어요. 매너 채팅 부탁드려요!", b.Add(-30*time.Hour)),
			mine("보스 레이드 파티 구하시던데 아직 자리 있나요?", b.Add(-28*time.Hour)),
			peer(104, "네! 8시에 모여요", b.Add(-27*time.Hour), true),
			peer(104, "보스 레이드 고마웠어요~", b.Add(-26*time.Hour), true),
		}
	default:
		return nil
	}
}

// Log returns the seed conversation log wrapped in a ConversationLog.
func Log(roomID int) *model.ConversationLog {
	return model.RestoreConversationLog(roomID, Messages(roomID))
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func sys(content string, ts time.Time) model.Message {
	msg, _ := model.NewSystemMessage(content)
	msg.Timestamp = ts
	return msg
}

func mine(content string, ts time.Time) model.Message {
	msg, _ := model.NewUserMessage(LocalUserID, content)
	msg.Timestamp = ts
	return msg
}

func peer(senderID int, content string, ts time.Time, read bool) model.Message {
	msg, _ := model.NewAssistantMessage(senderID, content)
	msg.Timestamp = ts
	msg.Read = read
	return msg
}
