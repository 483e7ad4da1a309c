// Package community はコミュニティチャットのチャンネル・メッセージ・リアクションを管理する。
package community

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/security"
)

// DefaultChannelID はチャンネル未指定時に使うチャンネル。
const DefaultChannelID = "general"

const maxEmojiBytes = 32

// Service はチャンネルごとのメッセージを保持する。永続化はしない。
type Service struct {
	sanitizer security.MessageSanitizer
	now       func() time.Time
	newID     func() string

	mu       sync.RWMutex
	channels []model.Channel
	messages map[string][]model.CommunityMessage
}

// NewService はデモ用のチャンネルとメッセージを持つServiceを生成する。
func NewService(sanitizer security.MessageSanitizer) *Service {
	s := &Service{
		sanitizer: sanitizer,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		channels:  defaultChannels(),
		messages:  make(map[string][]model.CommunityMessage),
	}
	s.seed()
	return s
}

func defaultChannels() []model.Channel {
	return []model.Channel{
		{ID: "general", Name: "General", Description: "General skin care discussions", MemberCount: 1250},
		{ID: "acne-support", Name: "Acne Support", Description: "Support group for acne treatment", MemberCount: 890},
		{ID: "skincare-routine", Name: "Skincare Routines", Description: "Share and discuss skincare routines", MemberCount: 650},
		{ID: "product-reviews", Name: "Product Reviews", Description: "Reviews and recommendations", MemberCount: 420},
	}
}

func (s *Service) seed() {
	now := s.now().UTC()
	s.messages[DefaultChannelID] = []model.CommunityMessage{
		{
			ID:         s.newID(),
			ChannelID:  DefaultChannelID,
			AuthorID:   "user1",
			AuthorName: "SkinCareEnthusiast",
			Avatar:     "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg?auto=compress&cs=tinysrgb&w=150",
			Text:       s.sanitizer.Sanitize("Has anyone tried the new CeraVe cleanser? I'm looking for something gentle for sensitive skin."),
			Timestamp:  now.Add(-5 * time.Minute),
			Reactions: []model.Reaction{
				{Emoji: "👍", Count: 3, Users: []string{"user2", "user3", "user4"}},
				{Emoji: "❤️", Count: 1, Users: []string{"user5"}},
			},
		},
		{
			ID:         s.newID(),
			ChannelID:  DefaultChannelID,
			AuthorID:   "user2",
			AuthorName: "DrSkinExpert",
			Avatar:     "https://images.pexels.com/photos/5327921/pexels-photo-5327921.jpeg?auto=compress&cs=tinysrgb&w=150",
			Text:       s.sanitizer.Sanitize("I've been using it for 3 months now and it's been great! Very gentle and doesn't strip the skin."),
			Timestamp:  now.Add(-4 * time.Minute),
		},
	}
}

// Channels はチャンネルの一覧を返す。
func (s *Service) Channels() []model.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// Messages はチャンネルのメッセージを投稿順に返す。
func (s *Service) Messages(channelID string) ([]model.CommunityMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasChannel(channelID) {
		return nil, model.NewChannelNotFoundError(channelID)
	}
	msgs := s.messages[channelID]
	out := make([]model.CommunityMessage, len(msgs))
	for i, m := range msgs {
		out[i] = cloneMessage(m)
	}
	return out, nil
}

// Post はメッセージを投稿する。本文はサニタイズされ、投稿者はセッションから設定される。
// サニタイズ後に空になる本文はバリデーションエラーとする。
func (s *Service) Post(channelID string, author *model.Session, text string) (model.CommunityMessage, error) {
	if author == nil {
		return model.CommunityMessage{}, model.NewUnauthorizedError()
	}
	clean := s.sanitizer.Sanitize(text)
	if clean == "" {
		return model.CommunityMessage{}, model.NewValidationError(map[string]string{
			"text": "Message is required",
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasChannel(channelID) {
		return model.CommunityMessage{}, model.NewChannelNotFoundError(channelID)
	}

	msg := model.CommunityMessage{
		ID:         s.newID(),
		ChannelID:  channelID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		AuthorRole: author.Role,
		Avatar:     author.Avatar,
		Text:       clean,
		Timestamp:  s.now().UTC(),
	}
	s.messages[channelID] = append(s.messages[channelID], msg)

	slog.Debug("community message posted",
		slog.String("channel_id", channelID),
		slog.String("message_id", msg.ID),
		slog.String("role", string(author.Role)),
	)
	return cloneMessage(msg), nil
}

// React はメッセージへのリアクションを切り替える。
func (s *Service) React(messageID, emoji string, user *model.Session) (model.CommunityMessage, error) {
	if user == nil {
		return model.CommunityMessage{}, model.NewUnauthorizedError()
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > maxEmojiBytes {
		return model.CommunityMessage{}, model.NewValidationError(map[string]string{
			"emoji": "Choose a single emoji",
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for channelID, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID != messageID {
				continue
			}
			msgs[i].Reactions = ToggleReaction(msgs[i].Reactions, emoji, user.ID)
			s.messages[channelID] = msgs
			return cloneMessage(msgs[i]), nil
		}
	}
	return model.CommunityMessage{}, model.NewMessageNotFoundError(messageID)
}

// ToggleReaction はuserIDのemojiリアクションを切り替えた新しいスライスを返す。
//   - 既にリアクション済みの場合はユーザーを取り除きCountを1減らす（0になったリアクションは削除）
//   - 同じ絵文字のリアクションがある場合はユーザーを追加しCountを1増やす
//   - ない場合は新しいリアクションを末尾に追加する
func ToggleReaction(reactions []model.Reaction, emoji, userID string) []model.Reaction {
	out := make([]model.Reaction, 0, len(reactions)+1)
	found := false

	for _, r := range reactions {
		if r.Emoji != emoji {
			out = append(out, cloneReaction(r))
			continue
		}
		found = true

		idx := indexOf(r.Users, userID)
		if idx >= 0 {
			users := make([]string, 0, len(r.Users)-1)
			users = append(users, r.Users[:idx]...)
			users = append(users, r.Users[idx+1:]...)
			if r.Count-1 <= 0 {
				continue
			}
			out = append(out, model.Reaction{Emoji: r.Emoji, Count: r.Count - 1, Users: users})
			continue
		}

		users := make([]string, 0, len(r.Users)+1)
		users = append(users, r.Users...)
		users = append(users, userID)
		out = append(out, model.Reaction{Emoji: r.Emoji, Count: r.Count + 1, Users: users})
	}

	if !found {
		out = append(out, model.Reaction{Emoji: emoji, Count: 1, Users: []string{userID}})
	}
	return out
}

func (s *Service) hasChannel(id string) bool {
	for _, c := range s.channels {
		if c.ID == id {
			return true
		}
	}
	return false
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func cloneReaction(r model.Reaction) model.Reaction {
	users := make([]string, len(r.Users))
	copy(users, r.Users)
	r.Users = users
	return r
}

func cloneMessage(m model.CommunityMessage) model.CommunityMessage {
	if m.Reactions == nil {
		m.Reactions = []model.Reaction{}
		return m
	}
	reactions := make([]model.Reaction, len(m.Reactions))
	for i, r := range m.Reactions {
		reactions[i] = cloneReaction(r)
	}
	m.Reactions = reactions
	return m
}
