package model

import "time"

// Channel はコミュニティチャットのチャンネルを表す。
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"member_count"`
}

// Reaction はメッセージに付けられた絵文字リアクションを表す。
// Countは常にlen(Users)と一致する。
type Reaction struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// CommunityMessage はコミュニティチャットの1メッセージを表す。
type CommunityMessage struct {
	ID         string     `json:"id"`
	ChannelID  string     `json:"channel_id"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	AuthorRole Role       `json:"author_role,omitempty"`
	Avatar     string     `json:"avatar,omitempty"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
	Reactions  []Reaction `json:"reactions"`
}
