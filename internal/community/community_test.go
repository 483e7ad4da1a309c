package community

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/security"
)

var alice = &model.Session{ID: "u-1", Name: "Alice", Role: model.RolePatient, Avatar: "https://example.com/a.png"}

func newTestService() *Service {
	s := NewService(security.NewMessageSanitizer())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("m-%d", n)
	}
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func apiErrorCode(t *testing.T, err error) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

func TestToggleReaction(t *testing.T) {
	tests := []struct {
		name   string
		input  []model.Reaction
		emoji  string
		userID string
		want   []model.Reaction
	}{
		{
			name:   "新しい絵文字は末尾に追加",
			input:  []model.Reaction{{Emoji: "👍", Count: 1, Users: []string{"a"}}},
			emoji:  "❤️",
			userID: "b",
			want: []model.Reaction{
				{Emoji: "👍", Count: 1, Users: []string{"a"}},
				{Emoji: "❤️", Count: 1, Users: []string{"b"}},
			},
		},
		{
			name:   "既存の絵文字にユーザーを追加",
			input:  []model.Reaction{{Emoji: "👍", Count: 2, Users: []string{"a", "c"}}},
			emoji:  "👍",
			userID: "b",
			want:   []model.Reaction{{Emoji: "👍", Count: 3, Users: []string{"a", "c", "b"}}},
		},
		{
			name:   "リアクション済みのユーザーは取り除く",
			input:  []model.Reaction{{Emoji: "👍", Count: 2, Users: []string{"a", "b"}}},
			emoji:  "👍",
			userID: "a",
			want:   []model.Reaction{{Emoji: "👍", Count: 1, Users: []string{"b"}}},
		},
		{
			name:   "Countが0になったリアクションは削除",
			input:  []model.Reaction{{Emoji: "👍", Count: 1, Users: []string{"a"}}, {Emoji: "🔥", Count: 1, Users: []string{"b"}}},
			emoji:  "👍",
			userID: "a",
			want:   []model.Reaction{{Emoji: "🔥", Count: 1, Users: []string{"b"}}},
		},
		{
			name:   "空のリアクション",
			input:  nil,
			emoji:  "👍",
			userID: "a",
			want:   []model.Reaction{{Emoji: "👍", Count: 1, Users: []string{"a"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToggleReaction(tt.input, tt.emoji, tt.userID)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToggleReaction = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// 2回切り替えると元の状態に戻る
func TestToggleReaction_TwiceRestoresOriginal(t *testing.T) {
	orig := []model.Reaction{{Emoji: "👍", Count: 2, Users: []string{"a", "b"}}}

	got := ToggleReaction(ToggleReaction(orig, "❤️", "c"), "❤️", "c")
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("got %+v, want %+v", got, orig)
	}
}

func TestToggleReaction_DoesNotMutateInput(t *testing.T) {
	orig := []model.Reaction{{Emoji: "👍", Count: 2, Users: []string{"a", "b"}}}

	_ = ToggleReaction(orig, "👍", "a")

	if orig[0].Count != 2 || len(orig[0].Users) != 2 || orig[0].Users[0] != "a" {
		t.Errorf("input was mutated: %+v", orig)
	}
}

func TestService_Channels(t *testing.T) {
	s := newTestService()

	channels := s.Channels()
	if len(channels) != 4 {
		t.Fatalf("len(Channels) = %d, want 4", len(channels))
	}
	if channels[0].ID != DefaultChannelID {
		t.Errorf("first channel = %q, want %q", channels[0].ID, DefaultChannelID)
	}
}

func TestService_Messages_UnknownChannel(t *testing.T) {
	s := newTestService()

	_, err := s.Messages("nope")
	if code := apiErrorCode(t, err); code != model.ErrCodeChannelNotFound {
		t.Errorf("Code = %q, want %q", code, model.ErrCodeChannelNotFound)
	}
}

func TestService_Post_AppendsSanitizedMessage(t *testing.T) {
	s := newTestService()
	before, _ := s.Messages(DefaultChannelID)

	msg, err := s.Post(DefaultChannelID, alice, "  <b>Thanks</b> for the tip!<script>x()</script> ")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if msg.Text != "Thanks for the tip!" {
		t.Errorf("Text = %q, want %q", msg.Text, "Thanks for the tip!")
	}
	if msg.AuthorID != "u-1" || msg.AuthorName != "Alice" || msg.AuthorRole != model.RolePatient {
		t.Errorf("author = %s/%s/%s", msg.AuthorID, msg.AuthorName, msg.AuthorRole)
	}
	if msg.ChannelID != DefaultChannelID {
		t.Errorf("ChannelID = %q, want %q", msg.ChannelID, DefaultChannelID)
	}

	after, _ := s.Messages(DefaultChannelID)
	if len(after) != len(before)+1 {
		t.Fatalf("len(messages) = %d, want %d", len(after), len(before)+1)
	}
	if after[len(after)-1].ID != msg.ID {
		t.Error("new message should be last")
	}
}

func TestService_Post_Errors(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name    string
		channel string
		author  *model.Session
		text    string
		code    string
	}{
		{"no session", DefaultChannelID, nil, "hi", model.ErrCodeUnauthorized},
		{"empty text", DefaultChannelID, alice, "   ", model.ErrCodeValidation},
		{"only markup", DefaultChannelID, alice, "<script>x()</script>", model.ErrCodeValidation},
		{"unknown channel", "nope", alice, "hi", model.ErrCodeChannelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Post(tt.channel, tt.author, tt.text)
			if code := apiErrorCode(t, err); code != tt.code {
				t.Errorf("Code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestService_React_TogglesOnMessage(t *testing.T) {
	s := newTestService()
	msg, err := s.Post(DefaultChannelID, alice, "hello")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	reacted, err := s.React(msg.ID, "👍", alice)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if len(reacted.Reactions) != 1 || reacted.Reactions[0].Count != 1 {
		t.Fatalf("Reactions = %+v, want one 👍 with count 1", reacted.Reactions)
	}

	unreacted, err := s.React(msg.ID, "👍", alice)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if len(unreacted.Reactions) != 0 {
		t.Errorf("Reactions = %+v, want none", unreacted.Reactions)
	}
}

func TestService_React_SeededMessage(t *testing.T) {
	s := newTestService()
	msgs, _ := s.Messages(DefaultChannelID)
	first := msgs[0]

	got, err := s.React(first.ID, "👍", alice)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if got.Reactions[0].Count != 4 {
		t.Errorf("👍 count = %d, want 4", got.Reactions[0].Count)
	}
}

func TestService_React_Errors(t *testing.T) {
	s := newTestService()
	msgs, _ := s.Messages(DefaultChannelID)

	tests := []struct {
		name  string
		id    string
		emoji string
		user  *model.Session
		code  string
	}{
		{"no session", msgs[0].ID, "👍", nil, model.ErrCodeUnauthorized},
		{"empty emoji", msgs[0].ID, " ", alice, model.ErrCodeValidation},
		{"unknown message", "missing", "👍", alice, model.ErrCodeMessageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.React(tt.id, tt.emoji, tt.user)
			if code := apiErrorCode(t, err); code != tt.code {
				t.Errorf("Code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestService_Messages_ReturnsCopies(t *testing.T) {
	s := newTestService()

	msgs, _ := s.Messages(DefaultChannelID)
	msgs[0].Reactions[0].Users[0] = "mutated"

	again, _ := s.Messages(DefaultChannelID)
	if again[0].Reactions[0].Users[0] == "mutated" {
		t.Error("mutating Messages() result must not change the service")
	}
}
