package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dermaassist/internal/community"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
)

// CommunityServiceInterface はコミュニティハンドラーが必要とするサービスインターフェース。
type CommunityServiceInterface interface {
	Channels() []model.Channel
	Messages(channelID string) ([]model.CommunityMessage, error)
	Post(channelID string, author *model.Session, text string) (model.CommunityMessage, error)
	React(messageID, emoji string, user *model.Session) (model.CommunityMessage, error)
}

// CommunityHandler はコミュニティチャットのHTTPハンドラー。
// リアルタイム配信は行わず、クライアントはポーリングで取得する。
type CommunityHandler struct {
	service CommunityServiceInterface
}

// NewCommunityHandler はCommunityHandlerを生成する。
func NewCommunityHandler(service CommunityServiceInterface) *CommunityHandler {
	return &CommunityHandler{service: service}
}

type postMessageRequest struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

// ListChannels はチャンネルの一覧を返す。
// GET /api/community/channels
func (h *CommunityHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"channels": h.service.Channels()})
}

// ListMessages はチャンネルのメッセージを返す。channelを省略した場合はgeneral。
// GET /api/community/messages?channel=general
func (h *CommunityHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	if channelID == "" {
		channelID = community.DefaultChannelID
	}

	msgs, err := h.service.Messages(channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channel_id": channelID,
		"messages":   msgs,
	})
}

// PostMessage はメッセージを投稿する。
// POST /api/community/messages
func (h *CommunityHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ChannelID == "" {
		req.ChannelID = community.DefaultChannelID
	}

	msg, err := h.service.Post(req.ChannelID, middleware.SessionFromContext(r.Context()), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// React はメッセージへのリアクションを切り替える。
// POST /api/community/messages/{id}/reactions
func (h *CommunityHandler) React(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.service.React(chi.URLParam(r, "id"), req.Emoji, middleware.SessionFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
