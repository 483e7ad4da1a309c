package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/dermaassist/internal/guard"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/navigation"
	"github.com/hitoshi/dermaassist/internal/route"
)

// GuardRecorder はガードの判定結果を記録する。metrics.Collectorが実装する。
type GuardRecorder interface {
	RecordGuardDecision(kind, reason string)
}

// ViewHandler はパスに応じたビューの表示とナビゲーションを扱うHTTPハンドラー。
type ViewHandler struct {
	guard    *guard.Guard
	recorder GuardRecorder
}

// NewViewHandler はViewHandlerを生成する。
func NewViewHandler(g *guard.Guard, recorder GuardRecorder) *ViewHandler {
	return &ViewHandler{guard: g, recorder: recorder}
}

// viewResponse は表示するビューの情報。
type viewResponse struct {
	View       string             `json:"view"`
	Path       string             `json:"path"`
	Title      string             `json:"title"`
	State      model.SessionState `json:"state"`
	Session    *model.Session     `json:"session,omitempty"`
	Navigation []navigation.Item  `json:"navigation"`
	Route      route.Descriptor   `json:"route"`
}

// routeResponse はGET /api/routeのレスポンス。
type routeResponse struct {
	Path     string            `json:"path"`
	Decision guard.Decision    `json:"decision"`
	Route    *route.Descriptor `json:"route,omitempty"`
}

// ServeView はパスに対応するビューを返す。
// ガードがリダイレクトを指示した場合は302で遷移先へ誘導する。
// GET /*
func (h *ViewHandler) ServeView(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	d, decision := h.resolve(r.URL.Path, sess)

	if decision.Kind == guard.Redirect {
		http.Redirect(w, r, redirectLocation(decision), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{
		View:       decision.View,
		Path:       d.Path,
		Title:      d.Title,
		State:      model.StateOf(sess),
		Session:    sess,
		Navigation: navigation.VisibleRoutes(sess),
		Route:      d,
	})
}

// Route はリダイレクトせずにガードの判定結果を返す。SPAクライアント向け。
// GET /api/route?path=/history
func (h *ViewHandler) Route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		middleware.WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(map[string]string{
			"path": "Path is required",
		}))
		return
	}

	sess := middleware.SessionFromContext(r.Context())
	d, decision := h.resolve(path, sess)

	resp := routeResponse{Path: route.Normalize(path), Decision: decision}
	if d.Path != "" {
		resp.Route = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// Navigation は現在のセッションで表示するメニュー項目を返す。
// GET /api/navigation
func (h *ViewHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"state": model.StateOf(sess),
		"items": navigation.VisibleRoutes(sess),
	})
}

func (h *ViewHandler) resolve(path string, sess *model.Session) (route.Descriptor, guard.Decision) {
	d, decision := h.guard.Resolve(path, sess)
	h.recorder.RecordGuardDecision(string(decision.Kind), decision.Reason)

	if decision.Kind == guard.Redirect {
		slog.Debug("route redirected",
			slog.String("path", path),
			slog.String("target", decision.Target),
			slog.String("reason", decision.Reason),
		)
	}
	return d, decision
}

// redirectLocation はリダイレクト先のURLを組み立てる。
// ログインページへの誘導の場合は元のパスをnextクエリに付与する。
func redirectLocation(d guard.Decision) string {
	if d.ReturnTo == "" {
		return d.Target
	}
	return d.Target + "?" + url.Values{"next": {d.ReturnTo}}.Encode()
}
