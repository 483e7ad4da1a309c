package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/dermaassist/internal/auth"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/route"
)

// SessionStore は認証ハンドラーが必要とするセッションストアのインターフェース。
// auth.Storeが実装する。
type SessionStore interface {
	Current() *model.Session
	InFlight() bool
	BeginSignIn(email, secret string) *auth.Attempt
	BeginSignUp(profile model.SignUpProfile) *auth.Attempt
	SignOut(ctx context.Context) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// ForgotPasswordDelay はパスワードリセット受付までの擬似的な遅延。
	ForgotPasswordDelay time.Duration
}

// AuthHandler はサインイン・サインアップ・サインアウトのHTTPハンドラー。
type AuthHandler struct {
	store  SessionStore
	config AuthHandlerConfig

	// mu は進行中のAttemptを1つに制限するために使う。
	mu     sync.Mutex
	active *auth.Attempt
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(store SessionStore, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{store: store, config: config}
}

// loginRequest はサインインリクエストのボディ。
// Rememberは受け付けるが、セッションは常に永続化される。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
	Next     string `json:"next"`
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	model.SignUpProfile
	Next string `json:"next"`
}

// forgotPasswordRequest はパスワードリセットリクエストのボディ。
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// authResponse はサインイン・サインアップ成功時のレスポンス。
type authResponse struct {
	Session *model.Session     `json:"session"`
	State   model.SessionState `json:"state"`
	Next    string             `json:"next"`
}

// meResponse はGET /auth/meのレスポンス。
type meResponse struct {
	Session *model.Session     `json:"session"`
	State   model.SessionState `json:"state"`
	Loading bool               `json:"loading"`
}

// Login はメールアドレスとパスワードでサインインする。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.store.Current() != nil {
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewAlreadySignedInError())
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if fields := auth.ValidateSignInForm(req.Email, req.Password); len(fields) > 0 {
		middleware.WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(fields))
		return
	}

	attempt, ok := h.start(func() *auth.Attempt {
		return h.store.BeginSignIn(req.Email, req.Password)
	})
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewSignInInProgressError())
		return
	}

	h.finish(w, r, attempt, http.StatusOK, nextPath(r, req.Next))
}

// SignUp はアカウントを作成してサインインする。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h.store.Current() != nil {
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewAlreadySignedInError())
		return
	}

	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, ok := h.start(func() *auth.Attempt {
		return h.store.BeginSignUp(req.SignUpProfile)
	})
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusConflict, model.NewSignInInProgressError())
		return
	}

	h.finish(w, r, attempt, http.StatusCreated, nextPath(r, req.Next))
}

// Logout はセッションを破棄する。未ログインでも成功する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"next": route.HomePath})
}

// Me は現在のセッションと、サインイン処理が進行中かどうかを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Current()
	writeJSON(w, http.StatusOK, meResponse{
		Session: sess,
		State:   model.StateOf(sess),
		Loading: h.store.InFlight(),
	})
}

// ForgotPassword はパスワードリセットの依頼を受け付ける。メールは送信しない。
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if msg := auth.ValidateEmail(req.Email); msg != "" {
		middleware.WriteErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(map[string]string{
			"email": msg,
		}))
		return
	}

	if h.config.ForgotPasswordDelay > 0 {
		timer := time.NewTimer(h.config.ForgotPasswordDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	slog.Info("password reset requested")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

// start は進行中のAttemptがなければbeginを呼び出して新しいAttemptを開始する。
// 進行中のAttemptがある場合はfalseを返す。
func (h *AuthHandler) start(begin func() *auth.Attempt) (*auth.Attempt, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active != nil {
		select {
		case <-h.active.Done():
		default:
			return nil, false
		}
	}

	a := begin()
	h.active = a
	return a, true
}

// finish はAttemptの完了を待ってレスポンスを書き込む。
// 完了前にリクエストが中断された場合はAttemptをstaleにし、ストアを変更させない。
func (h *AuthHandler) finish(w http.ResponseWriter, r *http.Request, a *auth.Attempt, statusCode int, next string) {
	sess, err := a.Wait(r.Context())
	if err != nil {
		if r.Context().Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			a.MarkStale()
			slog.Info("auth request cancelled before completion", slog.String("path", r.URL.Path))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, statusCode, authResponse{
		Session: sess,
		State:   model.StateOf(sess),
		Next:    next,
	})
}

// nextPath はサインイン後の遷移先を決定する。
// クエリのnextを優先し、ルート表にあるguest_only以外のパスのみ受け付ける。
// それ以外はランディングページを返す。
func nextPath(r *http.Request, bodyNext string) string {
	candidate := r.URL.Query().Get("next")
	if candidate == "" {
		candidate = bodyNext
	}
	if candidate == "" {
		return route.LandingPath
	}

	d, ok := route.Lookup(candidate)
	if !ok || d.Access == route.AccessGuestOnly {
		return route.LandingPath
	}
	return d.Path
}
