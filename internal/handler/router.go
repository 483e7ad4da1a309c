package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dermaassist/internal/guard"
	"github.com/hitoshi/dermaassist/internal/metrics"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 認証・ルーティング
	SessionStore SessionStore
	Guard        *guard.Guard
	AuthConfig   AuthHandlerConfig

	// ストア
	Cart     CartServiceInterface
	Products ProductLister

	// 治療計画・コミュニティ
	TreatmentService TreatmentServiceInterface
	CommunityService CommunityServiceInterface

	// 画像診断
	ImageFetcher   ImageFetcher
	ImageAnalyzer  ImageAnalyzer
	MaxUploadBytes int64

	// 運用
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler
	HealthChecker  HealthChecker
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Session → Logging → Metrics → CORS → CSRF → RateLimit(General)
//
// /health と /metrics はCORS以降のミドルウェアの外に配置する。
// /auth/login, /auth/signup, /auth/forgot-password には認証用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, &model.APIError{
			Code:     "METHOD_NOT_ALLOWED",
			Message:  "The method is not allowed for this resource.",
			Category: "system",
			Action:   "Check the request method.",
		})
	})

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionStore))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))

	viewHandler := NewViewHandler(deps.Guard, collector)
	authHandler := NewAuthHandler(deps.SessionStore, deps.AuthConfig)
	storeHandler := NewStoreHandler(deps.Cart, deps.Products, collector)
	treatmentHandler := NewTreatmentHandler(deps.TreatmentService)
	communityHandler := NewCommunityHandler(deps.CommunityService)
	diagnosisHandler := NewDiagnosisHandler(deps.ImageFetcher, deps.ImageAnalyzer, collector, deps.MaxUploadBytes)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.AuthMiddleware())
				r.Post("/login", authHandler.Login)
				r.Post("/signup", authHandler.SignUp)
				r.Post("/forgot-password", authHandler.ForgotPassword)
			})
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

			// ルーティング・メニュー
			r.Get("/route", viewHandler.Route)
			r.Get("/navigation", viewHandler.Navigation)

			// ストア（閲覧とカート操作は未ログインでも可能）
			r.Get("/products", storeHandler.ListProducts)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", storeHandler.GetCart)
				r.Post("/items", storeHandler.AddItem)
				r.Put("/items/{productID}", storeHandler.UpdateItem)
				r.Delete("/items/{productID}", storeHandler.RemoveItem)
				r.With(middleware.RequireSession).Post("/checkout", storeHandler.Checkout)
			})

			// 画像診断（/diagnosisは公開ページ）
			r.Post("/diagnosis", diagnosisHandler.Diagnose)

			// --- サインインが必要なルート ---
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)

				r.Route("/treatment-plans", func(r chi.Router) {
					r.Get("/", treatmentHandler.ListPlans)
					r.Get("/{planID}", treatmentHandler.GetPlan)
					r.Post("/{planID}/steps/{stepID}/toggle", treatmentHandler.ToggleStep)
				})

				r.Route("/community", func(r chi.Router) {
					r.Get("/channels", communityHandler.ListChannels)
					r.Get("/messages", communityHandler.ListMessages)
					r.Post("/messages", communityHandler.PostMessage)
					r.Post("/messages/{id}/reactions", communityHandler.React)
				})
			})
		})

		// ビュー（APIに該当しないすべてのGET）
		r.Get("/*", viewHandler.ServeView)
	})

	return r
}
