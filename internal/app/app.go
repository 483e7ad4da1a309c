package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/dermaassist/internal/auth"
	"github.com/hitoshi/dermaassist/internal/cart"
	"github.com/hitoshi/dermaassist/internal/community"
	"github.com/hitoshi/dermaassist/internal/config"
	"github.com/hitoshi/dermaassist/internal/database"
	"github.com/hitoshi/dermaassist/internal/diagnosis"
	"github.com/hitoshi/dermaassist/internal/guard"
	"github.com/hitoshi/dermaassist/internal/handler"
	"github.com/hitoshi/dermaassist/internal/logger"
	"github.com/hitoshi/dermaassist/internal/metrics"
	"github.com/hitoshi/dermaassist/internal/middleware"
	"github.com/hitoshi/dermaassist/internal/repository"
	"github.com/hitoshi/dermaassist/internal/security"
	"github.com/hitoshi/dermaassist/internal/treatment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映する
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("storage_driver", string(cfg.StorageDriver)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// storage はセッションの永続化先と、その下にあるDB接続を保持する。
type storage struct {
	kv repository.KVStorage
	db *sql.DB // memoryドライバの場合はnil
}

func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStorage は設定されたドライバの永続化先を開く。
// SQLiteは起動時にマイグレーションを適用する。PostgreSQLは事前にmigrateコマンドで適用しておく。
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, sessions will be lost on restart")
		return &storage{kv: repository.NewMemoryKVRepo()}, nil

	case config.StoragePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return &storage{kv: repository.NewPostgresKVRepo(db), db: db}, nil

	default:
		if err := database.RunSQLiteMigrations(cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("sqlite storage opened", slog.String("path", cfg.SQLitePath))
		return &storage{kv: repository.NewSQLiteKVRepo(db), db: db}, nil
	}
}

// Server は全依存関係をワイヤリングしたHTTPサーバー。
type Server struct {
	HTTP  *http.Server
	Store *auth.Store

	storage     *storage
	rateLimiter *middleware.RateLimiter
}

// NewServer は永続化先を開き、保存済みセッションを復元してHTTPサーバーを組み立てる。
// 使用後はCloseを呼び出すこと。
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// 1. 永続化先
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. セッションストアの初期化と復元
	store := auth.NewStore(st.kv, auth.NewEmailRoleClassifier(), auth.StoreConfig{
		Key:      cfg.SessionKey,
		Delay:    cfg.AuthDelay,
		Recorder: collector,
	})
	if err := store.Restore(ctx); err != nil {
		// 読み取りに失敗しても匿名状態で起動する
		slog.Error("failed to restore session", slog.String("error", err.Error()))
	}

	// 4. ドメインサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	catalog := cart.DefaultCatalog()
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFromPerMinute(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,

		SessionStore: store,
		Guard:        guard.New(guard.Policy{EnforceRoles: cfg.GuardEnforceRoles}),
		AuthConfig:   handler.AuthHandlerConfig{ForgotPasswordDelay: cfg.AuthDelay},

		Cart:     cart.New(catalog),
		Products: catalog,

		TreatmentService: treatment.NewService(treatment.DefaultPlans()),
		CommunityService: community.NewService(security.NewMessageSanitizer()),

		ImageFetcher: diagnosis.NewFetcher(
			ssrfGuard.NewSafeClient(cfg.DiagnosisFetchTimeout), ssrfGuard, cfg.DiagnosisMaxUpload,
		),
		ImageAnalyzer:  diagnosis.NewAnalyzer(cfg.DiagnosisDelay),
		MaxUploadBytes: cfg.DiagnosisMaxUpload,

		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
	}
	// nilの*sql.DBをインターフェースに入れないようにする
	if st.db != nil {
		deps.HealthChecker = st.db
	}

	// 5. HTTPサーバー
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		HTTP:        server,
		Store:       store,
		storage:     st,
		rateLimiter: rateLimiter,
	}, nil
}

// Close はレート制限のクリーンアップを停止し、永続化先を閉じる。
func (s *Server) Close() error {
	s.rateLimiter.Stop()
	return s.storage.Close()
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", srv.HTTP.Addr),
		)
		if err := srv.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.HTTP.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。memoryドライバでは何もしない。
func runMigrate(cfg *config.Config) error {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		slog.Info("memory storage has no migrations")
		return nil

	case config.StoragePostgres:
		slog.Info("running database migrations",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	default:
		slog.Info("running sqlite migrations", slog.String("path", cfg.SQLitePath))
		if err := database.RunSQLiteMigrations(cfg.SQLitePath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
