package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageDriver はセッションの永続化先を表す。
type StorageDriver string

const (
	// StorageSQLite はローカルのSQLiteファイルに永続化する（デフォルト）。
	StorageSQLite StorageDriver = "sqlite"
	// StoragePostgres はPostgreSQLに永続化する。
	StoragePostgres StorageDriver = "postgres"
	// StorageMemory はプロセス内メモリのみに保持する（再起動で消える）。
	StorageMemory StorageDriver = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageDriver StorageDriver
	SQLitePath    string
	DatabaseURL   string
	SessionKey    string

	// Auth
	AuthDelay time.Duration

	// Guard
	// GuardEnforceRoles がtrueの場合、ロール指定のあるルートへの
	// 別ロールからの直接アクセスをガードで拒否する。
	// falseの場合はメニューの表示制御のみ行う。
	GuardEnforceRoles bool

	// Diagnosis
	DiagnosisDelay        time.Duration
	DiagnosisMaxUpload    int64
	DiagnosisFetchTimeout time.Duration

	// Rate Limit（req/min/client）
	RateLimitAuth    int
	RateLimitGeneral int

	// Logging
	LogLevel slog.Level

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	driver := StorageDriver(strings.ToLower(getEnvString("STORAGE_DRIVER", string(StorageSQLite))))
	switch driver {
	case StorageSQLite, StoragePostgres, StorageMemory:
		cfg.StorageDriver = driver
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER: %q (allowed: sqlite, postgres, memory)", driver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SQLitePath = getEnvString("SQLITE_PATH", "dermaassist.db")
	cfg.SessionKey = getEnvString("SESSION_KEY", "user")
	cfg.AuthDelay = getEnvDuration("AUTH_DELAY", 1*time.Second)
	cfg.GuardEnforceRoles = getEnvBool("GUARD_ENFORCE_ROLES", false)
	cfg.DiagnosisDelay = getEnvDuration("DIAGNOSIS_DELAY", 3*time.Second)
	cfg.DiagnosisMaxUpload = getEnvInt64("DIAGNOSIS_MAX_UPLOAD", 10<<20)
	cfg.DiagnosisFetchTimeout = getEnvDuration("DIAGNOSIS_FETCH_TIMEOUT", 10*time.Second)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 20)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 240)
	cfg.LogLevel = getEnvLevel("LOG_LEVEL", slog.LevelInfo)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvLevel はdebug/info/warn/errorをslog.Levelに変換する。
func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
