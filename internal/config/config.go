package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Gateway      GatewayConfig
	Workspace    WorkspaceConfig
	Store        StoreConfig
	Ticket       TicketConfig
	Notice       NoticeConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// GatewayConfig holds connection values for the messaging gateway API.
type GatewayConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// WorkspaceConfig identifies the chat workspace resources the bot operates on.
type WorkspaceConfig struct {
	AdminRoleID         string
	TicketCategoryID    string
	TranscriptChannelID string
	ReviewChannelID     string
	NoticeChannelID     string
}

// StoreConfig locates the document store backing file.
type StoreConfig struct {
	Path string
}

// TicketConfig tunes ticket lifecycle behavior.
type TicketConfig struct {
	CloseGraceSeconds int
	HistoryLimit      int
	MaxCommentLength  int
}

// NoticeConfig tunes the security notice rotation.
type NoticeConfig struct {
	IntervalMinutes int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters for the admin surface.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "http://127.0.0.1:9090"),
			Token:          os.Getenv("GATEWAY_TOKEN"),
			TimeoutSeconds: getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 10),
		},
		Workspace: WorkspaceConfig{
			AdminRoleID:         os.Getenv("WORKSPACE_ADMIN_ROLE_ID"),
			TicketCategoryID:    os.Getenv("WORKSPACE_TICKET_CATEGORY_ID"),
			TranscriptChannelID: os.Getenv("WORKSPACE_TRANSCRIPT_CHANNEL_ID"),
			ReviewChannelID:     os.Getenv("WORKSPACE_REVIEW_CHANNEL_ID"),
			NoticeChannelID:     os.Getenv("WORKSPACE_NOTICE_CHANNEL_ID"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "data/tickets.json"),
		},
		Ticket: TicketConfig{
			CloseGraceSeconds: getEnvAsInt("TICKET_CLOSE_GRACE_SECONDS", 5),
			HistoryLimit:      getEnvAsInt("TICKET_HISTORY_LIMIT", 100),
			MaxCommentLength:  getEnvAsInt("TICKET_MAX_COMMENT_LENGTH", 500),
		},
		Notice: NoticeConfig{
			IntervalMinutes: getEnvAsInt("NOTICE_INTERVAL_MINUTES", 50),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the gateway call timeout duration.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// CloseGrace returns the delay between the closing notice and channel deletion.
func (t TicketConfig) CloseGrace() time.Duration {
	if t.CloseGraceSeconds < 0 {
		return 0
	}
	return time.Duration(t.CloseGraceSeconds) * time.Second
}

// Interval returns the notice rotation period.
func (n NoticeConfig) Interval() time.Duration {
	if n.IntervalMinutes <= 0 {
		return 50 * time.Minute
	}
	return time.Duration(n.IntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
