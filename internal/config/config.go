package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client.
type Config struct {
	App    AppConfig
	API    APIConfig
	Poll   PollConfig
	View   ViewConfig
	Token  TokenConfig
	Redis  RedisConfig
	Logger LoggerConfig
	Auth   AuthConfig
}

// AppConfig controls the local view server.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// APIConfig points at the ticketing API server.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// PollConfig controls the background dashboard refresh.
type PollConfig struct {
	IntervalSeconds int
}

// ViewConfig holds view derivation defaults.
type ViewConfig struct {
	PageSize int
}

// TokenConfig selects where the session token is persisted.
type TokenConfig struct {
	Store    string
	File     string
	RedisKey string
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

// AuthConfig holds the registration access codes for privileged roles.
type AuthConfig struct {
	AdminCode  string
	AgentCode  string
	BcryptCost int
}

// Token store backends.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenStore := strings.ToLower(getEnv("TOKEN_STORE", TokenStoreFile))
	switch tokenStore {
	case TokenStoreFile, TokenStoreRedis, TokenStoreMemory:
	default:
		return nil, fmt.Errorf("invalid TOKEN_STORE %q", tokenStore)
	}

	baseURL := getEnv("API_BASE_URL", "http://localhost:5454/")
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticketdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		API: APIConfig{
			BaseURL:        baseURL,
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 15),
		},
		Poll: PollConfig{
			IntervalSeconds: getEnvAsInt("POLL_INTERVAL_SECONDS", 30),
		},
		View: ViewConfig{
			PageSize: getEnvAsInt("PAGE_SIZE", 10),
		},
		Token: TokenConfig{
			Store:    tokenStore,
			File:     getEnv("TOKEN_FILE", defaultTokenFile()),
			RedisKey: getEnv("TOKEN_REDIS_KEY", "ticketdesk:jwt"),
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
			AdminCode:  getEnv("AUTH_ADMIN_CODE", "ADMIN2024"),
			AgentCode:  getEnv("AUTH_AGENT_CODE", "AGENT2024"),
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 10),
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

// Timeout returns the per-call API timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Interval returns the poll interval, never below one second.
func (p PollConfig) Interval() time.Duration {
	if p.IntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(p.IntervalSeconds) * time.Second
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".ticketdesk-token"
	}
	return filepath.Join(dir, "ticketdesk", "token")
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
