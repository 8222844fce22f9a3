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

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	MarketData MarketDataConfig

	// Pipeline
	Pipeline PipelineConfig

	// Model artifacts
	Model ModelConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds feature store configuration
type DatabaseConfig struct {
	Driver     string // postgres, sqlite
	URL        string
	SQLitePath string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MarketDataConfig holds the daily-bar source configuration
type MarketDataConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration // 심볼 간 대기 (courtesy throttle)
}

// PipelineConfig holds feature pipeline settings shared by backfill and daily paths
type PipelineConfig struct {
	Tickers        []string
	Features       []string
	TargetFeature  string
	LookbackPeriod int

	BackfillCalendarDays int // 백필 시 조회 기간 (정제 손실 여유 포함)
	BackfillRows         int // 백필 시 저장할 최근 행 수
	MinCleanRows         int // 지표 warm-up + lookback 최소 행 수
	DailyCalendarDays    int
	DailyRecentRows      int

	CollectSchedule string // cron (with seconds)
}

// ModelConfig holds paths of the pre-trained model artifacts
type ModelConfig struct {
	ModelPath   string
	ScalersPath string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Driver:          getEnv("STORE_DRIVER", "postgres"),
			URL:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "stockcast.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "6h"),
		},

		// External APIs
		MarketData: MarketDataConfig{
			BaseURL:      getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:      getEnvAsDuration("MARKET_DATA_TIMEOUT", "30s"),
			RequestDelay: getEnvAsDuration("MARKET_DATA_REQUEST_DELAY", "500ms"),
		},

		Pipeline: PipelineConfig{
			Tickers:              getEnvAsTickers("TICKERS", []string{"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "ICICIBANK.NS"}),
			Features:             getEnvAsList("FEATURES_TO_USE", []string{"Close", "Volume", "RSI_14", "MACD_12_26_9", "volatility_20d"}),
			TargetFeature:        getEnv("TARGET_COLUMN", "Close"),
			LookbackPeriod:       getEnvAsInt("LOOKBACK_PERIOD", 60),
			BackfillCalendarDays: getEnvAsInt("BACKFILL_CALENDAR_DAYS", 250),
			BackfillRows:         getEnvAsInt("BACKFILL_ROWS", 60),
			MinCleanRows:         getEnvAsInt("MIN_CLEAN_ROWS", 85),
			DailyCalendarDays:    getEnvAsInt("DAILY_CALENDAR_DAYS", 100),
			DailyRecentRows:      getEnvAsInt("DAILY_RECENT_ROWS", 5),
			CollectSchedule:      getEnv("COLLECT_SCHEDULE", "0 30 16 * * MON-FRI"),
		},

		Model: ModelConfig{
			ModelPath:   getEnv("MODEL_PATH", "models/model.yaml"),
			ScalersPath: getEnv("SCALERS_PATH", "models/scalers.json"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: postgres, sqlite")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.LookbackPeriod <= 0 {
		return fmt.Errorf("LOOKBACK_PERIOD must be positive")
	}

	if len(c.Pipeline.Features) == 0 {
		return fmt.Errorf("FEATURES_TO_USE must not be empty")
	}

	found := false
	for _, f := range c.Pipeline.Features {
		if f == c.Pipeline.TargetFeature {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("TARGET_COLUMN %q is not in FEATURES_TO_USE", c.Pipeline.TargetFeature)
	}

	if c.Pipeline.BackfillRows < c.Pipeline.LookbackPeriod {
		return fmt.Errorf("BACKFILL_ROWS (%d) must cover LOOKBACK_PERIOD (%d)",
			c.Pipeline.BackfillRows, c.Pipeline.LookbackPeriod)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsTickers parses a ticker list, upper-cased to match stored symbols
func getEnvAsTickers(key string, defaultValue []string) []string {
	list := getEnvAsList(key, defaultValue)
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, strings.ToUpper(strings.TrimSpace(t)))
	}
	return out
}

// getEnvAsList parses a comma-separated value, trimming blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
