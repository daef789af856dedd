package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Quotes   QuotesConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Dispatch DispatchConfig
	Tokens   TokensConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// QuotesConfig holds configuration for the external stock quote API.
// The API enforces a strict calls-per-minute ceiling; InterCallDelay is the
// pause between the quote request and the fundamentals request of one fetch.
type QuotesConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	InterCallDelay time.Duration
}

// CacheConfig holds TTLs for the stock data cache tiers.
type CacheConfig struct {
	PriceTTL      time.Duration // price tier, refreshed often
	DetailsTTL    time.Duration // fundamentals tier, refreshed daily
	BulkResultTTL time.Duration // dedup window for identical bulk refreshes
}

// SyncConfig holds limits and endpoints for the task synchronizer.
type SyncConfig struct {
	PageSize         int // results requested per page from provider APIs
	MaxPages         int // cap on pages traversed per list
	RequestTimeout   time.Duration
	GoogleBaseURL    string
	MicrosoftBaseURL string
}

// DispatchConfig holds configuration for the async dispatch shim.
// BaseURL is the address this service can reach itself on; queued work is
// delivered to it as HTTP POSTs.
type DispatchConfig struct {
	BaseURL string
}

// TokensConfig holds configuration for provider token storage.
// FernetKey is a base64 fernet key used to encrypt tokens at rest.
type TokensConfig struct {
	FernetKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/taskfolio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Quotes: QuotesConfig{
			APIKey:         getEnv("QUOTE_API_KEY", ""),
			BaseURL:        getEnv("QUOTE_API_URL", "https://www.alphavantage.co/query"),
			RequestTimeout: getDuration("QUOTE_REQUEST_TIMEOUT", 15*time.Second),
			InterCallDelay: getDuration("QUOTE_INTER_CALL_DELAY", time.Second),
		},
		Cache: CacheConfig{
			PriceTTL:      getDuration("STOCK_PRICE_CACHE_TTL", 15*time.Minute),
			DetailsTTL:    getDuration("STOCK_DETAILS_CACHE_TTL", 24*time.Hour),
			BulkResultTTL: getDuration("STOCK_BULK_RESULT_TTL", time.Minute),
		},
		Sync: SyncConfig{
			PageSize:         getInt("SYNC_PAGE_SIZE", 100),
			MaxPages:         getInt("SYNC_MAX_PAGES", 30),
			RequestTimeout:   getDuration("SYNC_REQUEST_TIMEOUT", 30*time.Second),
			GoogleBaseURL:    getEnv("GOOGLE_TASKS_API_URL", "https://tasks.googleapis.com/tasks/v1"),
			MicrosoftBaseURL: getEnv("MICROSOFT_TODO_API_URL", "https://graph.microsoft.com/v1.0/me/todo"),
		},
		Dispatch: DispatchConfig{
			BaseURL: getEnv("DISPATCH_BASE_URL", ""),
		},
		Tokens: TokensConfig{
			FernetKey: getEnv("TOKEN_FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	// The dispatcher delivers to this service's own endpoints by default
	if config.Dispatch.BaseURL == "" {
		config.Dispatch.BaseURL = fmt.Sprintf("http://%s", config.Server.Addr)
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getInt gets an integer environment variable or returns a default value
func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration gets a duration environment variable (Go syntax, e.g. "15m")
// or returns a default value
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
