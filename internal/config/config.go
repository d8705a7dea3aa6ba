package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/teamdocs/rag-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Vector index configuration
	QdrantCfg QdrantConfig `envPrefix:"QDRANT_"`

	// External service configurations
	EmbeddingCfg  EmbeddingConfig  `envPrefix:"EMBEDDING_"`
	CompletionCfg CompletionConfig `envPrefix:"COMPLETION_"`
	ExtractorCfg  ExtractorConfig  `envPrefix:"EXTRACTOR_"`

	// Admission control configuration
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Ingestion and retrieval tuning
	ChunkSize   int `env:"CHUNK_SIZE" envDefault:"500"`
	SearchLimit int `env:"SEARCH_LIMIT" envDefault:"15"`

	// File upload configuration
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"16777216"` // 16 MiB

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Environment (set from flag, not from env var)
	Environment string
}

// QdrantConfig holds vector index connection and collection settings
type QdrantConfig struct {
	HTTPClientConfig
	Collection string `env:"COLLECTION" envDefault:"pdf_embeddings"`
	Dimension  int    `env:"DIMENSION,notEmpty"`
	// RecreateCollection drops and rebuilds the collection at startup.
	// Destructive; never enable against an instance holding live data.
	RecreateCollection bool `env:"RECREATE_COLLECTION" envDefault:"false"`
}

// EmbeddingConfig holds embedding backend settings
type EmbeddingConfig struct {
	HTTPClientConfig
	Model    string               `env:"MODEL,notEmpty"`
	CacheTTL time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Workers  int                  `env:"WORKERS" envDefault:"4"`
	Retry    pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// CompletionConfig holds completion backend settings
type CompletionConfig struct {
	HTTPClientConfig
	Model       string  `env:"MODEL,notEmpty"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"1000"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.2"`
}

// ExtractorConfig holds page extraction service settings
type ExtractorConfig struct {
	HTTPClientConfig
	ExtractEndpoint string `env:"EXTRACT_ENDPOINT,notEmpty"`
}

// RateLimitConfig holds the per-team sliding window parameters
type RateLimitConfig struct {
	Window      time.Duration `env:"WINDOW" envDefault:"60s"`
	MaxRequests int           `env:"MAX_REQUESTS" envDefault:"100"`
}

// HTTPClientConfig holds per-connector HTTP client settings
type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	MaxIdleConnsPerHost   int           `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize))
	}

	if cfg.SearchLimit < 1 || cfg.SearchLimit > 100 {
		errors = append(errors, fmt.Sprintf("SEARCH_LIMIT must be between 1 and 100, got %d", cfg.SearchLimit))
	}

	if cfg.QdrantCfg.Dimension < 1 {
		errors = append(errors, fmt.Sprintf("QDRANT_DIMENSION must be positive, got %d", cfg.QdrantCfg.Dimension))
	}

	if cfg.RateLimitCfg.Window < time.Second {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_WINDOW must be at least 1s, got %s", cfg.RateLimitCfg.Window))
	}

	if cfg.RateLimitCfg.MaxRequests < 1 || cfg.RateLimitCfg.MaxRequests > 10000 {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_MAX_REQUESTS must be between 1 and 10000, got %d", cfg.RateLimitCfg.MaxRequests))
	}

	if cfg.EmbeddingCfg.Workers < 1 || cfg.EmbeddingCfg.Workers > 64 {
		errors = append(errors, fmt.Sprintf("EMBEDDING_WORKERS must be between 1 and 64, got %d", cfg.EmbeddingCfg.Workers))
	}

	if cfg.CompletionCfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("COMPLETION_MAX_TOKENS must be positive, got %d", cfg.CompletionCfg.MaxTokens))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
