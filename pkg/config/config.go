package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Ingest        IngestConfig
	Gemini        GeminiConfig
	Inbox         InboxConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	MaxUploadBytes     int64
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// IngestConfig drives the normalization and categorization pipeline.
type IngestConfig struct {
	FormatsDir   string
	KeywordsFile string
	RulesFile    string // empty means the built-in override tables

	Mode              string // ml | fuzzy
	Backend           string // bayes | gemini
	BatchSize         int
	Concurrency       int
	FuzzyThreshold    int
	ClassifierTimeout time.Duration
	ClassifierRate    float64
	FailurePolicy     string // degrade | fail
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type InboxConfig struct {
	Enabled  bool
	Dir      string
	Schedule string
}

// StorageConfig controls archiving of uploaded statement files.
type StorageConfig struct {
	Enabled   bool
	LocalPath string
}

type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 10<<20)),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", true),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Ingest: IngestConfig{
			FormatsDir:        getEnv("FORMATS_DIR", "configs/formats"),
			KeywordsFile:      getEnv("KEYWORDS_FILE", "configs/keywords.yaml"),
			RulesFile:         getEnv("RULES_FILE", ""),
			Mode:              getEnv("CATEGORIZATION_MODE", "ml"),
			Backend:           getEnv("CLASSIFIER_BACKEND", "bayes"),
			BatchSize:         getEnvAsInt("CLASSIFIER_BATCH_SIZE", 16),
			Concurrency:       getEnvAsInt("CLASSIFIER_CONCURRENCY", 4),
			FuzzyThreshold:    getEnvAsInt("FUZZY_THRESHOLD", 80),
			ClassifierTimeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
			ClassifierRate:    getEnvAsFloat("CLASSIFIER_RATE_PER_SECOND", 0),
			FailurePolicy:     getEnv("CLASSIFIER_FAILURE_POLICY", "degrade"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Inbox: InboxConfig{
			Enabled:  getEnvAsBool("INBOX_ENABLED", false),
			Dir:      getEnv("INBOX_DIR", "inbox"),
			Schedule: getEnv("INBOX_SCHEDULE", "*/5 * * * *"),
		},
		Storage: StorageConfig{
			Enabled:   getEnvAsBool("STORAGE_ENABLED", false),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Ingest.Mode {
	case "ml", "fuzzy":
	default:
		errs = append(errs, fmt.Errorf("CATEGORIZATION_MODE must be ml or fuzzy, got %q", c.Ingest.Mode))
	}
	switch c.Ingest.FailurePolicy {
	case "degrade", "fail":
	default:
		errs = append(errs, fmt.Errorf("CLASSIFIER_FAILURE_POLICY must be degrade or fail, got %q", c.Ingest.FailurePolicy))
	}
	if c.Ingest.Mode == "ml" {
		switch c.Ingest.Backend {
		case "bayes":
		case "gemini":
			if c.Gemini.APIKey == "" {
				errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("CLASSIFIER_BACKEND must be bayes or gemini, got %q", c.Ingest.Backend))
		}
	}
	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_BATCH_SIZE must be positive"))
	}
	if c.Ingest.Concurrency <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_CONCURRENCY must be positive"))
	}
	if c.Ingest.FuzzyThreshold < 0 || c.Ingest.FuzzyThreshold > 100 {
		errs = append(errs, errors.New("FUZZY_THRESHOLD must be between 0 and 100"))
	}
	if c.Ingest.ClassifierTimeout <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_TIMEOUT must be positive"))
	}
	if c.Ingest.FormatsDir == "" {
		errs = append(errs, errors.New("FORMATS_DIR is required"))
	}
	return errors.Join(errs...)
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
