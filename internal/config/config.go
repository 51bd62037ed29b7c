package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server and CLI
type Config struct {
	Port string
	Env  string // development, staging, production

	Database DatabaseConfig

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins []string
	FrontendDistPath   string

	GradingCacheSize int
	GradingCacheTTL  time.Duration

	// ListRateLimit is requests per second for the list endpoint
	ListRateLimit float64
	ListRateBurst int

	MetricsEnabled bool
}

// DatabaseConfig selects the gorm driver. Path is used by sqlite, URL by the others.
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

// Load reads configuration from the environment, loading .env first when present
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:   getEnv("DB_PATH", "./arbitrage.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		FrontendDistPath:   getEnv("FRONTEND_DIST_PATH", ""),

		GradingCacheSize: getEnvAsInt("GRADING_CACHE_SIZE", 512),
		GradingCacheTTL:  getEnvAsDuration("GRADING_CACHE_TTL", "10m"),

		ListRateLimit: getEnvAsFloat("LIST_RATE_LIMIT", 5),
		ListRateBurst: getEnvAsInt("LIST_RATE_BURST", 10),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres", "mysql":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}
	return nil
}

// IsProduction reports whether ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	d, err := time.ParseDuration(valueStr)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
