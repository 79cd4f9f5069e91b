// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"newsmap/internal/geo"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache). An empty host selects the in-memory cache.
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Response cache and upstream behaviour
	CacheRevalidate  time.Duration
	UpstreamTimeout  time.Duration
	RecentWindowDays int
	RecentLimit      int
	PageSize         int
	RevalidateToken  string

	// Map weighting
	Palette       geo.Palette
	WeightingFile string

	// Public API
	CORSOrigins []string
	HTTPMaxAge  time.Duration

	// Ingestion events (NATS). Empty URL disables the subscriber.
	NATSURL     string
	NATSSubject string

	// Scheduled warm-up and snapshot upload
	WarmSchedule string
	S3Endpoint   string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	SnapshotKey  string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first if present. Returns an error if critical values are
// missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "debug"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "newsmap"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "newsmap"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		CacheRevalidate:  envDuration("CACHE_REVALIDATE", 15*time.Minute),
		UpstreamTimeout:  envDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		RecentWindowDays: envInt("RECENT_WINDOW_DAYS", 7),
		RecentLimit:      envInt("RECENT_LIMIT", geo.DefaultRecentLimit),
		PageSize:         envInt("ARTICLE_PAGE_SIZE", 20),
		RevalidateToken:  os.Getenv("REVALIDATE_TOKEN"),

		WeightingFile: os.Getenv("WEIGHTING_FILE"),

		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
		HTTPMaxAge:  envDuration("HTTP_MAX_AGE", time.Minute),

		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: envOrDefault("NATS_SUBJECT", "newsmap.ingest.completed"),

		WarmSchedule: envOrDefault("WARM_SCHEDULE", "@every 10m"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3Region:     envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3Bucket:     envOrDefault("S3_BUCKET", "newsmap-public"),
		SnapshotKey:  envOrDefault("SNAPSHOT_KEY", "snapshots/locations.geojson"),
	}

	palette, err := loadPalette(cfg.WeightingFile)
	if err != nil {
		return nil, err
	}
	cfg.Palette = palette

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("ARTICLE_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}

	return cfg, nil
}

// loadPalette starts from the default palette, overlays the YAML tuning file
// if one is configured, then applies individual env overrides.
func loadPalette(path string) (geo.Palette, error) {
	p := geo.DefaultPalette()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read weighting file: %w", err)
		}
		var file struct {
			Palette geo.Palette `yaml:"palette"`
		}
		file.Palette = p
		if err := yaml.Unmarshal(data, &file); err != nil {
			return p, fmt.Errorf("parse weighting file: %w", err)
		}
		p = file.Palette
	}

	p.MinHue = envFloat("DOT_MIN_HUE", p.MinHue)
	p.MaxHue = envFloat("DOT_MAX_HUE", p.MaxHue)
	p.MinAlpha = envFloat("DOT_MIN_ALPHA", p.MinAlpha)
	p.MaxAlpha = envFloat("DOT_MAX_ALPHA", p.MaxAlpha)
	p.DecayDays = envFloat("DOT_DECAY_DAYS", p.DecayDays)

	return p.Sanitize(), nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UseValkey reports whether a Valkey host is configured.
func (c *Config) UseValkey() bool {
	return c.ValkeyHost != ""
}

// SnapshotsEnabled reports whether object storage is configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels. Unknown values
// fall back to debug.
func ParseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
