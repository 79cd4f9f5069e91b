// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsmap/internal/geo"
)

var allEnvVars = []string{
	"APP_HOST", "APP_PORT", "APP_ENV", "LOG_LEVEL",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"CACHE_REVALIDATE", "UPSTREAM_TIMEOUT", "RECENT_WINDOW_DAYS", "RECENT_LIMIT",
	"ARTICLE_PAGE_SIZE", "REVALIDATE_TOKEN",
	"WEIGHTING_FILE", "DOT_MIN_HUE", "DOT_MAX_HUE", "DOT_MIN_ALPHA", "DOT_MAX_ALPHA", "DOT_DECAY_DAYS",
	"CORS_ORIGINS", "HTTP_MAX_AGE", "NATS_URL", "NATS_SUBJECT",
	"WARM_SCHEDULE", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "SNAPSHOT_KEY",
}

// clearEnv sets every variable Load reads to empty, which envOrDefault
// treats the same as unset. t.Setenv restores the values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}

	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("DBUser", cfg.DBUser, "newsmap")
	check("DBName", cfg.DBName, "newsmap")
	check("ValkeyHost", cfg.ValkeyHost, "")
	check("ValkeyPort", cfg.ValkeyPort, "6379")
	check("NATSSubject", cfg.NATSSubject, "newsmap.ingest.completed")
	check("WarmSchedule", cfg.WarmSchedule, "@every 10m")
	check("SnapshotKey", cfg.SnapshotKey, "snapshots/locations.geojson")

	if cfg.CacheRevalidate != 15*time.Minute {
		t.Errorf("CacheRevalidate = %v, want 15m", cfg.CacheRevalidate)
	}
	if cfg.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.PageSize)
	}
	if cfg.RecentLimit != geo.DefaultRecentLimit {
		t.Errorf("RecentLimit = %d, want %d", cfg.RecentLimit, geo.DefaultRecentLimit)
	}
	if cfg.Palette != geo.DefaultPalette() {
		t.Errorf("Palette = %+v, want default", cfg.Palette)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.HTTPMaxAge != time.Minute {
		t.Errorf("HTTPMaxAge = %v, want 1m", cfg.HTTPMaxAge)
	}
	if cfg.UseValkey() {
		t.Error("UseValkey should be false without VALKEY_HOST")
	}
	if cfg.SnapshotsEnabled() {
		t.Error("SnapshotsEnabled should be false without S3 settings")
	}
}

// TestLoad_EnvOverrides verifies that environment variables override defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"APP_PORT":           "9090",
		"APP_ENV":            "testing",
		"POSTGRES_HOST":      "db.example.com",
		"VALKEY_HOST":        "cache.example.com",
		"CACHE_REVALIDATE":   "30m",
		"UPSTREAM_TIMEOUT":   "3s",
		"RECENT_LIMIT":       "11",
		"ARTICLE_PAGE_SIZE":  "50",
		"DOT_DECAY_DAYS":     "2",
		"CORS_ORIGINS":       "https://map.example.com, https://www.example.com",
		"NATS_URL":           "nats://nats:4222",
		"S3_ENDPOINT":        "https://s3.example.com",
		"S3_ACCESS_KEY":      "AKIATEST",
		"S3_SECRET_KEY":      "secrettest",
		"RECENT_WINDOW_DAYS": "not-a-number",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Port != "9090" || cfg.Env != "testing" || cfg.DBHost != "db.example.com" {
		t.Errorf("server/db overrides not applied: %+v", cfg)
	}
	if !cfg.UseValkey() {
		t.Error("UseValkey should be true with VALKEY_HOST")
	}
	if cfg.CacheRevalidate != 30*time.Minute {
		t.Errorf("CacheRevalidate = %v, want 30m", cfg.CacheRevalidate)
	}
	if cfg.UpstreamTimeout != 3*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 3s", cfg.UpstreamTimeout)
	}
	if cfg.RecentLimit != 11 || cfg.PageSize != 50 {
		t.Errorf("RecentLimit/PageSize = %d/%d, want 11/50", cfg.RecentLimit, cfg.PageSize)
	}
	if cfg.RecentWindowDays != 7 {
		t.Errorf("RecentWindowDays = %d, want default 7 for invalid input", cfg.RecentWindowDays)
	}
	if cfg.Palette.DecayDays != 2 {
		t.Errorf("DecayDays = %v, want 2", cfg.Palette.DecayDays)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://www.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.SnapshotsEnabled() {
		t.Error("SnapshotsEnabled should be true with S3 settings")
	}
}

func TestLoad_WeightingFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "weighting.yaml")
	body := "palette:\n  min_hue: 180\n  max_hue: 280\n  decay_days: 2.5\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("WEIGHTING_FILE", path)
	t.Setenv("DOT_MAX_ALPHA", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := cfg.Palette
	if p.MinHue != 180 || p.MaxHue != 280 || p.DecayDays != 2.5 {
		t.Errorf("file values not applied: %+v", p)
	}
	if p.MinAlpha != geo.DefaultPalette().MinAlpha {
		t.Errorf("MinAlpha = %v, want default for a key missing from the file", p.MinAlpha)
	}
	if p.MaxAlpha != 0.75 {
		t.Errorf("MaxAlpha = %v, want env override 0.75", p.MaxAlpha)
	}
}

func TestLoad_WeightingFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WEIGHTING_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil {
			t.Error("expected error for missing weighting file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(path, []byte("palette: [unterminated"), 0o600)
		t.Setenv("WEIGHTING_FILE", path)
		if _, err := Load(); err == nil {
			t.Error("expected error for malformed weighting file")
		}
	})
}

// TestLoad_ProductionRequiresPassword verifies that production mode rejects
// the default "changeme" password and accepts a real one.
func TestLoad_ProductionRequiresPassword(t *testing.T) {
	t.Run("rejects default password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for default password in production")
		}
		if !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
			t.Errorf("error should mention POSTGRES_PASSWORD, got: %v", err)
		}
	})

	t.Run("accepts real password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cure")

		if _, err := Load(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLoad_RejectsNonPositivePageSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARTICLE_PAGE_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for ARTICLE_PAGE_SIZE=0")
	}
}

func TestDSNAndAddr(t *testing.T) {
	cfg := &Config{
		Host: "127.0.0.1", Port: "8080",
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d",
	}
	if got := cfg.DSN(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Errorf("DSN = %q", got)
	}
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"bogus":   slog.LevelDebug,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
