package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.MaxAttempts != DefaultFetchAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.Fetch.MaxAttempts, DefaultFetchAttempts)
	}
	if cfg.Fetch.AttemptTimeout != DefaultAttemptTimeout {
		t.Errorf("AttemptTimeout = %v, want %v", cfg.Fetch.AttemptTimeout, DefaultAttemptTimeout)
	}
	if cfg.Scheduler.Interval != time.Hour {
		t.Errorf("Interval = %v, want 1h", cfg.Scheduler.Interval)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  listen: ":9090"
database:
  driver: mysql
  mysql:
    host: db.internal
    port: 3307
    database: stats
    username: reader
    password: secret
fetch:
  max_attempts: 3
  backoff: 500ms
  attempt_timeout: 1s
scheduler:
  interval: 15m
  baseline: 2024-07-01T00:00:00Z
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Fetch.MaxAttempts != 3 || cfg.Fetch.Backoff != 500*time.Millisecond {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Errorf("Interval = %v", cfg.Scheduler.Interval)
	}
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.Scheduler.Baseline.Equal(want) {
		t.Errorf("Baseline = %v, want %v", cfg.Scheduler.Baseline, want)
	}
	// Untouched sections keep their defaults.
	if cfg.Source.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.Source.BaseURL)
	}

	wantDSN := "reader:secret@tcp(db.internal:3307)/stats?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.DatabaseDSN(); got != wantDSN {
		t.Errorf("DatabaseDSN = %q, want %q", got, wantDSN)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URI":        "postgres://u:p@localhost:5432/test_db",
		"STATS_DB_DRIVER":     "pgx",
		"PORT":                "8081",
		"LOG_LEVEL":           "debug",
		"STATS_BASE_URL":      "http://localhost:9999/stats",
		"STATS_INTERVAL":      "30m",
		"STATS_FETCH_TIMEOUT": "fast",
	}))

	if cfg.Database.Driver != "pgx" || cfg.DatabaseDSN() != "postgres://u:p@localhost:5432/test_db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.Listen != ":8081" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Source.BaseURL != "http://localhost:9999/stats" {
		t.Errorf("BaseURL = %q", cfg.Source.BaseURL)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("Interval = %v", cfg.Scheduler.Interval)
	}
	// Unparseable durations keep the current setting.
	if cfg.Fetch.AttemptTimeout != DefaultAttemptTimeout {
		t.Errorf("AttemptTimeout = %v", cfg.Fetch.AttemptTimeout)
	}
}

func TestDatabaseDSNFromEnvOnly(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"STATS_DB_DRIVER":   "mysql",
		"STATS_DB_USER":     "reader",
		"STATS_DB_PASSWORD": "secret",
	}))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := "reader:secret@tcp(127.0.0.1:3306)/test_db?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN = %q, want %q", got, want)
	}
}

func TestDatabaseDSNDefaults(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		want   string
	}{
		{"sqlite default file", "sqlite3", "", DefaultSQLiteDSN},
		{"sqlite explicit", "sqlite3", "/var/lib/stats.db", "/var/lib/stats.db"},
		{"mysql explicit", "mysql", "u:p@tcp(db:3306)/stats", "u:p@tcp(db:3306)/stats"},
		{"pgx explicit", "pgx", "postgres://u@db/stats", "postgres://u@db/stats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Database.Driver = tt.driver
			cfg.Database.DSN = tt.dsn
			if got := cfg.DatabaseDSN(); got != tt.want {
				t.Errorf("DatabaseDSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchRetryConfig(t *testing.T) {
	rc := Default().Fetch.RetryConfig()
	if rc.MaxAttempts != 2 || rc.AttemptTimeout != 4*time.Second {
		t.Errorf("RetryConfig = %+v", rc)
	}
	if got := rc.Delay(1); got != 2*time.Second {
		t.Errorf("Delay(1) = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"pgx without dsn", func(c *Config) { c.Database.Driver = "pgx" }},
		{"no base url", func(c *Config) { c.Source.BaseURL = "" }},
		{"zero attempts", func(c *Config) { c.Fetch.MaxAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.Fetch.AttemptTimeout = 0 }},
		{"negative backoff", func(c *Config) { c.Fetch.Backoff = -time.Second }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSourceURLs(t *testing.T) {
	s := Default().Source
	s.BaseURL = "https://example.org/stats/"

	if got := s.MonthlyDownloadsURL(); got != "https://example.org/stats/get_monthly_downloads" {
		t.Errorf("MonthlyDownloadsURL = %q", got)
	}
	if got := s.MonthlySubmissionsURL(); got != "https://example.org/stats/get_monthly_submissions" {
		t.Errorf("MonthlySubmissionsURL = %q", got)
	}
	day := time.Date(2024, 7, 19, 23, 30, 0, 0, time.UTC)
	if got := s.HourlyURL(day); got != "https://example.org/stats/get_hourly?date=20240719" {
		t.Errorf("HourlyURL = %q", got)
	}
}
