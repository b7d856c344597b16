// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-usage-stats/internal/model"
	"go-usage-stats/pkg/utils"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Source    SourceConfig    `yaml:"source"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Listen is the address passed to the router, e.g. ":8080".
	Listen string `yaml:"listen"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the SQL driver and connection.
type DatabaseConfig struct {
	// Driver is one of sqlite3, mysql, pgx.
	Driver string `yaml:"driver"`

	// DSN is used verbatim when set. When empty, mysql builds it from MySQL
	// and sqlite3 uses DefaultSQLiteDSN. A mysql DSN gets parseTime=true
	// added by the store if it lacks it.
	DSN string `yaml:"dsn"`

	MySQL MySQLConfig `yaml:"mysql"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// MySQLConfig holds discrete MySQL connection settings.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DSN returns the go-sql-driver/mysql data source name.
func (c MySQLConfig) DSN() string {
	return c.Username + ":" + c.Password + "@tcp(" + c.Host + ":" + strconv.Itoa(c.Port) + ")/" +
		c.Database + "?parseTime=true&charset=utf8mb4&loc=UTC"
}

// SourceConfig locates the upstream CSV feeds.
type SourceConfig struct {
	BaseURL                string `yaml:"base_url"`
	MonthlyDownloadsPath   string `yaml:"monthly_downloads_path"`
	MonthlySubmissionsPath string `yaml:"monthly_submissions_path"`
	HourlyPath             string `yaml:"hourly_path"`

	// HourlyDateLayout formats the date query parameter of the hourly feed.
	HourlyDateLayout string `yaml:"hourly_date_layout"`
}

// MonthlyDownloadsURL returns the full monthly downloads URL.
func (s SourceConfig) MonthlyDownloadsURL() string {
	return joinURL(s.BaseURL, s.MonthlyDownloadsPath)
}

// MonthlySubmissionsURL returns the full monthly submissions URL.
func (s SourceConfig) MonthlySubmissionsURL() string {
	return joinURL(s.BaseURL, s.MonthlySubmissionsPath)
}

// HourlyURL returns the hourly feed URL for the UTC date of day.
func (s SourceConfig) HourlyURL(day time.Time) string {
	return joinURL(s.BaseURL, s.HourlyPath) + "?date=" + day.UTC().Format(s.HourlyDateLayout)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// FetchConfig is the retry policy of the CSV fetcher.
type FetchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	Backoff        time.Duration `yaml:"backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// RetryConfig converts the fetch policy for the fetcher.
func (f FetchConfig) RetryConfig() model.RetryConfig {
	return model.RetryConfig{
		MaxAttempts:       f.MaxAttempts,
		InitialDelay:      f.Backoff,
		MaxDelay:          f.MaxBackoff,
		BackoffMultiplier: f.BackoffFactor,
		AttemptTimeout:    f.AttemptTimeout,
	}
}

// SchedulerConfig drives the ingestion loop.
type SchedulerConfig struct {
	// Interval between ticks.
	Interval time.Duration `yaml:"interval"`

	// Baseline seeds both last-run markers. Zero means the first tick
	// runs the monthly and the hourly path.
	Baseline time.Time `yaml:"baseline"`
}

// LoggingConfig configures the logrus logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads a YAML file over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("STATS_DB_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_URI"); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup("STATS_DB_USER"); ok && v != "" {
		c.Database.MySQL.Username = v
	}
	if v, ok := lookup("STATS_DB_PASSWORD"); ok && v != "" {
		c.Database.MySQL.Password = v
	}
	if v, ok := lookup("STATS_BASE_URL"); ok && v != "" {
		c.Source.BaseURL = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Listen = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("STATS_FETCH_TIMEOUT"); ok {
		c.Fetch.AttemptTimeout = utils.ParseDuration(v, c.Fetch.AttemptTimeout)
	}
	if v, ok := lookup("STATS_INTERVAL"); ok {
		c.Scheduler.Interval = utils.ParseDuration(v, c.Scheduler.Interval)
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "mysql", "pgx":
	default:
		return fmt.Errorf("%w: database.driver %q (want sqlite3, mysql or pgx)", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.Driver == "pgx" && c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for %s", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("%w: source.base_url is required", ErrInvalidConfig)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("%w: fetch.max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Fetch.AttemptTimeout <= 0 {
		return fmt.Errorf("%w: fetch.attempt_timeout must be positive", ErrInvalidConfig)
	}
	if c.Fetch.Backoff < 0 {
		return fmt.Errorf("%w: fetch.backoff must not be negative", ErrInvalidConfig)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("%w: scheduler.interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// DatabaseDSN resolves the DSN handed to sql.Open.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "mysql":
		return c.Database.MySQL.DSN()
	case "sqlite3":
		return DefaultSQLiteDSN
	}
	return ""
}
