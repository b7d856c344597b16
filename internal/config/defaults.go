package config

import "time"

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultListen is the HTTP listen address. Override: server.listen or PORT.
	DefaultListen = ":8080"

	// DefaultBaseURL is the statistics site serving the CSV feeds.
	DefaultBaseURL = "https://arxiv.org/stats"

	// DefaultHourlyDateLayout matches the hourly feed's date parameter.
	DefaultHourlyDateLayout = "20060102"

	// DefaultFetchAttempts is the total number of tries per fetch.
	DefaultFetchAttempts = 2

	// DefaultFetchBackoff is the fixed wait after a timed out attempt.
	DefaultFetchBackoff = 2 * time.Second

	// DefaultAttemptTimeout bounds a single GET.
	DefaultAttemptTimeout = 4 * time.Second

	// DefaultSchedulerInterval is the tick cadence of the ingestion loop.
	DefaultSchedulerInterval = time.Hour

	// DefaultSQLiteDSN is the database file used when driver is sqlite3 and
	// no dsn is configured.
	DefaultSQLiteDSN = "usage_stats.db"
)

// Default returns a Config usable for local development against sqlite.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			MySQL: MySQLConfig{
				Host:     "127.0.0.1",
				Port:     3306,
				Database: "test_db",
			},
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Source: SourceConfig{
			BaseURL:                DefaultBaseURL,
			MonthlyDownloadsPath:   "get_monthly_downloads",
			MonthlySubmissionsPath: "get_monthly_submissions",
			HourlyPath:             "get_hourly",
			HourlyDateLayout:       DefaultHourlyDateLayout,
		},
		Fetch: FetchConfig{
			MaxAttempts:    DefaultFetchAttempts,
			Backoff:        DefaultFetchBackoff,
			MaxBackoff:     DefaultFetchBackoff,
			BackoffFactor:  1,
			AttemptTimeout: DefaultAttemptTimeout,
		},
		Scheduler: SchedulerConfig{
			Interval: DefaultSchedulerInterval,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
