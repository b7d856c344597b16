// Package store persists extraction task rows and the ingestion audit log
// in sqlite3, MySQL or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"go-usage-stats/internal/config"
	"go-usage-stats/internal/logging"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrInvalidResult means a result document failed validation on its way
	// into or out of the database.
	ErrInvalidResult = errors.New("invalid result document")
)

// Config selects the driver and connection pool.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FromConfig maps the database section of the service configuration.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

// dialect holds the per-driver SQL differences.
type dialect struct {
	name string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	// INSERT ... RETURNING id instead of LastInsertId
	returning bool
	schema    []string
}

var dialects = map[string]dialect{
	"sqlite3": {
		name: "sqlite3",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS extraction_task (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL,
				task_type TEXT NOT NULL,
				status INTEGER NOT NULL,
				result TEXT NOT NULL,
				created_time DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_extraction_task_type ON extraction_task (task_type, id)`,
			`CREATE TABLE IF NOT EXISTS ingest_run (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL,
				path TEXT NOT NULL,
				task_type TEXT NOT NULL,
				outcome TEXT NOT NULL,
				rows_added INTEGER NOT NULL,
				error TEXT NOT NULL,
				started_at DATETIME NOT NULL,
				finished_at DATETIME NOT NULL
			)`,
		},
	},
	"mysql": {
		name: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS extraction_task (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id VARCHAR(36) NOT NULL,
				task_type VARCHAR(64) NOT NULL,
				status TINYINT NOT NULL,
				result LONGTEXT NOT NULL,
				created_time DATETIME(6) NOT NULL,
				INDEX idx_extraction_task_type (task_type, id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS ingest_run (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id VARCHAR(36) NOT NULL,
				path VARCHAR(16) NOT NULL,
				task_type VARCHAR(64) NOT NULL,
				outcome VARCHAR(16) NOT NULL,
				rows_added INT NOT NULL,
				error TEXT NOT NULL,
				started_at DATETIME(6) NOT NULL,
				finished_at DATETIME(6) NOT NULL,
				INDEX idx_ingest_run_started (started_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	"pgx": {
		name:      "pgx",
		numbered:  true,
		returning: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS extraction_task (
				id BIGSERIAL PRIMARY KEY,
				run_id TEXT NOT NULL,
				task_type TEXT NOT NULL,
				status SMALLINT NOT NULL,
				result TEXT NOT NULL,
				created_time TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_extraction_task_type ON extraction_task (task_type, id)`,
			`CREATE TABLE IF NOT EXISTS ingest_run (
				id BIGSERIAL PRIMARY KEY,
				run_id TEXT NOT NULL,
				path TEXT NOT NULL,
				task_type TEXT NOT NULL,
				outcome TEXT NOT NULL,
				rows_added INTEGER NOT NULL,
				error TEXT NOT NULL,
				started_at TIMESTAMPTZ NOT NULL,
				finished_at TIMESTAMPTZ NOT NULL
			)`,
		},
	},
}

// Store is the SQL-backed task store.
type Store struct {
	db      *sql.DB
	dialect dialect
	log     *logrus.Entry
}

// Open connects, applies the pool settings and pings the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if _, ok := dialects[cfg.Driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	dsn, err := driverDSN(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}

	// Apply connection pool settings
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	return New(db, cfg.Driver)
}

// driverDSN adjusts dsn for the driver. MySQL needs parseTime so that
// created_time scans into time.Time.
func driverDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if mc.ParseTime {
		return dsn, nil
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// New wraps an open *sql.DB speaking the given driver's dialect.
func New(db *sql.DB, driver string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &Store{
		db:      db,
		dialect: d,
		log:     logging.Component("store").WithField("driver", driver),
	}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Debug("schema ready")
	return nil
}

// Health pings the database.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// TransactionContext runs fn in a transaction, committing when fn returns
// nil and rolling back otherwise.
func (s *Store) TransactionContext(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders for drivers that number them.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
