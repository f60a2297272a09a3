// Package history provides the append-only Postgres run log. The dataset
// file keeps only the latest record per source; history keeps every run's
// outcome so week-over-week trends survive the overwrite.
package history

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for the run log.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Log appends per-source run rows to Postgres.
//
// Expected schema:
//
//	CREATE TABLE source_history (
//	    run_id UUID NOT NULL,
//	    run_at TIMESTAMPTZ NOT NULL,
//	    source TEXT NOT NULL,
//	    ok BOOLEAN NOT NULL,
//	    ytd INTEGER,
//	    prior INTEGER,
//	    as_of DATE,
//	    error TEXT,
//	    PRIMARY KEY (run_id, source)
//	);
type Log struct {
	pool  execCloser
	table string
}

// New creates a Postgres-backed run log using the provided config.
func New(ctx context.Context, cfg Config) (*Log, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "source_history"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Log{pool: pool, table: table}, nil
}

// NewWithPool constructs a log from an existing pool (primarily for testing).
func NewWithPool(pool execCloser, table string) (*Log, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "source_history"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Log{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (l *Log) Close() {
	if l == nil || l.pool == nil {
		return
	}
	l.pool.Close()
}

// AppendRun inserts one row per source. Rows are written in sorted source
// order so a partial failure is deterministic.
func (l *Log) AppendRun(ctx context.Context, runID string, at time.Time, records map[string]dashboard.SourceRecord) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("history log is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	run_at,
	source,
	ok,
	ytd,
	prior,
	as_of,
	error
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, l.table)

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := records[name]
		var errText any
		if rec.Error != "" {
			errText = rec.Error
		}
		if _, err := l.pool.Exec(ctx, query,
			runID,
			at,
			name,
			rec.OK,
			rec.YTD,
			rec.Prior,
			rec.AsOf,
			errText,
		); err != nil {
			return fmt.Errorf("insert history row for %s: %w", name, err)
		}
	}
	return nil
}
