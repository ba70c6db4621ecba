// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "indexnow_submissions"

// SubmissionStoreConfig controls the Postgres connection pool used for audit rows.
type SubmissionStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// IDGenerator produces row identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// SubmissionStore writes one row per outbound IndexNow submission. It
// implements indexnow.Recorder.
type SubmissionStore struct {
	pool  execCloser
	table string
	ids   IDGenerator
}

// NewSubmissionStore creates a Postgres-backed SubmissionStore using the provided config.
func NewSubmissionStore(ctx context.Context, cfg SubmissionStoreConfig, ids IDGenerator) (*SubmissionStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewSubmissionStoreWithPool(pool, table, ids)
}

// NewSubmissionStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewSubmissionStoreWithPool(pool execCloser, table string, ids IDGenerator) (*SubmissionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &SubmissionStore{pool: pool, table: name, ids: ids}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *SubmissionStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the audit table when it does not exist.
func (s *SubmissionStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id            uuid PRIMARY KEY,
	submitted_at  timestamptz NOT NULL,
	endpoint      text NOT NULL,
	host          text NOT NULL,
	url_list      jsonb NOT NULL,
	url_count     integer NOT NULL,
	status_code   integer NOT NULL,
	error_text    text NOT NULL DEFAULT '',
	duration_ms   bigint NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// RecordSubmission inserts an audit row for attempt.
func (s *SubmissionStore) RecordSubmission(ctx context.Context, attempt indexnow.Attempt) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("submission store is not configured")
	}
	id, err := s.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate submission id: %w", err)
	}
	urls := attempt.URLs
	if urls == nil {
		urls = []string{}
	}
	urlsJSON, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal url list: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	submitted_at,
	endpoint,
	host,
	url_list,
	url_count,
	status_code,
	error_text,
	duration_ms
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		id,
		attempt.SubmittedAt,
		attempt.Endpoint,
		attempt.Host,
		urlsJSON,
		len(urls),
		attempt.StatusCode,
		attempt.Error,
		attempt.Duration.Milliseconds(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}
