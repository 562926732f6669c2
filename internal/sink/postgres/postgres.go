package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
)

// SchemaSQL creates the results table on a fresh database.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS ping_results (
  id          BIGSERIAL PRIMARY KEY,
  target      TEXT NOT NULL,
  latency_ms  DOUBLE PRECISION NULL,
  status      TEXT NOT NULL,
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ping_results_target_time ON ping_results (target, checked_at DESC);
`

// Store writes every cycle into ping_results inside one transaction.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	ping := func() error {
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(ctxPing)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	notify := func(err error, wait time.Duration) {
		log.Warn("postgres_ping_retry", zap.Error(err), zap.Duration("wait", wait))
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Write(ctx context.Context, report domain.CycleReport) error {
	if len(report.Results) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(report.Results))
	at := report.At.UTC()
	for _, r := range report.Results {
		var lat *float64
		if ms, ok := r.LatencyMS(); ok {
			lat = &ms
		}
		rows = append(rows, []any{string(r.Target), lat, string(r.Status), at})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"ping_results"},
		[]string{"target", "latency_ms", "status", "checked_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy results: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Latest returns the most recent row for every target.
func (s *Store) Latest(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (target)
       target,
       latency_ms,
       status,
       checked_at
  FROM ping_results
 ORDER BY target, checked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryEntry
	for rows.Next() {
		var (
			target    string
			latency   sql.NullFloat64
			status    string
			checkedAt time.Time
		)
		if err := rows.Scan(&target, &latency, &status, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		e := domain.HistoryEntry{
			At:     checkedAt,
			Target: domain.Target(target),
			Status: domain.Status(status),
		}
		if latency.Valid {
			e.Responded = true
			e.Latency = time.Duration(latency.Float64 * float64(time.Millisecond))
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
