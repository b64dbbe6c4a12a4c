// Package history persiste el resultado de cada corrida en Postgres. Un fallo
// acá nunca voltea la corrida: el runner lo trata como best effort.
package history

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/zskroll/internal/observability/logger"
	"github.com/dropDatabas3/zskroll/internal/rollover"
	migrations "github.com/dropDatabas3/zskroll/migrations/postgres"
)

// Store implementa rollover.History sobre un pool pgx.
type Store struct{ pool *pgxpool.Pool }

// New abre el pool y verifica la conexión. Pool chico: este proceso escribe una
// fila por corrida, no necesita más.
func New(ctx context.Context, dsn string) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("history: parse dsn: %w", err)
	}
	if pcfg.MaxConns == 0 || pcfg.MaxConns > 4 {
		pcfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("history: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate aplica las migraciones embebidas en orden lexicográfico. Los scripts
// son idempotentes (IF NOT EXISTS), así que correrlas de nuevo es inocuo.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return fmt.Errorf("history: list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("history: read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("history: apply migration %s: %w", name, err)
		}
		logger.L().Debug("migration applied", logger.String("file", name))
	}
	return nil
}

// Record inserta la fila de la corrida.
func (s *Store) Record(ctx context.Context, rec rollover.RunRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rollover_runs
			(run_id, domain, outcome, dry_run, planned, applied, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.RunID, rec.Domain, rec.Outcome, rec.DryRun,
		rec.Planned, rec.Applied, rec.Error, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", rec.RunID, err)
	}
	return nil
}

// Recent devuelve las últimas corridas del dominio, más nuevas primero.
func (s *Store) Recent(ctx context.Context, domain string, limit int) ([]rollover.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, domain, outcome, dry_run, planned, applied, error, started_at, finished_at
		FROM rollover_runs
		WHERE domain = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		domain, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var out []rollover.RunRecord
	for rows.Next() {
		var rec rollover.RunRecord
		var started, finished time.Time
		if err := rows.Scan(
			&rec.RunID, &rec.Domain, &rec.Outcome, &rec.DryRun,
			&rec.Planned, &rec.Applied, &rec.Error, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		rec.StartedAt, rec.FinishedAt = started, finished
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
