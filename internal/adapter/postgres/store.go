// Package postgres persists analysis run summaries and hotspots so operators
// can query run history with plain SQL after the in-memory result has been
// replaced by a newer run.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id        TEXT PRIMARY KEY,
	generated_at  TIMESTAMPTZ NOT NULL,
	sensor_count  INTEGER NOT NULL,
	report_count  INTEGER NOT NULL,
	hotspot_count INTEGER NOT NULL,
	anomaly_count INTEGER NOT NULL,
	skipped_rows  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS hotspots (
	run_id        TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
	hotspot_id    TEXT NOT NULL,
	rank          INTEGER NOT NULL,
	lat           DOUBLE PRECISION NOT NULL,
	lon           DOUBLE PRECISION NOT NULL,
	member_count  INTEGER NOT NULL,
	mean_severity DOUBLE PRECISION NOT NULL,
	max_severity  DOUBLE PRECISION NOT NULL,
	risk_level    TEXT NOT NULL,
	analysis      JSONB NOT NULL,
	PRIMARY KEY (run_id, hotspot_id)
);
`

// Store writes analysis runs to Postgres.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New connects to Postgres and ensures the schema exists.
func New(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// SaveResult stores the run summary and its hotspots in one transaction.
// Re-saving the same run ID replaces its hotspots, which keeps retries after
// partial failures safe.
func (s *Store) SaveResult(ctx context.Context, result *domain.Result) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	skipped := result.Skipped.SensorRows + result.Skipped.InfraRows + result.Skipped.RideRows
	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, generated_at, sensor_count, report_count, hotspot_count, anomaly_count, skipped_rows)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			sensor_count = EXCLUDED.sensor_count,
			report_count = EXCLUDED.report_count,
			hotspot_count = EXCLUDED.hotspot_count,
			anomaly_count = EXCLUDED.anomaly_count,
			skipped_rows = EXCLUDED.skipped_rows`,
		result.RunID, result.GeneratedAt, result.SensorCount, result.ReportCount,
		len(result.Hotspots), result.AnomalyCount, skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM hotspots WHERE run_id = $1`, result.RunID); err != nil {
		return fmt.Errorf("clear hotspots: %w", err)
	}

	for rank, a := range result.Hotspots {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal hotspot %s: %w", a.Hotspot.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hotspots (run_id, hotspot_id, rank, lat, lon, member_count, mean_severity, max_severity, risk_level, analysis)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			result.RunID, a.Hotspot.ID, rank,
			a.Hotspot.Centroid.Lat, a.Hotspot.Centroid.Lon,
			a.Hotspot.MemberCount, a.Hotspot.MeanSeverity, a.Hotspot.MaxSeverity,
			a.Hotspot.RiskLevel, payload,
		)
		if err != nil {
			return fmt.Errorf("insert hotspot %s: %w", a.Hotspot.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	s.logger.Info("analysis run persisted", "run_id", result.RunID, "hotspots", len(result.Hotspots))
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database pool.
func (s *Store) Close() error {
	return s.db.Close()
}
