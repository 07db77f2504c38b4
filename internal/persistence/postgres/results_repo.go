// Package postgres is the reference ResultStore adapter. Detail columns are kept
// queryable; the nested breakdowns land in JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/persistence"
)

// Schema is the table the store writes to; applied by the operator, not by this
// process.
const Schema = `
CREATE TABLE IF NOT EXISTS confluence_results (
    id              BIGSERIAL PRIMARY KEY,
    symbol          TEXT        NOT NULL,
    ts              TIMESTAMPTZ NOT NULL,
    score           DOUBLE PRECISION NOT NULL,
    status          TEXT        NOT NULL,
    calc_time_ms    DOUBLE PRECISION NOT NULL,
    components      JSONB,
    divergences     JSONB,
    signals         JSONB,
    interpretation  TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (symbol, ts)
);`

type resultStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResultStore connects to PostgreSQL and returns a ResultStore.
func NewResultStore(dsn string, timeout time.Duration) (persistence.ResultStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &resultStore{db: db, timeout: timeout}, nil
}

// Save upserts one result, unique per symbol and timestamp.
func (s *resultStore) Save(ctx context.Context, result *composite.Result) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	components, err := json.Marshal(result.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}
	divergences, err := json.Marshal(result.Divergences)
	if err != nil {
		return fmt.Errorf("marshal divergences: %w", err)
	}
	signals, err := json.Marshal(result.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}

	query := `
		INSERT INTO confluence_results
		(symbol, ts, score, status, calc_time_ms, components, divergences, signals, interpretation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, ts) DO UPDATE SET
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			calc_time_ms = EXCLUDED.calc_time_ms,
			components = EXCLUDED.components,
			divergences = EXCLUDED.divergences,
			signals = EXCLUDED.signals,
			interpretation = EXCLUDED.interpretation`

	_, err = s.db.ExecContext(ctx, query,
		result.Symbol,
		time.UnixMilli(result.Meta.TimestampMS).UTC(),
		result.Score,
		string(result.Meta.Status),
		result.Meta.CalculationTimeMS,
		components,
		divergences,
		signals,
		result.Interpretation,
	)
	if err != nil {
		return fmt.Errorf("insert result for %s: %w", result.Symbol, err)
	}
	return nil
}

func (s *resultStore) Close() error {
	return s.db.Close()
}
