package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement. *pgxpool.Pool and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the recorder tables. Timestamps are bigint microseconds,
// prices hundredths of odds, money pence.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS market_snapshots (
		snapshot_ts     BIGINT  NOT NULL,
		market_id       TEXT    NOT NULL,
		id              UUID    NOT NULL,
		status          TEXT    NOT NULL,
		inplay          BOOLEAN NOT NULL,
		delayed         BOOLEAN NOT NULL,
		version         BIGINT  NOT NULL,
		last_match_ts   BIGINT  NOT NULL,
		total_matched   BIGINT  NOT NULL,
		total_available BIGINT  NOT NULL,
		PRIMARY KEY (market_id, snapshot_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS runner_prices (
		snapshot_ts       BIGINT  NOT NULL,
		market_id         TEXT    NOT NULL,
		selection_id      BIGINT  NOT NULL,
		snapshot_id       UUID    NOT NULL,
		status            TEXT    NOT NULL,
		handicap          INTEGER NOT NULL,
		last_price_traded INTEGER NOT NULL,
		total_matched     BIGINT  NOT NULL,
		best_back         INTEGER NOT NULL,
		best_lay          INTEGER NOT NULL,
		spread            INTEGER NOT NULL,
		back              JSONB   NOT NULL,
		lay               JSONB   NOT NULL,
		PRIMARY KEY (market_id, selection_id, handicap, snapshot_ts)
	)`,
	`SELECT create_hypertable('market_snapshots', 'snapshot_ts',
		chunk_time_interval => 86400000000, if_not_exists => TRUE)`,
	`SELECT create_hypertable('runner_prices', 'snapshot_ts',
		chunk_time_interval => 86400000000, if_not_exists => TRUE)`,
}

// EnsureSchema applies Schema. Every statement is idempotent.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
