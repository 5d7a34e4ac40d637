// Package database provides the TimescaleDB connection pool and schema for
// recorded market books.
//
// Tables:
//   - market_snapshots: one row per market per poll
//   - runner_prices: one row per runner per poll, back/lay ladders as JSONB
package database
