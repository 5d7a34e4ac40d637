// Package writer implements the batched market book writer.
//
// SnapshotWriter receives model.MarketSnapshot values from the poller and
// writes them to TimescaleDB:
//   - market_snapshots: one row per market per poll
//   - runner_prices: one row per runner, back/lay ladders as JSONB
//
// Writes are append-only (never update, only insert) and use
// ON CONFLICT DO NOTHING. Prices are integer hundredths of decimal odds,
// money amounts integer pence.
package writer
