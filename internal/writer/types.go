package writer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrBufferFull is returned by HandleSnapshot when the input buffer is full.
var ErrBufferFull = errors.New("writer buffer full")

// DB is the part of *pgxpool.Pool the writer uses.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of snapshots to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the capacity of the input buffer.
	BufferSize int
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    10000,
	}
}

// marketSnapshotRow represents a row for the market_snapshots table.
type marketSnapshotRow struct {
	SnapshotTs     int64 // Microseconds
	MarketID       string
	ID             string // UUID
	Status         string
	InPlay         bool
	Delayed        bool
	Version        int64
	LastMatchTs    int64 // Microseconds, 0 if never matched
	TotalMatched   int64 // Pence
	TotalAvailable int64 // Pence
}

// runnerPriceRow represents a row for the runner_prices table.
type runnerPriceRow struct {
	SnapshotTs      int64
	MarketID        string
	SelectionID     int64
	SnapshotID      string // UUID of the market_snapshots row
	Status          string
	Handicap        int
	LastPriceTraded int // Hundredths of odds
	TotalMatched    int64
	BestBack        int
	BestLay         int
	Spread          int
	Back            []byte // JSONB: [{price: int, size: int}, ...]
	Lay             []byte // JSONB
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Inserts       int64 // market_snapshots rows inserted
	RunnerInserts int64 // runner_prices rows inserted
	Conflicts     int64 // rows skipped by ON CONFLICT
	Errors        int64 // failed flushes
	Flushes       int64
	Dropped       int64 // snapshots rejected with ErrBufferFull
}
