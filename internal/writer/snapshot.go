package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/betfair-exchange/internal/model"
)

const (
	// flushTimeout bounds a background flush. Flushes outlive the writer's
	// context so a batch taken just before shutdown is still written.
	flushTimeout = 30 * time.Second

	insertMarketSnapshot = `
		INSERT INTO market_snapshots (snapshot_ts, market_id, id, status, inplay, delayed, version, last_match_ts, total_matched, total_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (market_id, snapshot_ts) DO NOTHING
	`
	insertRunnerPrice = `
		INSERT INTO runner_prices (snapshot_ts, market_id, selection_id, snapshot_id, status, handicap, last_price_traded, total_matched, best_back, best_lay, spread, back, lay)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (market_id, selection_id, handicap, snapshot_ts) DO NOTHING
	`
)

// SnapshotWriter buffers market snapshots and writes them to market_snapshots
// and runner_prices in batches.
type SnapshotWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the poller
	input chan model.MarketSnapshot

	// Database
	db DB

	// Batching
	batch       []model.MarketSnapshot
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(cfg WriterConfig, db DB, logger *slog.Logger) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultWriterConfig().BufferSize
	}
	return &SnapshotWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan model.MarketSnapshot, cfg.BufferSize),
		batch:  make([]model.MarketSnapshot, 0, cfg.BatchSize),
		ctx:    context.Background(),
	}
}

// HandleSnapshot queues a snapshot for writing. It never blocks: when the
// buffer is full the snapshot is dropped and ErrBufferFull returned.
func (w *SnapshotWriter) HandleSnapshot(s model.MarketSnapshot) error {
	select {
	case w.input <- s:
		return nil
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		return ErrBufferFull
	}
}

// Start begins consuming snapshots and writing to the database.
func (w *SnapshotWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("snapshot writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"buffer_size", w.cfg.BufferSize,
	)
	return nil
}

// Stop shuts down the writer, then drains the buffer and flushes what is
// left using ctx.
func (w *SnapshotWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping snapshot writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("snapshot writer stopped")
	case <-ctx.Done():
		w.logger.Warn("snapshot writer stop timed out")
		return ctx.Err()
	}

	// Drain and final flush
drain:
	for {
		select {
		case s := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, s)
			w.batchMu.Unlock()
		default:
			break drain
		}
	}
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *SnapshotWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the input buffer and accumulates the batch.
func (w *SnapshotWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case s := <-w.input:
			w.handleSnapshot(s)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *SnapshotWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.backgroundFlush()
		}
	}
}

// handleSnapshot adds a snapshot to the batch, flushing when it is full.
func (w *SnapshotWriter) handleSnapshot(s model.MarketSnapshot) {
	w.batchMu.Lock()
	w.batch = append(w.batch, s)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.backgroundFlush()
	}
}

// backgroundFlush flushes from the writer goroutines.
func (w *SnapshotWriter) backgroundFlush() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), flushTimeout)
	defer cancel()
	w.flush(ctx)
}

// flush writes the current batch to the database.
func (w *SnapshotWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	batch := w.batch
	w.batch = make([]model.MarketSnapshot, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	if len(batch) == 0 {
		return
	}

	start := time.Now()

	markets := make([]marketSnapshotRow, 0, len(batch))
	var runners []runnerPriceRow
	for _, s := range batch {
		m, rs := toRows(s)
		markets = append(markets, m)
		runners = append(runners, rs...)
	}

	marketConflicts, runnerConflicts, err := w.batchInsert(ctx, markets, runners)

	w.batchMu.Lock()
	if err != nil {
		w.metrics.Errors++
	} else {
		w.metrics.Inserts += int64(len(markets) - marketConflicts)
		w.metrics.RunnerInserts += int64(len(runners) - runnerConflicts)
		w.metrics.Conflicts += int64(marketConflicts + runnerConflicts)
	}
	w.metrics.Flushes++
	w.batchMu.Unlock()

	if err != nil {
		w.logger.Error("snapshot batch insert failed",
			"error", err,
			"snapshots", len(markets),
			"runners", len(runners),
		)
		return
	}

	w.logger.Debug("flushed snapshots",
		"snapshots", len(markets),
		"runners", len(runners),
		"conflicts", marketConflicts+runnerConflicts,
		"duration", time.Since(start),
	)
}

// batchInsert sends market and runner rows in one pgx.Batch with
// ON CONFLICT DO NOTHING, returning the skipped row counts.
func (w *SnapshotWriter) batchInsert(ctx context.Context, markets []marketSnapshotRow, runners []runnerPriceRow) (marketConflicts, runnerConflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range markets {
		batch.Queue(insertMarketSnapshot,
			r.SnapshotTs, r.MarketID, r.ID, r.Status, r.InPlay, r.Delayed,
			r.Version, r.LastMatchTs, r.TotalMatched, r.TotalAvailable)
	}
	for _, r := range runners {
		batch.Queue(insertRunnerPrice,
			r.SnapshotTs, r.MarketID, r.SelectionID, r.SnapshotID, r.Status, r.Handicap,
			r.LastPriceTraded, r.TotalMatched, r.BestBack, r.BestLay, r.Spread, r.Back, r.Lay)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range markets {
		ct, err := results.Exec()
		if err != nil {
			return 0, 0, err
		}
		if ct.RowsAffected() == 0 {
			marketConflicts++
		}
	}
	for range runners {
		ct, err := results.Exec()
		if err != nil {
			return 0, 0, err
		}
		if ct.RowsAffected() == 0 {
			runnerConflicts++
		}
	}

	return marketConflicts, runnerConflicts, nil
}
