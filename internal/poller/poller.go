package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

// MarketSource provides the market IDs to poll.
type MarketSource interface {
	MarketIDs() []string
}

// StaticMarkets is a fixed MarketSource.
type StaticMarkets []string

func (s StaticMarkets) MarketIDs() []string {
	return s
}

// MultiSource polls the union of several sources. IDs keep first-seen
// order and duplicates are dropped.
type MultiSource []MarketSource

func (m MultiSource) MarketIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, src := range m {
		for _, id := range src.MarketIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// BookFetcher fetches market books. *api.Client satisfies it.
type BookFetcher interface {
	ListMarketBook(ctx context.Context, marketIDs ...string) ([]api.MarketBook, error)
}

// SnapshotHandler receives converted snapshots.
type SnapshotHandler interface {
	HandleSnapshot(snapshot model.MarketSnapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(model.MarketSnapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s model.MarketSnapshot) error {
	return f(s)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 5s)
	BatchSize   int           // Market IDs per request, at most api.MaxMarketBookIDs
	Concurrency int           // Max concurrent requests (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    5 * time.Second,
		BatchSize:   api.MaxMarketBookIDs,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Stats counts poll outcomes since start.
type Stats struct {
	Cycles    int64
	Snapshots int64
	Errors    int64
}

// Poller periodically fetches market books and hands each one, as a
// model.MarketSnapshot, to a SnapshotHandler.
type Poller struct {
	cfg     Config
	client  BookFetcher
	markets MarketSource
	handler SnapshotHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cycles    atomic.Int64
	snapshots atomic.Int64
	errors    atomic.Int64
}

// New creates a new Poller.
func New(cfg Config, client BookFetcher, markets MarketSource, handler SnapshotHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > api.MaxMarketBookIDs {
		cfg.BatchSize = api.MaxMarketBookIDs
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		markets: markets,
		handler: handler,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("market book poller started",
		"interval", p.cfg.Interval,
		"batch_size", p.cfg.BatchSize,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("market book poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns poll counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Cycles:    p.cycles.Load(),
		Snapshots: p.snapshots.Load(),
		Errors:    p.errors.Load(),
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches every market once, in batches, with bounded concurrency.
// A failed batch is logged and counted; it never aborts the cycle.
func (p *Poller) pollAll() {
	start := time.Now()
	p.cycles.Add(1)

	ids := p.markets.MarketIDs()
	if len(ids) == 0 {
		p.logger.Debug("no markets to poll")
		return
	}

	batches := chunk(ids, p.cfg.BatchSize)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)

	var fetched, failed atomic.Int64
	for _, batch := range batches {
		if p.ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := p.pollBatch(batch)
			fetched.Add(int64(n))
			if err != nil {
				p.logger.Warn("failed to poll markets",
					"markets", len(batch),
					"first_market", batch[0],
					"error", err,
				)
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	p.snapshots.Add(fetched.Load())
	p.errors.Add(failed.Load())

	p.logger.Info("poll cycle complete",
		"markets", len(ids),
		"batches", len(batches),
		"snapshots", fetched.Load(),
		"errors", failed.Load(),
		"duration", time.Since(start),
	)
}

// pollBatch fetches one batch and hands each book to the handler. It returns
// how many snapshots were handled.
func (p *Poller) pollBatch(ids []string) (int, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	books, err := p.client.ListMarketBook(ctx, ids...)
	if err != nil {
		return 0, err
	}

	snapshotTS := api.NowMicro()
	handled := 0
	for i := range books {
		snapshot := books[i].ToSnapshot(snapshotTS)
		if p.handler != nil {
			if err := p.handler.HandleSnapshot(snapshot); err != nil {
				return handled, err
			}
		}
		handled++
	}

	return handled, nil
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for len(ids) > size {
		batches = append(batches, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
