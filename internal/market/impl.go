package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

// Config holds Market Registry configuration.
type Config struct {
	EventTypeIDs       []string // e.g. ["1"] for football
	CompetitionIDs     []string
	MarketTypeCodes    []string // e.g. ["MATCH_ODDS"]
	ReconcileInterval  time.Duration
	MaxResults         int // listMarketCatalogue maxResults, at most 1000
	InitialLoadTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventTypeIDs:       []string{api.EventTypeFootball},
		MarketTypeCodes:    []string{api.MarketTypeMatchOdds},
		ReconcileInterval:  5 * time.Minute,
		MaxResults:         1000,
		InitialLoadTimeout: time.Minute,
	}
}

// registryImpl implements the Registry interface.
type registryImpl struct {
	cfg       Config
	catalogue Catalogue
	logger    *slog.Logger

	state *registryState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a new Market Registry.
func NewRegistry(cfg Config, catalogue Catalogue, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = def.ReconcileInterval
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.InitialLoadTimeout <= 0 {
		cfg.InitialLoadTimeout = def.InitialLoadTimeout
	}

	return &registryImpl{
		cfg:       cfg,
		catalogue: catalogue,
		logger:    logger,
		state:     newState(),
	}
}

// Start runs the initial sync (blocking), then reconciles in the background.
func (r *registryImpl) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	if err := r.initialSync(r.ctx); err != nil {
		r.cancel()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.reconciliationLoop(r.ctx)
	}()

	r.logger.Info("market registry started",
		"markets", len(r.state.marketIDs()),
		"reconcile_interval", r.cfg.ReconcileInterval,
	)

	return nil
}

// Stop gracefully shuts down.
func (r *registryImpl) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("market registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarketIDs returns the IDs of all known markets, sorted.
func (r *registryImpl) MarketIDs() []string {
	return r.state.marketIDs()
}

// GetMarkets returns all known markets.
func (r *registryImpl) GetMarkets() []model.Market {
	return r.state.getMarkets()
}

// GetMarket returns a specific market by ID.
func (r *registryImpl) GetMarket(marketID string) (model.Market, bool) {
	return r.state.getMarket(marketID)
}

// SubscribeChanges returns a channel of market additions/removals.
func (r *registryImpl) SubscribeChanges() <-chan MarketChange {
	return r.state.changes
}
