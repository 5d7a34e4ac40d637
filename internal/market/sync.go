package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

// initialSync loads the matching markets on startup.
func (r *registryImpl) initialSync(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.InitialLoadTimeout)
	defer cancel()

	r.logger.Info("starting initial market sync",
		"competitions", r.cfg.CompetitionIDs,
		"market_types", r.cfg.MarketTypeCodes,
	)
	start := time.Now()

	markets, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("initial market sync: %w", err)
	}
	created, _ := r.state.replace(markets)

	r.logger.Info("initial sync complete",
		"markets", created,
		"duration", time.Since(start),
	)
	return nil
}

// reconciliationLoop periodically re-reads the catalogue.
func (r *registryImpl) reconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile fetches the catalogue and applies additions and removals. On
// error the current set is kept.
func (r *registryImpl) reconcile(ctx context.Context) {
	start := time.Now()

	markets, err := r.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("reconciliation failed", "error", err)
		}
		return
	}

	created, removed := r.state.replace(markets)

	if created > 0 || removed > 0 {
		r.logger.Info("reconciliation found changes",
			"created", created,
			"removed", removed,
			"duration", time.Since(start),
		)
	} else {
		r.logger.Debug("reconciliation complete",
			"total_markets", len(markets),
			"duration", time.Since(start),
		)
	}
}

// fetch lists the markets matching the configured filter, soonest first.
func (r *registryImpl) fetch(ctx context.Context) ([]model.Market, error) {
	catalogues, err := r.catalogue.ListMarketCatalogue(ctx, api.MarketCatalogueRequest{
		Filter: api.MarketFilter{
			EventTypeIDs:    r.cfg.EventTypeIDs,
			CompetitionIDs:  r.cfg.CompetitionIDs,
			MarketTypeCodes: r.cfg.MarketTypeCodes,
		},
		MarketProjection: []string{
			api.ProjectionEvent,
			api.ProjectionCompetition,
			api.ProjectionMarketStartTime,
		},
		Sort:       api.SortFirstToStart,
		MaxResults: r.cfg.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	if len(catalogues) >= r.cfg.MaxResults {
		r.logger.Warn("catalogue result truncated, narrow the filter",
			"max_results", r.cfg.MaxResults,
		)
	}

	markets := make([]model.Market, 0, len(catalogues))
	for i := range catalogues {
		markets = append(markets, catalogues[i].ToModel())
	}
	return markets, nil
}
