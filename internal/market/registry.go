package market

import (
	"context"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

// ChangeBufferSize is the capacity of the MarketChange channel.
const ChangeBufferSize = 1000

// Change event types.
const (
	EventCreated = "created"
	EventRemoved = "removed"
)

// Catalogue lists market descriptions. *api.Client implements it.
type Catalogue interface {
	ListMarketCatalogue(ctx context.Context, req api.MarketCatalogueRequest) ([]api.MarketCatalogue, error)
}

// Registry manages market discovery.
type Registry interface {
	// Start runs the initial sync, then reconciles in the background.
	Start(ctx context.Context) error

	// Stop gracefully shuts down.
	Stop(ctx context.Context) error

	// MarketIDs returns the IDs of all known markets, sorted.
	MarketIDs() []string

	// GetMarkets returns all known markets.
	GetMarkets() []model.Market

	// GetMarket returns a specific market by ID.
	GetMarket(marketID string) (model.Market, bool)

	// SubscribeChanges returns a channel of market additions/removals.
	SubscribeChanges() <-chan MarketChange
}

// MarketChange represents a market entering or leaving the registry.
type MarketChange struct {
	MarketID  string
	EventType string        // EventCreated or EventRemoved
	Market    *model.Market // Full market data (nil for EventRemoved)
}
