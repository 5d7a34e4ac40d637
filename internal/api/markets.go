package api

import (
	"context"
	"fmt"
	"sort"
)

// ListMarketCatalogue fetches market descriptions.
func (c *Client) ListMarketCatalogue(ctx context.Context, req MarketCatalogueRequest) ([]MarketCatalogue, error) {
	var catalogues []MarketCatalogue
	if err := c.call(ctx, c.bettingURL, methodListMarketCatalogue, req, &catalogues); err != nil {
		return nil, fmt.Errorf("list market catalogue: %w", err)
	}
	return catalogues, nil
}

// MarketCatalogue returns the market of type marketTypeCode within an event,
// e.g. MATCH_ODDS. ErrEmptyResult means the event has no such market.
func (c *Client) MarketCatalogue(ctx context.Context, eventID, marketTypeCode string) (*MarketCatalogue, error) {
	catalogues, err := c.ListMarketCatalogue(ctx, MarketCatalogueRequest{
		Filter: MarketFilter{
			EventIDs:        []string{eventID},
			MarketTypeCodes: []string{marketTypeCode},
		},
		MaxResults: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(catalogues) == 0 {
		return nil, fmt.Errorf("market catalogue %s/%s: %w", eventID, marketTypeCode, ErrEmptyResult)
	}
	return &catalogues[0], nil
}

// GameDescription returns a market's catalogue including its runners.
func (c *Client) GameDescription(ctx context.Context, marketID string) (*MarketCatalogue, error) {
	catalogues, err := c.ListMarketCatalogue(ctx, MarketCatalogueRequest{
		Filter:           MarketFilter{MarketIDs: []string{marketID}},
		MarketProjection: []string{ProjectionRunnerDescription},
		MaxResults:       1,
	})
	if err != nil {
		return nil, err
	}
	if len(catalogues) == 0 {
		return nil, fmt.Errorf("game description %s: %w", marketID, ErrEmptyResult)
	}
	return &catalogues[0], nil
}

// SortedRunners returns the runners ordered by sortPriority. For a football
// match the home team comes first.
func (m *MarketCatalogue) SortedRunners() []RunnerCatalog {
	runners := make([]RunnerCatalog, len(m.Runners))
	copy(runners, m.Runners)
	sort.SliceStable(runners, func(i, j int) bool {
		return runners[i].SortPriority < runners[j].SortPriority
	})
	return runners
}

// ListMarketBook fetches live prices for up to MaxMarketBookIDs markets: best
// offers with virtual bets, executable orders, matches rolled up by average
// price. Delayed application keys only ever get three price levels.
func (c *Client) ListMarketBook(ctx context.Context, marketIDs ...string) ([]MarketBook, error) {
	if len(marketIDs) == 0 {
		return nil, nil
	}
	if len(marketIDs) > MaxMarketBookIDs {
		return nil, fmt.Errorf("list market book: %d market ids, max %d", len(marketIDs), MaxMarketBookIDs)
	}

	req := MarketBookRequest{
		MarketIDs: marketIDs,
		PriceProjection: &PriceProjection{
			PriceData:  []string{PriceDataBestOffers},
			Virtualise: true,
		},
		OrderProjection: OrderProjectionExecutable,
		MatchProjection: MatchProjectionRolledUpByAvgPrice,
	}

	var books []MarketBook
	if err := c.call(ctx, c.bettingURL, methodListMarketBook, req, &books); err != nil {
		return nil, fmt.Errorf("list market book: %w", err)
	}
	return books, nil
}
