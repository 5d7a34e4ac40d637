package api

import (
	"context"
	"fmt"
	"strings"
)

// ListCompetitions fetches the competitions matching filter.
func (c *Client) ListCompetitions(ctx context.Context, filter MarketFilter) ([]CompetitionResult, error) {
	var results []CompetitionResult
	if err := c.call(ctx, c.bettingURL, methodListCompetitions, filterParams{Filter: filter}, &results); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return results, nil
}

// FootballCompetitions lists every football competition.
func (c *Client) FootballCompetitions(ctx context.Context) ([]Competition, error) {
	results, err := c.ListCompetitions(ctx, MarketFilter{EventTypeIDs: []string{EventTypeFootball}})
	if err != nil {
		return nil, err
	}

	competitions := make([]Competition, 0, len(results))
	for _, r := range results {
		competitions = append(competitions, r.Competition)
	}
	return competitions, nil
}

// ListEvents fetches the events matching filter.
func (c *Client) ListEvents(ctx context.Context, filter MarketFilter) ([]EventResult, error) {
	var results []EventResult
	if err := c.call(ctx, c.bettingURL, methodListEvents, filterParams{Filter: filter}, &results); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return results, nil
}

// FootballGames lists the fixtures of a competition. Outright and special
// events are dropped: only "Home v Away" names are kept.
func (c *Client) FootballGames(ctx context.Context, competitionID string) ([]Event, error) {
	results, err := c.ListEvents(ctx, MarketFilter{CompetitionIDs: []string{competitionID}})
	if err != nil {
		return nil, err
	}

	var games []Event
	for _, r := range results {
		if strings.Contains(r.Event.Name, " v ") {
			games = append(games, r.Event)
		}
	}
	return games, nil
}

// EventsForMarkets fetches the events that own the given markets.
func (c *Client) EventsForMarkets(ctx context.Context, marketIDs ...string) ([]EventResult, error) {
	return c.ListEvents(ctx, MarketFilter{MarketIDs: marketIDs})
}
