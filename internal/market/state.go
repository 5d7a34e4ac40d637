package market

import (
	"sort"
	"sync"
	"time"

	"github.com/rickgao/betfair-exchange/internal/model"
)

// registryState holds the thread-safe market set.
type registryState struct {
	mu sync.RWMutex

	// Known markets indexed by market ID.
	markets map[string]*model.Market

	// Last successful catalogue sync.
	lastSyncAt time.Time

	// Output channel for subscribers.
	changes chan MarketChange
}

func newState() *registryState {
	return &registryState{
		markets: make(map[string]*model.Market),
		changes: make(chan MarketChange, ChangeBufferSize),
	}
}

// getMarket returns a market by ID (read-locked).
func (s *registryState) getMarket(marketID string) (model.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[marketID]
	if !ok {
		return model.Market{}, false
	}
	return *m, true
}

// getMarkets returns a copy of all markets (read-locked).
func (s *registryState) getMarkets() []model.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Market, 0, len(s.markets))
	for _, m := range s.markets {
		result = append(result, *m)
	}
	return result
}

// marketIDs returns the sorted IDs of all markets (read-locked).
func (s *registryState) marketIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.markets))
	for id := range s.markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// replace makes markets the full set, notifying additions and removals.
// Known markets are updated in place without a notification.
func (s *registryState) replace(markets []model.Market) (created, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(markets))
	for _, m := range markets {
		seen[m.MarketID] = struct{}{}

		mCopy := m
		_, known := s.markets[m.MarketID]
		s.markets[m.MarketID] = &mCopy
		if !known {
			s.notifyChange(MarketChange{
				MarketID:  m.MarketID,
				EventType: EventCreated,
				Market:    &mCopy,
			})
			created++
		}
	}

	for id := range s.markets {
		if _, ok := seen[id]; ok {
			continue
		}
		delete(s.markets, id)
		s.notifyChange(MarketChange{
			MarketID:  id,
			EventType: EventRemoved,
		})
		removed++
	}

	s.lastSyncAt = time.Now()
	return created, removed
}

// notifyChange sends a change to the changes channel (non-blocking).
func (s *registryState) notifyChange(change MarketChange) {
	select {
	case s.changes <- change:
	default:
		// Channel full, drop oldest by consuming one and retrying.
		select {
		case <-s.changes:
			s.changes <- change
		default:
		}
	}
}
