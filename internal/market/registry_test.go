package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

// fakeCatalogue returns the configured markets and records each request.
type fakeCatalogue struct {
	mu       sync.Mutex
	markets  []api.MarketCatalogue
	err      error
	requests []api.MarketCatalogueRequest
}

func (f *fakeCatalogue) ListMarketCatalogue(ctx context.Context, req api.MarketCatalogueRequest) ([]api.MarketCatalogue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return append([]api.MarketCatalogue(nil), f.markets...), nil
}

func (f *fakeCatalogue) set(markets []api.MarketCatalogue, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markets = markets
	f.err = err
}

func (f *fakeCatalogue) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func catalogue(ids ...string) []api.MarketCatalogue {
	out := make([]api.MarketCatalogue, len(ids))
	for i, id := range ids {
		out[i] = api.MarketCatalogue{
			MarketID:   id,
			MarketName: "Match Odds",
			Event:      &api.Event{ID: "e" + id, Name: "Home v Away"},
		}
	}
	return out
}

func drain(ch <-chan MarketChange) []MarketChange {
	var out []MarketChange
	for {
		select {
		case c := <-ch:
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestState_Replace(t *testing.T) {
	s := newState()

	created, removed := s.replace([]model.Market{{MarketID: "1.1"}, {MarketID: "1.2"}})
	if created != 2 || removed != 0 {
		t.Errorf("first replace = %d created, %d removed, want 2, 0", created, removed)
	}

	created, removed = s.replace([]model.Market{{MarketID: "1.2", MarketName: "Match Odds"}, {MarketID: "1.3"}})
	if created != 1 || removed != 1 {
		t.Errorf("second replace = %d created, %d removed, want 1, 1", created, removed)
	}

	if _, ok := s.getMarket("1.1"); ok {
		t.Error("1.1 should have been removed")
	}
	got, ok := s.getMarket("1.2")
	if !ok || got.MarketName != "Match Odds" {
		t.Errorf("1.2 = %+v, %v; want updated in place", got, ok)
	}

	changes := drain(s.changes)
	var createdIDs, removedIDs []string
	for _, c := range changes {
		switch c.EventType {
		case EventCreated:
			if c.Market == nil {
				t.Errorf("created change for %s has no market", c.MarketID)
			}
			createdIDs = append(createdIDs, c.MarketID)
		case EventRemoved:
			removedIDs = append(removedIDs, c.MarketID)
		}
	}
	if len(createdIDs) != 3 || len(removedIDs) != 1 || removedIDs[0] != "1.1" {
		t.Errorf("created = %v, removed = %v", createdIDs, removedIDs)
	}
}

func TestState_MarketIDsSorted(t *testing.T) {
	s := newState()
	s.replace([]model.Market{{MarketID: "1.3"}, {MarketID: "1.1"}, {MarketID: "1.2"}})

	ids := s.marketIDs()
	want := []string{"1.1", "1.2", "1.3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
}

func TestState_NotifyChange_DropsOldest(t *testing.T) {
	s := newState()
	for i := 0; i < ChangeBufferSize+1; i++ {
		s.notifyChange(MarketChange{MarketID: "x", EventType: EventCreated})
	}
	s.notifyChange(MarketChange{MarketID: "last", EventType: EventRemoved})

	if n := len(s.changes); n != ChangeBufferSize {
		t.Fatalf("buffered = %d, want %d", n, ChangeBufferSize)
	}
	changes := drain(s.changes)
	if changes[len(changes)-1].MarketID != "last" {
		t.Error("newest change should be kept")
	}
}

func TestRegistry_Start(t *testing.T) {
	fake := &fakeCatalogue{markets: catalogue("1.1", "1.2")}
	cfg := DefaultConfig()
	cfg.CompetitionIDs = []string{"10932509"}
	cfg.ReconcileInterval = time.Hour

	r := NewRegistry(cfg, fake, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(context.Background())

	if ids := r.MarketIDs(); len(ids) != 2 {
		t.Errorf("MarketIDs() = %v, want 2 markets", ids)
	}
	m, ok := r.GetMarket("1.1")
	if !ok || m.EventName != "Home v Away" {
		t.Errorf("GetMarket(1.1) = %+v, %v", m, ok)
	}
	if n := len(r.GetMarkets()); n != 2 {
		t.Errorf("GetMarkets() = %d markets, want 2", n)
	}

	req := fake.requests[0]
	if len(req.Filter.CompetitionIDs) != 1 || req.Filter.CompetitionIDs[0] != "10932509" {
		t.Errorf("CompetitionIDs = %v", req.Filter.CompetitionIDs)
	}
	if len(req.Filter.EventTypeIDs) != 1 || req.Filter.EventTypeIDs[0] != api.EventTypeFootball {
		t.Errorf("EventTypeIDs = %v", req.Filter.EventTypeIDs)
	}
	if len(req.Filter.MarketTypeCodes) != 1 || req.Filter.MarketTypeCodes[0] != api.MarketTypeMatchOdds {
		t.Errorf("MarketTypeCodes = %v", req.Filter.MarketTypeCodes)
	}
	if req.Sort != api.SortFirstToStart || req.MaxResults != 1000 {
		t.Errorf("Sort/MaxResults = %s/%d", req.Sort, req.MaxResults)
	}

	if n := len(drain(r.SubscribeChanges())); n != 2 {
		t.Errorf("changes = %d, want 2 created", n)
	}
}

func TestRegistry_StartFails(t *testing.T) {
	fake := &fakeCatalogue{err: errors.New("rpc error")}
	r := NewRegistry(Config{}, fake, nil)

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the initial sync fails")
	}
}

func TestRegistry_Reconcile(t *testing.T) {
	fake := &fakeCatalogue{markets: catalogue("1.1", "1.2")}
	cfg := DefaultConfig()
	cfg.ReconcileInterval = 20 * time.Millisecond

	r := NewRegistry(cfg, fake, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(context.Background())
	drain(r.SubscribeChanges())

	// 1.1 closes, 1.3 opens.
	fake.set(catalogue("1.2", "1.3"), nil)

	deadline := time.Now().Add(2 * time.Second)
	for {
		ids := r.MarketIDs()
		if len(ids) == 2 && ids[0] == "1.2" && ids[1] == "1.3" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("MarketIDs() = %v, want [1.2 1.3]", ids)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegistry_ReconcileErrorKeepsMarkets(t *testing.T) {
	fake := &fakeCatalogue{markets: catalogue("1.1")}
	cfg := DefaultConfig()
	cfg.ReconcileInterval = 10 * time.Millisecond

	r := NewRegistry(cfg, fake, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop(context.Background())

	fake.set(nil, errors.New("rpc error"))

	deadline := time.Now().Add(2 * time.Second)
	for fake.requestCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("reconciliation did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if ids := r.MarketIDs(); len(ids) != 1 || ids[0] != "1.1" {
		t.Errorf("MarketIDs() = %v, want [1.1] kept after a failed reconcile", ids)
	}
}

func TestRegistry_Stop(t *testing.T) {
	r := NewRegistry(DefaultConfig(), &fakeCatalogue{}, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
