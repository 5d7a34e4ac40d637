package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/model"
)

type staticTokens struct{}

func (staticTokens) AppKey() string { return "app-key" }

func (staticTokens) Token() (string, error) { return "abc123", nil }

// exchangeServer answers listMarketBook with one OPEN book per requested ID.
func exchangeServer(t *testing.T, onRequest func(ids []string)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params api.MarketBookRequest `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if onRequest != nil {
			onRequest(req.Params.MarketIDs)
		}

		books := make([]api.MarketBook, 0, len(req.Params.MarketIDs))
		for _, id := range req.Params.MarketIDs {
			books = append(books, api.MarketBook{
				MarketID: id,
				Status:   "OPEN",
				Runners: []api.Runner{{
					SelectionID: 1096,
					Status:      "ACTIVE",
					Ex: &api.ExchangePrices{
						AvailableToBack: []api.PriceSize{{Price: 2.5, Size: 100}},
						AvailableToLay:  []api.PriceSize{{Price: 2.52, Size: 50}},
					},
				}},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": books, "id": 1})
	}))
	t.Cleanup(server.Close)
	return server
}

func marketIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("1.%d", 100000+i)
	}
	return ids
}

func TestPoller_PollAll(t *testing.T) {
	var requests atomic.Int32
	server := exchangeServer(t, func(ids []string) {
		requests.Add(1)
	})
	client := api.NewClient(staticTokens{}, api.WithBettingURL(server.URL))

	var mu sync.Mutex
	got := map[string]model.MarketSnapshot{}
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		mu.Lock()
		defer mu.Unlock()
		got[s.MarketID] = s
		return nil
	})

	cfg := Config{
		Interval:    time.Hour, // Long interval, we'll trigger manually.
		BatchSize:   2,
		Concurrency: 2,
		Timeout:     5 * time.Second,
	}

	p := New(cfg, client, StaticMarkets{"1.1", "1.2", "1.3"}, handler, nil)
	p.pollAll()

	if len(got) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(got))
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}

	snap := got["1.2"]
	if snap.SnapshotTS == 0 {
		t.Error("SnapshotTS not set")
	}
	if len(snap.Runners) != 1 || snap.Runners[0].BestBack() != 250 || snap.Runners[0].BestLay() != 252 {
		t.Errorf("Runners = %+v, want best back/lay 250/252", snap.Runners)
	}

	stats := p.Stats()
	if stats.Cycles != 1 || stats.Snapshots != 3 || stats.Errors != 0 {
		t.Errorf("Stats() = %+v, want 1 cycle, 3 snapshots, 0 errors", stats)
	}
}

func TestPoller_StartStop(t *testing.T) {
	server := exchangeServer(t, nil)
	client := api.NewClient(staticTokens{}, api.WithBettingURL(server.URL))

	var called atomic.Bool
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		called.Store(true)
		return nil
	})

	cfg := Config{
		Interval:    100 * time.Millisecond,
		Concurrency: 10,
		Timeout:     5 * time.Second,
	}

	p := New(cfg, client, StaticMarkets{"1.1"}, handler, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait for at least one poll.
	time.Sleep(150 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if !called.Load() {
		t.Error("handler was never called")
	}
	if p.Stats().Cycles < 1 {
		t.Errorf("Cycles = %d, want >= 1", p.Stats().Cycles)
	}
}

// fakeFetcher records batch sizes and tracks concurrency.
type fakeFetcher struct {
	mu          sync.Mutex
	batches     [][]string
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
	fail        map[string]bool // first ID of a batch that should fail
}

func (f *fakeFetcher) ListMarketBook(ctx context.Context, ids ...string) ([]api.MarketBook, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	// Track max concurrent requests.
	for {
		old := f.maxInFlight.Load()
		if current <= old || f.maxInFlight.CompareAndSwap(old, current) {
			break
		}
	}

	f.mu.Lock()
	f.batches = append(f.batches, ids)
	f.mu.Unlock()

	time.Sleep(f.delay)

	if f.fail[ids[0]] {
		return nil, errors.New("rpc error")
	}
	books := make([]api.MarketBook, len(ids))
	for i, id := range ids {
		books[i] = api.MarketBook{MarketID: id}
	}
	return books, nil
}

func TestPoller_Batching(t *testing.T) {
	fetcher := &fakeFetcher{}
	var count atomic.Int32
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		count.Add(1)
		return nil
	})

	// BatchSize above the exchange limit is clamped to 40.
	p := New(Config{Interval: time.Hour, BatchSize: 100, Concurrency: 3, Timeout: time.Second},
		fetcher, StaticMarkets(marketIDs(95)), handler, nil)
	p.pollAll()

	if len(fetcher.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(fetcher.batches))
	}
	total := 0
	for _, b := range fetcher.batches {
		if len(b) > api.MaxMarketBookIDs {
			t.Errorf("batch of %d exceeds %d", len(b), api.MaxMarketBookIDs)
		}
		total += len(b)
	}
	if total != 95 {
		t.Errorf("total ids = %d, want 95", total)
	}
	if count.Load() != 95 {
		t.Errorf("snapshots = %d, want 95", count.Load())
	}
}

func TestPoller_Concurrency(t *testing.T) {
	fetcher := &fakeFetcher{delay: 50 * time.Millisecond}
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		return nil
	})

	cfg := Config{
		Interval:    time.Hour,
		BatchSize:   1,
		Concurrency: 5, // Limit to 5 concurrent.
		Timeout:     5 * time.Second,
	}

	p := New(cfg, fetcher, StaticMarkets(marketIDs(20)), handler, nil)
	p.pollAll()

	if got := fetcher.maxInFlight.Load(); got > 5 {
		t.Errorf("maxInFlight = %d, want <= 5", got)
	}
	if len(fetcher.batches) != 20 {
		t.Errorf("batches = %d, want 20", len(fetcher.batches))
	}
}

func TestPoller_FailedBatchDoesNotAbortCycle(t *testing.T) {
	ids := marketIDs(4)
	fetcher := &fakeFetcher{fail: map[string]bool{ids[0]: true}}

	var count atomic.Int32
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		count.Add(1)
		return nil
	})

	p := New(Config{Interval: time.Hour, BatchSize: 2, Concurrency: 1, Timeout: time.Second},
		fetcher, StaticMarkets(ids), handler, nil)
	p.pollAll()

	if count.Load() != 2 {
		t.Errorf("snapshots = %d, want 2 from the healthy batch", count.Load())
	}
	if stats := p.Stats(); stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
}

func TestPoller_HandlerError(t *testing.T) {
	fetcher := &fakeFetcher{}
	handler := SnapshotHandlerFunc(func(s model.MarketSnapshot) error {
		return errors.New("buffer full")
	})

	p := New(Config{Interval: time.Hour, BatchSize: 10, Concurrency: 1, Timeout: time.Second},
		fetcher, StaticMarkets(marketIDs(3)), handler, nil)
	p.pollAll()

	if stats := p.Stats(); stats.Errors != 1 || stats.Snapshots != 0 {
		t.Errorf("Stats() = %+v, want 1 error and 0 snapshots", stats)
	}
}

func TestPoller_NoMarkets(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := New(Config{Interval: time.Hour}, fetcher, StaticMarkets(nil), nil, nil)
	p.pollAll()

	if len(fetcher.batches) != 0 {
		t.Errorf("batches = %d, want 0", len(fetcher.batches))
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 40, []int{}},
		{1, 40, []int{1}},
		{40, 40, []int{40}},
		{41, 40, []int{40, 1}},
		{95, 40, []int{40, 40, 15}},
		{5, 2, []int{2, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			batches := chunk(marketIDs(tt.n), tt.size)
			if len(batches) != len(tt.want) {
				t.Fatalf("len(batches) = %d, want %d", len(batches), len(tt.want))
			}
			for i, b := range batches {
				if len(b) != tt.want[i] {
					t.Errorf("batch %d has %d ids, want %d", i, len(b), tt.want[i])
				}
			}
		})
	}
}

func TestChunk_DoesNotAlias(t *testing.T) {
	ids := marketIDs(3)
	batches := chunk(ids, 2)
	batches[0] = append(batches[0], "1.999")
	if ids[2] == "1.999" {
		t.Error("appending to a batch overwrote the next one")
	}
}

func TestMultiSource(t *testing.T) {
	src := MultiSource{
		StaticMarkets{"1.1", "1.2"},
		StaticMarkets{"1.2", "1.3"},
		StaticMarkets(nil),
	}

	got := src.MarketIDs()
	want := []string{"1.1", "1.2", "1.3"}
	if len(got) != len(want) {
		t.Fatalf("MarketIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MarketIDs() = %v, want %v", got, want)
			break
		}
	}
}
