package api

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/betfair-exchange/internal/model"
)

// OddsToInternal converts decimal odds to hundredths.
// 2.5 -> 250, 1.01 -> 101, 1000 -> 100000
func OddsToInternal(odds float64) int {
	if odds <= 0 || math.IsNaN(odds) || math.IsInf(odds, 0) {
		return 0
	}
	return int(math.Round(odds * 100))
}

// MoneyToPence converts a currency amount to pence, rounding to nearest.
// 12.34 -> 1234, 0.5 -> 50
func MoneyToPence(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Round(amount * 100))
}

// ParseTimestamp parses an ISO 8601 timestamp to microseconds since epoch.
// Returns 0 for empty or invalid input.
func ParseTimestamp(iso string) int64 {
	if iso == "" {
		return 0
	}

	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return 0
		}
	}

	return t.UnixMicro()
}

// NowMicro returns the current time in microseconds since epoch.
func NowMicro() int64 {
	return time.Now().UnixMicro()
}

func toLevels(ladder []PriceSize) []model.PriceLevel {
	levels := make([]model.PriceLevel, 0, len(ladder))
	for _, ps := range ladder {
		price := OddsToInternal(ps.Price)
		if price == 0 {
			continue
		}
		levels = append(levels, model.PriceLevel{
			Price: price,
			Size:  MoneyToPence(ps.Size),
		})
	}
	return levels
}

// ToModel converts a Runner to model.RunnerSnapshot.
func (r *Runner) ToModel() model.RunnerSnapshot {
	snap := model.RunnerSnapshot{
		SelectionID:     r.SelectionID,
		Handicap:        int(math.Round(r.Handicap * 100)),
		Status:          r.Status,
		LastPriceTraded: OddsToInternal(r.LastPriceTraded),
		TotalMatched:    MoneyToPence(r.TotalMatched),
		Back:            []model.PriceLevel{},
		Lay:             []model.PriceLevel{},
	}
	if r.Ex != nil {
		snap.Back = toLevels(r.Ex.AvailableToBack)
		snap.Lay = toLevels(r.Ex.AvailableToLay)
	}
	return snap
}

// ToSnapshot converts a MarketBook to model.MarketSnapshot stamped at snapshotTS.
func (b *MarketBook) ToSnapshot(snapshotTS int64) model.MarketSnapshot {
	runners := make([]model.RunnerSnapshot, 0, len(b.Runners))
	for i := range b.Runners {
		runners = append(runners, b.Runners[i].ToModel())
	}

	return model.MarketSnapshot{
		ID:             uuid.New(),
		SnapshotTS:     snapshotTS,
		LastMatchTS:    ParseTimestamp(b.LastMatchTime),
		MarketID:       b.MarketID,
		Status:         b.Status,
		InPlay:         b.Inplay,
		Delayed:        b.IsMarketDataDelayed,
		Version:        b.Version,
		TotalMatched:   MoneyToPence(b.TotalMatched),
		TotalAvailable: MoneyToPence(b.TotalAvailable),
		Runners:        runners,
	}
}

// ToModel converts a MarketCatalogue to model.Market.
func (m *MarketCatalogue) ToModel() model.Market {
	market := model.Market{
		MarketID:     m.MarketID,
		MarketName:   m.MarketName,
		StartTime:    ParseTimestamp(m.MarketStartTime),
		TotalMatched: MoneyToPence(m.TotalMatched),
	}
	if m.Event != nil {
		market.EventID = m.Event.ID
		market.EventName = m.Event.Name
	}
	if m.Competition != nil {
		market.CompetitionID = m.Competition.ID
		market.CompetitionName = m.Competition.Name
	}
	return market
}
