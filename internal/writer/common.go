package writer

import (
	"encoding/json"

	"github.com/rickgao/betfair-exchange/internal/model"
)

// ladderToJSONB encodes a price ladder. An empty ladder is "[]", never null.
func ladderToJSONB(levels []model.PriceLevel) []byte {
	if len(levels) == 0 {
		return []byte("[]")
	}
	data, _ := json.Marshal(levels)
	return data
}

// toRows flattens a snapshot into its market row and one row per runner.
func toRows(s model.MarketSnapshot) (marketSnapshotRow, []runnerPriceRow) {
	id := s.ID.String()

	market := marketSnapshotRow{
		SnapshotTs:     s.SnapshotTS,
		MarketID:       s.MarketID,
		ID:             id,
		Status:         s.Status,
		InPlay:         s.InPlay,
		Delayed:        s.Delayed,
		Version:        s.Version,
		LastMatchTs:    s.LastMatchTS,
		TotalMatched:   s.TotalMatched,
		TotalAvailable: s.TotalAvailable,
	}

	runners := make([]runnerPriceRow, 0, len(s.Runners))
	for i := range s.Runners {
		r := &s.Runners[i]
		runners = append(runners, runnerPriceRow{
			SnapshotTs:      s.SnapshotTS,
			MarketID:        s.MarketID,
			SelectionID:     r.SelectionID,
			SnapshotID:      id,
			Status:          r.Status,
			Handicap:        r.Handicap,
			LastPriceTraded: r.LastPriceTraded,
			TotalMatched:    r.TotalMatched,
			BestBack:        r.BestBack(),
			BestLay:         r.BestLay(),
			Spread:          r.Spread(),
			Back:            ladderToJSONB(r.Back),
			Lay:             ladderToJSONB(r.Lay),
		})
	}

	return market, runners
}
