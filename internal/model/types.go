package model

import "github.com/google/uuid"

// PriceLevel is one rung of a back or lay ladder.
type PriceLevel struct {
	Price int   `json:"price"` // Decimal odds in hundredths (2.50 -> 250)
	Size  int64 `json:"size"`  // Amount available in pence
}

// RunnerSnapshot is one selection's prices at snapshot time.
type RunnerSnapshot struct {
	SelectionID     int64        // Exchange selection ID
	Handicap        int          // Handicap in hundredths
	Status          string       // ACTIVE, WINNER, LOSER, REMOVED, ...
	LastPriceTraded int          // Hundredths of odds, 0 if never traded
	TotalMatched    int64        // Pence
	Back            []PriceLevel // Available to back, best (highest) first
	Lay             []PriceLevel // Available to lay, best (lowest) first
}

// BestBack returns the best back price, or 0 if the ladder is empty.
func (r *RunnerSnapshot) BestBack() int {
	if len(r.Back) == 0 {
		return 0
	}
	return r.Back[0].Price
}

// BestLay returns the best lay price, or 0 if the ladder is empty.
func (r *RunnerSnapshot) BestLay() int {
	if len(r.Lay) == 0 {
		return 0
	}
	return r.Lay[0].Price
}

// Spread returns BestLay - BestBack, or 0 when either side is empty.
func (r *RunnerSnapshot) Spread() int {
	back, lay := r.BestBack(), r.BestLay()
	if back == 0 || lay == 0 {
		return 0
	}
	return lay - back
}

// MarketSnapshot is a market book as polled at one instant.
type MarketSnapshot struct {
	ID             uuid.UUID        // Primary key, generated at conversion
	SnapshotTS     int64            // Poll time (µs since epoch)
	LastMatchTS    int64            // Exchange last match time (µs since epoch), 0 if none
	MarketID       string           // Exchange market ID, e.g. "1.23456789"
	Status         string           // OPEN, SUSPENDED, CLOSED
	InPlay         bool             // Market is in play
	Delayed        bool             // Data came through a delayed application key
	Version        int64            // Exchange market version
	TotalMatched   int64            // Pence
	TotalAvailable int64            // Pence
	Runners        []RunnerSnapshot // One per selection
}

// Market is a market found in the catalogue by discovery.
type Market struct {
	MarketID        string // Exchange market ID
	MarketName      string // e.g. "Match Odds"
	EventID         string
	EventName       string // e.g. "Arsenal v Chelsea"
	CompetitionID   string
	CompetitionName string
	StartTime       int64 // Scheduled start (µs since epoch), 0 if unknown
	TotalMatched    int64 // Pence, as of discovery
}
