package api

// JSON-RPC method names.
const (
	methodGetAccountFunds     = "AccountAPING/v1.0/getAccountFunds"
	methodListCompetitions    = "SportsAPING/v1.0/listCompetitions"
	methodListEvents          = "SportsAPING/v1.0/listEvents"
	methodListMarketCatalogue = "SportsAPING/v1.0/listMarketCatalogue"
	methodListMarketBook      = "SportsAPING/v1.0/listMarketBook"
)

// Well-known identifiers and projections.
const (
	EventTypeFootball   = "1"
	MarketTypeMatchOdds = "MATCH_ODDS"
	WalletUK            = "UK"

	ProjectionRunnerDescription = "RUNNER_DESCRIPTION"
	ProjectionEvent             = "EVENT"
	ProjectionCompetition       = "COMPETITION"
	ProjectionMarketStartTime   = "MARKET_START_TIME"

	SortFirstToStart = "FIRST_TO_START"

	PriceDataBestOffers = "EX_BEST_OFFERS"

	OrderProjectionExecutable         = "EXECUTABLE"
	MatchProjectionRolledUpByAvgPrice = "ROLLED_UP_BY_AVG_PRICE"

	// MaxMarketBookIDs is the most market IDs one EX_BEST_OFFERS
	// listMarketBook request may carry.
	MaxMarketBookIDs = 40
)

// MarketFilter selects markets for the betting operations.
type MarketFilter struct {
	TextQuery       string   `json:"textQuery,omitempty"`
	EventTypeIDs    []string `json:"eventTypeIds,omitempty"`
	EventIDs        []string `json:"eventIds,omitempty"`
	CompetitionIDs  []string `json:"competitionIds,omitempty"`
	MarketIDs       []string `json:"marketIds,omitempty"`
	MarketCountries []string `json:"marketCountries,omitempty"`
	MarketTypeCodes []string `json:"marketTypeCodes,omitempty"`
	InPlayOnly      *bool    `json:"inPlayOnly,omitempty"`
}

type filterParams struct {
	Filter MarketFilter `json:"filter"`
}

// AccountFunds from getAccountFunds. Amounts are in the wallet currency.
type AccountFunds struct {
	AvailableToBetBalance float64 `json:"availableToBetBalance"`
	Exposure              float64 `json:"exposure"`
	RetainedCommission    float64 `json:"retainedCommission"`
	ExposureLimit         float64 `json:"exposureLimit"`
	DiscountRate          float64 `json:"discountRate"`
	PointsBalance         int     `json:"pointsBalance"`
	Wallet                string  `json:"wallet"`
}

type accountFundsParams struct {
	Wallet string `json:"wallet,omitempty"`
}

// Competition is a league or tournament.
type Competition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompetitionResult from listCompetitions.
type CompetitionResult struct {
	Competition       Competition `json:"competition"`
	MarketCount       int         `json:"marketCount"`
	CompetitionRegion string      `json:"competitionRegion"`
}

// Event is a single fixture, e.g. "Arsenal v Chelsea".
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Venue       string `json:"venue,omitempty"`
	OpenDate    string `json:"openDate,omitempty"`
}

// EventResult from listEvents.
type EventResult struct {
	Event       Event `json:"event"`
	MarketCount int   `json:"marketCount"`
}

// MarketCatalogueRequest is the parameter set for listMarketCatalogue.
type MarketCatalogueRequest struct {
	Filter           MarketFilter `json:"filter"`
	MarketProjection []string     `json:"marketProjection,omitempty"`
	Sort             string       `json:"sort,omitempty"`
	MaxResults       int          `json:"maxResults"`
}

// MarketCatalogue describes a market and, with RUNNER_DESCRIPTION, its runners.
type MarketCatalogue struct {
	MarketID        string          `json:"marketId"`
	MarketName      string          `json:"marketName"`
	MarketStartTime string          `json:"marketStartTime,omitempty"`
	TotalMatched    float64         `json:"totalMatched"`
	Runners         []RunnerCatalog `json:"runners,omitempty"`
	Event           *Event          `json:"event,omitempty"`
	Competition     *Competition    `json:"competition,omitempty"`
}

// RunnerCatalog describes one selection in a market.
type RunnerCatalog struct {
	SelectionID  int64             `json:"selectionId"`
	RunnerName   string            `json:"runnerName"`
	Handicap     float64           `json:"handicap"`
	SortPriority int               `json:"sortPriority"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PriceProjection selects which price data listMarketBook returns.
type PriceProjection struct {
	PriceData  []string `json:"priceData"`
	Virtualise bool     `json:"virtualise"`
}

// MarketBookRequest is the parameter set for listMarketBook.
type MarketBookRequest struct {
	MarketIDs       []string         `json:"marketIds"`
	PriceProjection *PriceProjection `json:"priceProjection,omitempty"`
	OrderProjection string           `json:"orderProjection,omitempty"`
	MatchProjection string           `json:"matchProjection,omitempty"`
}

// MarketBook is the live state of a market.
type MarketBook struct {
	MarketID              string   `json:"marketId"`
	IsMarketDataDelayed   bool     `json:"isMarketDataDelayed"`
	Status                string   `json:"status"`
	BetDelay              int      `json:"betDelay"`
	Inplay                bool     `json:"inplay"`
	NumberOfWinners       int      `json:"numberOfWinners"`
	NumberOfRunners       int      `json:"numberOfRunners"`
	NumberOfActiveRunners int      `json:"numberOfActiveRunners"`
	LastMatchTime         string   `json:"lastMatchTime,omitempty"`
	TotalMatched          float64  `json:"totalMatched"`
	TotalAvailable        float64  `json:"totalAvailable"`
	Version               int64    `json:"version"`
	Runners               []Runner `json:"runners"`
}

// Runner is one selection's prices within a MarketBook.
type Runner struct {
	SelectionID     int64           `json:"selectionId"`
	Handicap        float64         `json:"handicap"`
	Status          string          `json:"status"`
	LastPriceTraded float64         `json:"lastPriceTraded"`
	TotalMatched    float64         `json:"totalMatched"`
	Ex              *ExchangePrices `json:"ex,omitempty"`
}

// ExchangePrices are the available back/lay ladders, best price first.
type ExchangePrices struct {
	AvailableToBack []PriceSize `json:"availableToBack"`
	AvailableToLay  []PriceSize `json:"availableToLay"`
	TradedVolume    []PriceSize `json:"tradedVolume"`
}

// PriceSize is a decimal price and the amount available at it.
type PriceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}
