package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLoginURL          = "https://identitysso-cert.betfair.com/api/certlogin"
	DefaultKeepAliveURL      = "https://identitysso.betfair.com/api/keepAlive"
	DefaultLogoutURL         = "https://identitysso.betfair.com/api/logout"
	DefaultAccountsURL       = "https://api.betfair.com/exchange/account/json-rpc/v1"
	DefaultBettingURL        = "https://api.betfair.com/exchange/betting/json-rpc/v1"
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxResponseSize   = 10 << 20
	DefaultKeepAliveInterval = 2 * time.Hour
	DefaultRecordInterval    = 5 * time.Second
	DefaultRecordBatchSize   = 40
	DefaultRecordConcurrency = 4
	DefaultReconcileInterval = 5 * time.Minute
	DefaultDiscoverResults   = 1000
	DefaultEventTypeID       = "1" // Football
	DefaultMarketTypeCode    = "MATCH_ODDS"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultBatchSize         = 500
	DefaultFlushInterval     = 1 * time.Second
	DefaultBufferSize        = 10000
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.LoginURL == "" {
		c.API.LoginURL = DefaultLoginURL
	}
	if c.API.KeepAliveURL == "" {
		c.API.KeepAliveURL = DefaultKeepAliveURL
	}
	if c.API.LogoutURL == "" {
		c.API.LogoutURL = DefaultLogoutURL
	}
	if c.API.AccountsURL == "" {
		c.API.AccountsURL = DefaultAccountsURL
	}
	if c.API.BettingURL == "" {
		c.API.BettingURL = DefaultBettingURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxResponseSize == 0 {
		c.API.MaxResponseSize = DefaultMaxResponseSize
	}

	// Session defaults
	if c.Session.KeepAliveInterval == 0 {
		c.Session.KeepAliveInterval = DefaultKeepAliveInterval
	}

	// Recorder defaults
	if c.Recorder.Interval == 0 {
		c.Recorder.Interval = DefaultRecordInterval
	}
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultRecordBatchSize
	}
	if c.Recorder.Concurrency == 0 {
		c.Recorder.Concurrency = DefaultRecordConcurrency
	}
	applyDiscoverDefaults(&c.Recorder.Discover)

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}
}

func applyDiscoverDefaults(d *DiscoverConfig) {
	if len(d.EventTypeIDs) == 0 {
		d.EventTypeIDs = []string{DefaultEventTypeID}
	}
	if len(d.MarketTypeCodes) == 0 {
		d.MarketTypeCodes = []string{DefaultMarketTypeCode}
	}
	if d.ReconcileInterval == 0 {
		d.ReconcileInterval = DefaultReconcileInterval
	}
	if d.MaxResults == 0 {
		d.MaxResults = DefaultDiscoverResults
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
