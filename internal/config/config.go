package config

import "time"

// Config is the root configuration for the betfair command.
type Config struct {
	API         APIConfig         `yaml:"api" toml:"api"`
	Credentials CredentialsConfig `yaml:"credentials" toml:"credentials"`
	Session     SessionConfig     `yaml:"session" toml:"session"`
	Recorder    RecorderConfig    `yaml:"recorder" toml:"recorder"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Writer      WriterConfig      `yaml:"writer" toml:"writer"`
}

// APIConfig holds exchange endpoints and HTTP settings.
type APIConfig struct {
	AppKey          string        `yaml:"app_key" toml:"app_key"`
	LoginURL        string        `yaml:"login_url" toml:"login_url"`
	KeepAliveURL    string        `yaml:"keep_alive_url" toml:"keep_alive_url"`
	LogoutURL       string        `yaml:"logout_url" toml:"logout_url"`
	AccountsURL     string        `yaml:"accounts_url" toml:"accounts_url"`
	BettingURL      string        `yaml:"betting_url" toml:"betting_url"`
	Timeout         time.Duration `yaml:"timeout" toml:"timeout"`
	MaxResponseSize int64         `yaml:"max_response_size" toml:"max_response_size"`
}

// CredentialsConfig holds the login identity. Username and password are
// base64-encoded; an empty password is prompted for on the terminal.
type CredentialsConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	CertFile string `yaml:"cert_file" toml:"cert_file"` // Client certificate PEM
	KeyFile  string `yaml:"key_file" toml:"key_file"`   // Client private key PEM
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval" toml:"keep_alive_interval"`
}

// RecorderConfig holds market book poller settings.
type RecorderConfig struct {
	MarketIDs   []string       `yaml:"market_ids" toml:"market_ids"`
	Interval    time.Duration  `yaml:"interval" toml:"interval"`
	BatchSize   int            `yaml:"batch_size" toml:"batch_size"` // Market IDs per listMarketBook call
	Concurrency int            `yaml:"concurrency" toml:"concurrency"`
	Discover    DiscoverConfig `yaml:"discover" toml:"discover"`
}

// DiscoverConfig selects markets to record from the catalogue. Discovery is
// enabled when CompetitionIDs is set.
type DiscoverConfig struct {
	CompetitionIDs    []string      `yaml:"competition_ids" toml:"competition_ids"`
	EventTypeIDs      []string      `yaml:"event_type_ids" toml:"event_type_ids"`
	MarketTypeCodes   []string      `yaml:"market_type_codes" toml:"market_type_codes"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" toml:"reconcile_interval"`
	MaxResults        int           `yaml:"max_results" toml:"max_results"`
}

// Enabled reports whether catalogue discovery is configured.
func (d DiscoverConfig) Enabled() bool {
	return len(d.CompetitionIDs) > 0
}

// DatabaseConfig holds the TimescaleDB connection the recorder writes to.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale" toml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Name     string `yaml:"name" toml:"name"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`
	SSLMode  string `yaml:"ssl_mode" toml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns" toml:"max_conns"`
	MinConns int    `yaml:"min_conns" toml:"min_conns"`
}

// WriterConfig holds batch writer settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size" toml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval" toml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size" toml:"buffer_size"`
}
