package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  app_key: my-app-key
  timeout: 10s
credentials:
  username: dXNlcg==
  password: cGFzcw==
  cert_file: /etc/betfair/client-2048.crt
  key_file: /etc/betfair/client-2048.key
session:
  keep_alive_interval: 1h
recorder:
  market_ids: ["1.23456789", "1.98765432"]
  interval: 2s
  discover:
    competition_ids: ["10932509"]
    reconcile_interval: 10m
database:
  timescale:
    host: localhost
    port: 5432
    name: betfair_ts
    user: testuser
    password: testpass
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "my-app-key", cfg.API.AppKey)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.Equal(t, "dXNlcg==", cfg.Credentials.Username)
	require.Equal(t, "/etc/betfair/client-2048.crt", cfg.Credentials.CertFile)
	require.Equal(t, time.Hour, cfg.Session.KeepAliveInterval)
	require.Equal(t, []string{"1.23456789", "1.98765432"}, cfg.Recorder.MarketIDs)
	require.Equal(t, 2*time.Second, cfg.Recorder.Interval)
	require.Equal(t, []string{"10932509"}, cfg.Recorder.Discover.CompetitionIDs)
	require.Equal(t, 10*time.Minute, cfg.Recorder.Discover.ReconcileInterval)
	require.True(t, cfg.Recorder.Discover.Enabled())
	require.Equal(t, "betfair_ts", cfg.Database.Timescale.Name)
}

func TestLoadTOML(t *testing.T) {
	toml := `
[api]
app_key = "my-app-key"
timeout = "15s"

[session]
keep_alive_interval = "30m"

[recorder]
market_ids = ["1.23456789"]
batch_size = 20

[database.timescale]
host = "localhost"
name = "betfair_ts"
user = "testuser"
password = "testpass"
`
	path := writeTempFile(t, "config.toml", toml)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "my-app-key", cfg.API.AppKey)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, 30*time.Minute, cfg.Session.KeepAliveInterval)
	require.Equal(t, []string{"1.23456789"}, cfg.Recorder.MarketIDs)
	require.Equal(t, 20, cfg.Recorder.BatchSize)
	require.Equal(t, "localhost", cfg.Database.Timescale.Host)
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_APP_KEY", "env-app-key")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	tests := []struct {
		file    string
		content string
	}{
		{"config.yaml", `
api:
  app_key: ${TEST_APP_KEY}
database:
  timescale:
    password: ${TEST_DB_PASSWORD}
`},
		{"config.toml", `
[api]
app_key = "${TEST_APP_KEY}"

[database.timescale]
password = "${TEST_DB_PASSWORD}"
`},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			cfg, err := Load(writeTempFile(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Equal(t, "env-app-key", cfg.API.AppKey)
			require.Equal(t, "secret123", cfg.Database.Timescale.Password)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown yaml key", "config.yaml", "api:\n  app_kee: typo\n"},
		{"unknown toml key", "config.toml", "[api]\napp_kee = \"typo\"\n"},
		{"bad yaml", "config.yaml", "api: [unclosed\n"},
		{"bad toml", "config.toml", "[api\n"},
		{"bad duration", "config.yaml", "api:\n  timeout: soon\n"},
		{"unsupported extension", "config.json", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTempFile(t, tt.file, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := LoadWithDefaults(writeTempFile(t, "config.yaml", ""))
	require.NoError(t, err)
	require.Equal(t, DefaultLoginURL, cfg.API.LoginURL)
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
api:
  app_key: my-app-key
database:
  timescale:
    host: localhost
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := LoadWithDefaults(path)
	require.NoError(t, err)

	require.Equal(t, DefaultLoginURL, cfg.API.LoginURL)
	require.Equal(t, DefaultKeepAliveURL, cfg.API.KeepAliveURL)
	require.Equal(t, DefaultLogoutURL, cfg.API.LogoutURL)
	require.Equal(t, DefaultAccountsURL, cfg.API.AccountsURL)
	require.Equal(t, DefaultBettingURL, cfg.API.BettingURL)
	require.Equal(t, DefaultAPITimeout, cfg.API.Timeout)
	require.EqualValues(t, DefaultMaxResponseSize, cfg.API.MaxResponseSize)
	require.Equal(t, 7200*time.Second, cfg.Session.KeepAliveInterval)
	require.Equal(t, DefaultRecordBatchSize, cfg.Recorder.BatchSize)
	require.Equal(t, DefaultRecordConcurrency, cfg.Recorder.Concurrency)
	require.False(t, cfg.Recorder.Discover.Enabled())
	require.Equal(t, []string{"1"}, cfg.Recorder.Discover.EventTypeIDs)
	require.Equal(t, []string{"MATCH_ODDS"}, cfg.Recorder.Discover.MarketTypeCodes)
	require.Equal(t, DefaultReconcileInterval, cfg.Recorder.Discover.ReconcileInterval)
	require.Equal(t, DefaultDBPort, cfg.Database.Timescale.Port)
	require.Equal(t, DefaultMaxConns, cfg.Database.Timescale.MaxConns)
	require.Equal(t, DefaultBatchSize, cfg.Writer.BatchSize)
	require.Equal(t, DefaultFlushInterval, cfg.Writer.FlushInterval)
}

func TestLoadAndValidate(t *testing.T) {
	_, err := LoadAndValidate(writeTempFile(t, "config.yaml", "session:\n  keep_alive_interval: 1h\n"))
	require.EqualError(t, err, "validate config: api.app_key is required")

	cfg, err := LoadAndValidate(writeTempFile(t, "config.yaml", "api:\n  app_key: k\n"))
	require.NoError(t, err)
	require.Equal(t, "k", cfg.API.AppKey)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, DefaultKeepAliveInterval, cfg.Session.KeepAliveInterval)
	require.EqualError(t, cfg.Validate(), "api.app_key is required")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{API: APIConfig{AppKey: "k"}}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing app key",
			mutate:  func(c *Config) { c.API.AppKey = "" },
			wantErr: "api.app_key is required",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.API.Timeout = -time.Second },
			wantErr: "api.timeout must be > 0, got -1s",
		},
		{
			name:    "username not base64",
			mutate:  func(c *Config) { c.Credentials.Username = "not base64!" },
			wantErr: "credentials.username must be base64: illegal base64 data at input byte 3",
		},
		{
			name:    "cert without key",
			mutate:  func(c *Config) { c.Credentials.CertFile = "/etc/client.crt" },
			wantErr: "credentials.cert_file and credentials.key_file must be set together",
		},
		{
			name:    "zero keep alive interval",
			mutate:  func(c *Config) { c.Session.KeepAliveInterval = -time.Minute },
			wantErr: "session.keep_alive_interval must be > 0, got -1m0s",
		},
		{
			name: "valid config",
			mutate: func(c *Config) {
				c.Credentials = CredentialsConfig{
					Username: "dXNlcg==",
					Password: "cGFzcw==",
					CertFile: "/etc/client.crt",
					KeyFile:  "/etc/client.key",
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidateRecorder(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			API:      APIConfig{AppKey: "k"},
			Recorder: RecorderConfig{MarketIDs: []string{"1.1"}},
			Database: DatabaseConfig{
				Timescale: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "base validation runs first",
			mutate:  func(c *Config) { c.API.AppKey = "" },
			wantErr: "api.app_key is required",
		},
		{
			name:    "no markets",
			mutate:  func(c *Config) { c.Recorder.MarketIDs = nil },
			wantErr: "recorder.market_ids or recorder.discover.competition_ids must be set",
		},
		{
			name: "discovery only",
			mutate: func(c *Config) {
				c.Recorder.MarketIDs = nil
				c.Recorder.Discover.CompetitionIDs = []string{"10932509"}
			},
		},
		{
			name: "discovery max results",
			mutate: func(c *Config) {
				c.Recorder.Discover.CompetitionIDs = []string{"10932509"}
				c.Recorder.Discover.MaxResults = 1001
			},
			wantErr: "recorder.discover.max_results must be between 1 and 1000, got 1001",
		},
		{
			name: "discovery interval",
			mutate: func(c *Config) {
				c.Recorder.Discover.CompetitionIDs = []string{"10932509"}
				c.Recorder.Discover.ReconcileInterval = -time.Second
			},
			wantErr: "recorder.discover.reconcile_interval must be > 0, got -1s",
		},
		{
			name:    "blank market id",
			mutate:  func(c *Config) { c.Recorder.MarketIDs = []string{"1.1", ""} },
			wantErr: "recorder.market_ids[1] is empty",
		},
		{
			name:    "batch too large",
			mutate:  func(c *Config) { c.Recorder.BatchSize = 41 },
			wantErr: "recorder.batch_size must be between 1 and 40, got 41",
		},
		{
			name:    "missing timescale host",
			mutate:  func(c *Config) { c.Database.Timescale.Host = "" },
			wantErr: "database.timescale.host is required",
		},
		{
			name:    "missing timescale password",
			mutate:  func(c *Config) { c.Database.Timescale.Password = "" },
			wantErr: "database.timescale.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Timescale.MaxConns = 5
				c.Database.Timescale.MinConns = 10
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "writer batch size",
			mutate:  func(c *Config) { c.Writer.BatchSize = -1 },
			wantErr: "writer.batch_size must be >= 1",
		},
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.ValidateRecorder()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("BETFAIR_APP_KEY", "example-key")
	t.Setenv("BETFAIR_USERNAME", "dXNlcg==")
	t.Setenv("TIMESCALE_PASSWORD", "secret")

	cfg, err := LoadAndValidate(filepath.Join("..", "..", "configs", "betfair.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateRecorder())

	require.Equal(t, "example-key", cfg.API.AppKey)
	require.Empty(t, cfg.Credentials.Password)
	require.True(t, cfg.Recorder.Discover.Enabled())
	require.Equal(t, "secret", cfg.Database.Timescale.Password)
}
