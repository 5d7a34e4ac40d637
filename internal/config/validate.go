package config

import (
	"errors"
	"fmt"

	"github.com/rickgao/betfair-exchange/internal/auth"
)

const (
	// maxRecordBatchSize is the listMarketBook limit for EX_BEST_OFFERS.
	maxRecordBatchSize = 40
	// maxDiscoverResults is the listMarketCatalogue maxResults limit.
	maxDiscoverResults = 1000
)

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.API.AppKey == "" {
		return errors.New("api.app_key is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0, got %s", c.API.Timeout)
	}
	if c.API.MaxResponseSize < 1 {
		return errors.New("api.max_response_size must be >= 1")
	}

	if err := c.Credentials.validate("credentials"); err != nil {
		return err
	}

	if c.Session.KeepAliveInterval <= 0 {
		return fmt.Errorf("session.keep_alive_interval must be > 0, got %s", c.Session.KeepAliveInterval)
	}

	return nil
}

// ValidateRecorder checks the extra settings the recorder needs.
func (c *Config) ValidateRecorder() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if len(c.Recorder.MarketIDs) == 0 && !c.Recorder.Discover.Enabled() {
		return errors.New("recorder.market_ids or recorder.discover.competition_ids must be set")
	}
	for i, id := range c.Recorder.MarketIDs {
		if id == "" {
			return fmt.Errorf("recorder.market_ids[%d] is empty", i)
		}
	}
	if c.Recorder.Interval <= 0 {
		return fmt.Errorf("recorder.interval must be > 0, got %s", c.Recorder.Interval)
	}
	if c.Recorder.BatchSize < 1 || c.Recorder.BatchSize > maxRecordBatchSize {
		return fmt.Errorf("recorder.batch_size must be between 1 and %d, got %d", maxRecordBatchSize, c.Recorder.BatchSize)
	}
	if c.Recorder.Concurrency < 1 {
		return errors.New("recorder.concurrency must be >= 1")
	}
	if d := c.Recorder.Discover; d.Enabled() {
		if d.ReconcileInterval <= 0 {
			return fmt.Errorf("recorder.discover.reconcile_interval must be > 0, got %s", d.ReconcileInterval)
		}
		if d.MaxResults < 1 || d.MaxResults > maxDiscoverResults {
			return fmt.Errorf("recorder.discover.max_results must be between 1 and %d, got %d", maxDiscoverResults, d.MaxResults)
		}
	}

	if err := c.Database.Timescale.validate("database.timescale"); err != nil {
		return err
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BufferSize < 1 {
		return errors.New("writer.buffer_size must be >= 1")
	}

	return nil
}

func (cr *CredentialsConfig) validate(prefix string) error {
	if cr.Username != "" {
		if _, err := auth.DecodeSecret(cr.Username); err != nil {
			return fmt.Errorf("%s.username must be base64: %w", prefix, err)
		}
	}
	if cr.Password != "" {
		if _, err := auth.DecodeSecret(cr.Password); err != nil {
			return fmt.Errorf("%s.password must be base64: %w", prefix, err)
		}
	}
	if (cr.CertFile == "") != (cr.KeyFile == "") {
		return fmt.Errorf("%s.cert_file and %s.key_file must be set together", prefix, prefix)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
