package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/betfair-exchange/internal/database"
	"github.com/rickgao/betfair-exchange/internal/market"
	"github.com/rickgao/betfair-exchange/internal/poller"
	"github.com/rickgao/betfair-exchange/internal/version"
	"github.com/rickgao/betfair-exchange/internal/writer"
)

const (
	recorderShutdownTimeout = 30 * time.Second
	recorderStatsInterval   = time.Minute
)

func newRecordCommand(a *app) *cobra.Command {
	var markets []string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record market books into TimescaleDB",
		Long: "Poll listMarketBook for the configured and discovered markets and append every book to\n" +
			"market_snapshots and runner_prices until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(markets) > 0 {
				a.cfg.Recorder.MarketIDs = markets
			}
			if err := a.cfg.ValidateRecorder(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}
			return a.record(cmd)
		},
	}

	cmd.Flags().StringSliceVar(&markets, "market", nil,
		"Market ID to record, repeatable (overrides recorder.market_ids)")
	return cmd
}

func (a *app) record(cmd *cobra.Command) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg := a.cfg
	logger := a.logger

	logger.Info("starting recorder",
		"version", version.Version,
		"commit", version.Commit,
		"markets", len(cfg.Recorder.MarketIDs),
		"discover", cfg.Recorder.Discover.Enabled(),
		"interval", cfg.Recorder.Interval,
	)

	username, password, err := a.identity(cmd)
	if err != nil {
		return err
	}

	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database.Timescale)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	logger.Info("database connected")

	monitor := newProbeMonitor(logger)
	c, err := a.connect(ctx, "recorder", username, password, monitor)
	if err != nil {
		return err
	}
	defer c.shutdown(true)

	w := writer.NewSnapshotWriter(writer.WriterConfig{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
		BufferSize:    cfg.Writer.BufferSize,
	}, pool, logger)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start writer: %w", err)
	}

	sources := poller.MultiSource{poller.StaticMarkets(cfg.Recorder.MarketIDs)}
	var changes <-chan market.MarketChange
	if d := cfg.Recorder.Discover; d.Enabled() {
		registry := market.NewRegistry(market.Config{
			EventTypeIDs:      d.EventTypeIDs,
			CompetitionIDs:    d.CompetitionIDs,
			MarketTypeCodes:   d.MarketTypeCodes,
			ReconcileInterval: d.ReconcileInterval,
			MaxResults:        d.MaxResults,
		}, c.api, logger)
		if err := registry.Start(ctx); err != nil {
			w.Stop(context.Background())
			return fmt.Errorf("start market registry: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), recorderShutdownTimeout)
			defer cancel()
			registry.Stop(stopCtx)
		}()
		sources = append(sources, registry)
		changes = registry.SubscribeChanges()
	}

	p := poller.New(poller.Config{
		Interval:    cfg.Recorder.Interval,
		BatchSize:   cfg.Recorder.BatchSize,
		Concurrency: cfg.Recorder.Concurrency,
		Timeout:     cfg.API.Timeout,
	}, c.api, sources, w, logger)
	if err := p.Start(ctx); err != nil {
		w.Stop(context.Background())
		return fmt.Errorf("start poller: %w", err)
	}

	logger.Info("recorder running")

	stats := time.NewTicker(recorderStatsInterval)
	defer stats.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-monitor.relogin:
			logger.Warn("session rejected by keep-alive, logging in again")
			if err := c.session.Login(ctx, username, password); err != nil {
				logger.Error("re-login failed", "error", err)
			}
		case change := <-changes:
			if change.Market != nil {
				logger.Info("market added",
					"market_id", change.MarketID,
					"event", change.Market.EventName,
					"market", change.Market.MarketName,
				)
			} else {
				logger.Info("market removed", "market_id", change.MarketID)
			}
		case <-stats.C:
			logRecorderStats(a, p, w)
		}
	}

	logger.Info("shutting down...")

	// Poller first, so the writer's final flush sees every snapshot.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), recorderShutdownTimeout)
	defer cancel()
	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop failed", "error", err)
	}
	if err := w.Stop(shutdownCtx); err != nil {
		logger.Warn("writer stop failed", "error", err)
	}

	logRecorderStats(a, p, w)
	logger.Info("recorder stopped")
	return nil
}

func logRecorderStats(a *app, p *poller.Poller, w *writer.SnapshotWriter) {
	ps := p.Stats()
	ws := w.Stats()
	a.logger.Info("recorder stats",
		"cycles", ps.Cycles,
		"snapshots", ps.Snapshots,
		"poll_errors", ps.Errors,
		"inserts", ws.Inserts,
		"runner_inserts", ws.RunnerInserts,
		"conflicts", ws.Conflicts,
		"write_errors", ws.Errors,
		"dropped", ws.Dropped,
	)
}
