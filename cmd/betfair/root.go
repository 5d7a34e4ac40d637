package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickgao/betfair-exchange/internal/config"
	"github.com/rickgao/betfair-exchange/internal/version"
)

// Environment variables consulted for settings the config file leaves empty.
const (
	envAppKey   = "BETFAIR_APP_KEY"
	envUsername = "BETFAIR_USERNAME"
	envPassword = "BETFAIR_PASSWORD"
	envCertFile = "BETFAIR_CERT_FILE"
	envKeyFile  = "BETFAIR_KEY_FILE"
)

// app holds state shared by every subcommand.
type app struct {
	// Flags
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger

	// Credential prompts read from here when it is not a terminal.
	in io.Reader
}

func newRootCommand() *cobra.Command {
	return buildRootCommand(&app{in: os.Stdin})
}

func buildRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "betfair",
		Short:         "Betfair exchange client",
		Long:          "Log in to the Betfair exchange, query accounts and markets, and record market books.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file (.yaml, .yml or .toml); without one, settings come from BETFAIR_* env vars")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text",
		"Log format (text, json)")

	root.AddCommand(
		newLoginCommand(a),
		newFundsCommand(a),
		newCompetitionsCommand(a),
		newGamesCommand(a),
		newCatalogueCommand(a),
		newDescribeCommand(a),
		newBookCommand(a),
		newRecordCommand(a),
		newDemoCommand(a),
		newVersionCommand(),
	)

	return root
}

// setup configures logging and, for commands that talk to the exchange,
// loads and validates the config.
func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	if !needsConfig(cmd) {
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger.Debug("starting betfair",
		"command", cmd.Name(),
		"version", version.Version,
		"commit", version.Commit,
	)
	return nil
}

// needsConfig reports whether cmd talks to the exchange.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return false
		}
	}
	return true
}

// loadConfig reads --config if given, otherwise starts from defaults. Empty
// identity settings are then filled from the environment.
func (a *app) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if a.configPath != "" {
		loaded, err := config.LoadWithDefaults(a.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *config.Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&cfg.API.AppKey, envAppKey)
	fill(&cfg.Credentials.Username, envUsername)
	fill(&cfg.Credentials.Password, envPassword)
	fill(&cfg.Credentials.CertFile, envCertFile)
	fill(&cfg.Credentials.KeyFile, envKeyFile)
}

// newLogger builds a text or JSON slog logger writing to w.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
