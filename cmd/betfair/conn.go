package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rickgao/betfair-exchange/internal/api"
	"github.com/rickgao/betfair-exchange/internal/auth"
	"github.com/rickgao/betfair-exchange/internal/session"
	"github.com/rickgao/betfair-exchange/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// conn is one logged-in session and the API client bound to it.
type conn struct {
	name    string
	session *session.Manager
	api     *api.Client
	logger  *slog.Logger
}

// identity returns the base64 username and password, prompting on the
// terminal for whichever the config and environment left empty. Prompted
// values are kept so later logins do not ask again.
func (a *app) identity(cmd *cobra.Command) (username, password string, err error) {
	creds := &a.cfg.Credentials
	prompt := cmd.ErrOrStderr()
	reader := bufio.NewReader(a.in)

	if creds.Username == "" {
		fmt.Fprint(prompt, "Username: ")
		line, err := readLine(reader)
		if err != nil {
			return "", "", fmt.Errorf("read username: %w", err)
		}
		if line == "" {
			return "", "", errors.New("username is required")
		}
		creds.Username = auth.EncodeSecret(line)
	}

	if creds.Password == "" {
		fmt.Fprint(prompt, "Password: ")
		secret, err := a.readPassword(reader)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		if secret == "" {
			return "", "", errors.New("password is required")
		}
		creds.Password = auth.EncodeSecret(secret)
	}

	return creds.Username, creds.Password, nil
}

// readPassword reads without echo when input is a terminal, otherwise a
// plain line.
func (a *app) readPassword(reader *bufio.Reader) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return readLine(reader)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newTransport builds the HTTP client shared by a session and its API
// client, with the client certificate when one is configured.
func (a *app) newTransport() (*transport.Client, error) {
	opts := []transport.ClientOption{
		transport.WithTimeout(a.cfg.API.Timeout),
		transport.WithMaxResponseSize(a.cfg.API.MaxResponseSize),
		transport.WithLogger(a.logger),
	}
	if a.cfg.Credentials.CertFile != "" {
		cert, err := auth.LoadCertificate(a.cfg.Credentials.CertFile, a.cfg.Credentials.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		opts = append(opts, transport.WithCertificate(cert))
	}
	return transport.NewClient(opts...), nil
}

// connect logs a new session in. handler may be nil.
func (a *app) connect(ctx context.Context, name, username, password string, handler session.ProbeHandler) (*conn, error) {
	tr, err := a.newTransport()
	if err != nil {
		return nil, err
	}

	logger := a.logger.With("session", name)
	mgr := session.New(session.Config{
		AppKey:            a.cfg.API.AppKey,
		LoginURL:          a.cfg.API.LoginURL,
		KeepAliveURL:      a.cfg.API.KeepAliveURL,
		LogoutURL:         a.cfg.API.LogoutURL,
		KeepAliveInterval: a.cfg.Session.KeepAliveInterval,
	}, tr, handler, logger)

	if err := mgr.Login(ctx, username, password); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("login %s: %w", name, err)
	}

	client := api.NewClient(mgr,
		api.WithAccountsURL(a.cfg.API.AccountsURL),
		api.WithBettingURL(a.cfg.API.BettingURL),
		api.WithTransport(tr),
		api.WithLogger(logger),
	)

	return &conn{name: name, session: mgr, api: client, logger: logger}, nil
}

// shutdown optionally logs out, then closes the manager.
func (c *conn) shutdown(logout bool) {
	if logout {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Warn("logout failed", "error", err)
		}
	}
	if err := c.session.Close(); err != nil {
		c.logger.Warn("close session failed", "error", err)
	}
}

// withConn runs fn against a single logged-in session that is logged out
// afterwards. SIGINT/SIGTERM cancel ctx.
func (a *app) withConn(cmd *cobra.Command, fn func(ctx context.Context, c *conn) error) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	username, password, err := a.identity(cmd)
	if err != nil {
		return err
	}

	c, err := a.connect(ctx, "main", username, password, newProbeMonitor(a.logger))
	if err != nil {
		return err
	}
	defer c.shutdown(true)

	return fn(ctx, c)
}

// probeMonitor reports keep-alive probes and asks for a fresh login once
// the identity service says the session is gone.
type probeMonitor struct {
	logger   *slog.Logger
	failures atomic.Int32
	relogin  chan struct{}
}

func newProbeMonitor(logger *slog.Logger) *probeMonitor {
	return &probeMonitor{
		logger:  logger,
		relogin: make(chan struct{}, 1),
	}
}

func (p *probeMonitor) HandleProbe(r session.ProbeResult) {
	if r.Err == nil {
		p.failures.Store(0)
		p.logger.Debug("keep-alive ok", "duration", r.Duration)
		return
	}

	n := p.failures.Add(1)
	p.logger.Error("keep-alive failed",
		"error", r.Err,
		"consecutive_failures", n,
	)

	var sessErr *session.SessionError
	if errors.As(r.Err, &sessErr) {
		select {
		case p.relogin <- struct{}{}:
		default:
		}
	}
}

// Failures returns the number of failed probes since the last success.
func (p *probeMonitor) Failures() int {
	return int(p.failures.Load())
}
