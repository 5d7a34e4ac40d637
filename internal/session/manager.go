package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/betfair-exchange/internal/auth"
	"github.com/rickgao/betfair-exchange/internal/transport"
)

// Manager owns one login session and its keep-alive loop.
type Manager struct {
	cfg     Config
	http    *transport.Client
	handler ProbeHandler
	logger  *slog.Logger

	// Probe results queued for the handler goroutine.
	probes chan ProbeResult

	// lifecycleMu serializes Login, Logout and Close, and guards cancel.
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	loops       atomic.Int32

	// Lifetime of the manager; keep-alive loops derive from it.
	ctx  context.Context
	stop context.CancelFunc

	mu     sync.RWMutex
	state  State
	closed bool
}

// New creates a Manager in the unauthenticated state. handler may be nil.
func New(cfg Config, client *transport.Client, handler ProbeHandler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = transport.NewClient(transport.WithLogger(logger))
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = DefaultKeepAliveInterval
	}

	ctx, stop := context.WithCancel(context.Background())
	m := &Manager{
		cfg:     cfg,
		http:    client,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		stop:    stop,
		state: State{
			Phase: PhaseUnauthenticated,
			Since: time.Now(),
		},
	}

	if handler != nil {
		m.probes = make(chan ProbeResult, probeQueueSize)
		go m.dispatchProbes()
	}
	return m
}

// AppKey returns the application key sent with every request.
func (m *Manager) AppKey() string {
	return m.cfg.AppKey
}

// State returns a snapshot of the session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Token returns the current session token.
func (m *Manager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Phase != PhaseAuthenticated {
		return "", ErrNotAuthenticated
	}
	return m.state.Token, nil
}

// Login authenticates with base64-encoded credentials. On success the session
// becomes authenticated and the keep-alive loop is (re)started.
//
// A rejected login leaves an existing session untouched, except when the
// identity service reports an account-level failure (anything other than
// SUCCESS or INVALID_USERNAME_OR_PASSWORD), which moves the manager to
// PhaseFailed and stops the loop.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.isClosed() {
		return ErrClosed
	}

	logger := m.logger.With("attempt", uuid.NewString())

	creds, err := auth.DecodeCredentials(username, password)
	if err != nil {
		logger.Error("login failed - credentials not base64", "error", err)
		return &AuthenticationError{Reason: ReasonBadEncoding, Err: err}
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("X-Application", m.cfg.AppKey)
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	var body loginResponse
	resp, err := m.http.Call(ctx, m.cfg.LoginURL, header, creds.Form(), &body)
	if err != nil {
		logger.Error("login request failed", "error", err)
		return err
	}

	if !resp.OK() {
		logger.Error("login failed - unknown error", "status", resp.StatusCode)
		return &AuthenticationError{Reason: ReasonUnknown, StatusCode: resp.StatusCode}
	}

	switch body.LoginStatus {
	case StatusSuccess:
	case ReasonInvalidCredentials:
		logger.Error("login failed - invalid username or password")
		return &AuthenticationError{Reason: ReasonInvalidCredentials}
	case "":
		logger.Error("login failed - no login status in response")
		return &AuthenticationError{Reason: ReasonUnknown}
	default:
		logger.Error("login failed", "login_status", body.LoginStatus)
		m.stopKeepAlive()
		m.setState(State{Phase: PhaseFailed, Reason: body.LoginStatus})
		return &AuthenticationError{Reason: body.LoginStatus}
	}

	if body.SessionToken == "" {
		logger.Error("login failed - empty session token")
		return &AuthenticationError{Reason: ReasonUnknown}
	}

	// The old loop must be gone before the new token is visible, so a
	// re-login never overlaps two loops.
	m.stopKeepAlive()
	m.setState(State{
		Phase:       PhaseAuthenticated,
		Token:       body.SessionToken,
		LoginStatus: body.LoginStatus,
	})

	logger.Info("login succeeded",
		"login_status", body.LoginStatus,
		"session_token", maskToken(body.SessionToken),
	)

	m.startKeepAlive()
	return nil
}

// Logout ends the session: the keep-alive loop is stopped, the identity
// service is told, and the manager returns to PhaseUnauthenticated even if
// the logout call fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.isClosed() {
		return ErrClosed
	}

	m.stopKeepAlive()

	token, err := m.Token()
	if err != nil {
		// Nothing to end on the server side.
		m.setState(State{Phase: PhaseUnauthenticated})
		return nil
	}

	err = m.sessionCall(ctx, "logout", m.cfg.LogoutURL, token)
	m.setState(State{Phase: PhaseUnauthenticated})
	if err != nil {
		m.logger.Warn("logout failed", "error", err)
		return err
	}

	m.logger.Info("logged out")
	return nil
}

// Close stops the keep-alive loop and releases the manager. It does not call
// the logout endpoint. Close is idempotent; Login after Close returns ErrClosed.
func (m *Manager) Close() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.stop()
	m.stopKeepAlive()
	m.setState(State{Phase: PhaseUnauthenticated})

	m.logger.Debug("session manager closed")
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *Manager) setState(s State) {
	s.Since = time.Now()
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// maskToken keeps enough of a token to correlate log lines.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
