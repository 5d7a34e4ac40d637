package session

import (
	"errors"
	"fmt"
	"time"
)

// Default endpoints and timings.
const (
	DefaultLoginURL          = "https://identitysso-cert.betfair.com/api/certlogin"
	DefaultKeepAliveURL      = "https://identitysso.betfair.com/api/keepAlive"
	DefaultLogoutURL         = "https://identitysso.betfair.com/api/logout"
	DefaultKeepAliveInterval = 2 * time.Hour
)

// Login and keep-alive status values returned by the identity service.
const (
	StatusSuccess = "SUCCESS"
	StatusFail    = "FAIL"
)

// Failure reasons carried by AuthenticationError and SessionError.
const (
	ReasonInvalidCredentials = "INVALID_USERNAME_OR_PASSWORD"
	ReasonUnknown            = "unknown"
	ReasonBadEncoding        = "invalid credential encoding"
)

// Errors
var (
	ErrNotAuthenticated = errors.New("session not authenticated")
	ErrClosed           = errors.New("session manager closed")
)

// AuthenticationError is returned when a login attempt is rejected.
type AuthenticationError struct {
	Reason     string
	StatusCode int   // HTTP status, set for non-200 responses
	Err        error // underlying cause, if any
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("login failed: %s (http %d)", e.Reason, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Reason, e.Err)
	}
	return "login failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// SessionError is returned when the identity service reports that a session
// operation (keep-alive, logout) failed.
type SessionError struct {
	Op         string // "keepAlive" or "logout"
	Reason     string
	StatusCode int
}

func (e *SessionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed: %s (http %d)", e.Op, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

// Phase is the coarse state of a session.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthenticated
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of a manager's session.
type State struct {
	Phase       Phase
	Token       string    // set when authenticated
	LoginStatus string    // set when authenticated
	Reason      string    // set when failed
	Since       time.Time // time of the last transition
}

// Config configures a Manager.
type Config struct {
	AppKey            string
	LoginURL          string
	KeepAliveURL      string
	LogoutURL         string
	KeepAliveInterval time.Duration
}

// DefaultConfig returns production endpoints and a two hour refresh.
func DefaultConfig(appKey string) Config {
	return Config{
		AppKey:            appKey,
		LoginURL:          DefaultLoginURL,
		KeepAliveURL:      DefaultKeepAliveURL,
		LogoutURL:         DefaultLogoutURL,
		KeepAliveInterval: DefaultKeepAliveInterval,
	}
}

// ProbeResult describes one keep-alive probe made by the background loop.
type ProbeResult struct {
	At       time.Time
	Duration time.Duration
	Err      error // nil on success
}

// probeQueueSize bounds results waiting for a slow ProbeHandler.
const probeQueueSize = 16

// ProbeHandler observes keep-alive probes. Results are delivered in order on
// a goroutine owned by the Manager, separate from the keep-alive loop. The
// handler may call Login, Logout or Close on the same Manager; while it runs,
// further results queue up and are dropped once the queue is full.
type ProbeHandler interface {
	HandleProbe(result ProbeResult)
}

// ProbeHandlerFunc is a function adapter for ProbeHandler.
type ProbeHandlerFunc func(ProbeResult)

func (f ProbeHandlerFunc) HandleProbe(r ProbeResult) {
	f(r)
}

// identity service payloads
type loginResponse struct {
	LoginStatus  string `json:"loginStatus"`
	SessionToken string `json:"sessionToken"`
}

type sessionResponse struct {
	Token   string `json:"token"`
	Product string `json:"product"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}
