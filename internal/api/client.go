package api

import (
	"log/slog"
	"sync/atomic"

	"github.com/rickgao/betfair-exchange/internal/transport"
)

// Default JSON-RPC endpoints.
const (
	DefaultAccountsURL = "https://api.betfair.com/exchange/account/json-rpc/v1"
	DefaultBettingURL  = "https://api.betfair.com/exchange/betting/json-rpc/v1"
)

// TokenSource supplies the credentials attached to every call.
// *session.Manager satisfies it.
type TokenSource interface {
	AppKey() string
	Token() (string, error)
}

// Client provides typed access to the exchange JSON-RPC API.
type Client struct {
	accountsURL string
	bettingURL  string
	tokens      TokenSource
	http        *transport.Client
	logger      *slog.Logger

	nextID atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates an API client that authenticates through tokens.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		accountsURL: DefaultAccountsURL,
		bettingURL:  DefaultBettingURL,
		tokens:      tokens,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = transport.NewClient(transport.WithLogger(c.logger))
	}

	return c
}

// WithAccountsURL overrides the accounts endpoint.
func WithAccountsURL(u string) ClientOption {
	return func(c *Client) {
		c.accountsURL = u
	}
}

// WithBettingURL overrides the betting endpoint.
func WithBettingURL(u string) ClientOption {
	return func(c *Client) {
		c.bettingURL = u
	}
}

// WithTransport sets the transport used for every call.
func WithTransport(t *transport.Client) ClientOption {
	return func(c *Client) {
		c.http = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}
