package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize caps how much of a response body is read.
	DefaultMaxResponseSize = 10 << 20
)

// ErrResponseTooLarge is wrapped in a TransportError when a body exceeds the size limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// Client posts raw bodies and returns raw responses.
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	certificates []tls.Certificate
	maxBody      int64

	// Applied to a copy of httpClient once all options have run.
	timeout    time.Duration
	hasTimeout bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a transport client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:  slog.Default(),
		maxBody: DefaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.hasTimeout && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	if len(c.certificates) > 0 {
		c.installCertificates()
	}

	return c
}

// WithTimeout sets the per-request timeout. It applies regardless of option
// order and never modifies a client passed to WithHTTPClient.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithHTTPClient sets a custom HTTP client. Its timeout is kept unless
// WithTimeout is also given.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCertificate presents cert during the TLS handshake (certificate login).
func WithCertificate(cert tls.Certificate) ClientOption {
	return func(c *Client) {
		c.certificates = append(c.certificates, cert)
	}
}

// WithMaxResponseSize sets the maximum number of body bytes read per response.
func WithMaxResponseSize(n int64) ClientOption {
	return func(c *Client) {
		c.maxBody = n
	}
}

// installCertificates clones the underlying transport so a shared
// http.DefaultTransport is never mutated.
func (c *Client) installCertificates() {
	var base *http.Transport
	switch rt := c.httpClient.Transport.(type) {
	case nil:
		base = http.DefaultTransport.(*http.Transport).Clone()
	case *http.Transport:
		base = rt.Clone()
	default:
		c.logger.Warn("custom round tripper, client certificate not installed")
		return
	}

	if base.TLSClientConfig == nil {
		base.TLSClientConfig = &tls.Config{}
	}
	// Clone fills in TLSClientConfig for HTTP/2, so the floor is set here.
	if base.TLSClientConfig.MinVersion == 0 {
		base.TLSClientConfig.MinVersion = tls.VersionTLS12
	}
	base.TLSClientConfig.Certificates = append(base.TLSClientConfig.Certificates, c.certificates...)

	hc := *c.httpClient
	hc.Transport = base
	c.httpClient = &hc
}

// Response is a completed HTTP exchange.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Decode parses the body as JSON into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &TransportError{Op: "decode", URL: r.URL, Err: err}
	}
	return nil
}

// Post sends body to url with the given headers. Exactly one attempt is made.
func (c *Client) Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post", URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{Op: "read", URL: url, Err: err}
	}
	if int64(len(data)) > c.maxBody {
		return nil, &TransportError{Op: "read", URL: url, Err: ErrResponseTooLarge}
	}

	c.logger.Debug("http post",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Call posts body and decodes a 200 response into v. Non-200 responses are
// returned without decoding so the caller can classify them.
func (c *Client) Call(ctx context.Context, url string, header http.Header, body []byte, v any) (*Response, error) {
	resp, err := c.Post(ctx, url, header, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() || v == nil {
		return resp, nil
	}
	if err := resp.Decode(v); err != nil {
		return resp, err
	}
	return resp, nil
}
