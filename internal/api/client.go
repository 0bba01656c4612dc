package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"

	"github.com/diogo/iqrachat/internal/models"
)

// QueryRequest is one submission to the query service
type QueryRequest struct {
	Text       string
	Attachment *models.Attachment
}

// Querier is the single request/response contract of the remote AI service
type Querier interface {
	Query(ctx context.Context, req QueryRequest) (string, error)
}

// httpDoer is the subset of tls_client.HttpClient the client needs
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote AI query service
type Client struct {
	httpClient   httpDoer
	endpoint     string
	responsePath string
	timeout      time.Duration
	headers      map[string]string
	logger       zerolog.Logger
	mu           sync.RWMutex
	closed       bool
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithResponsePath sets the gjson path of the reply text in a successful payload
func WithResponsePath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.responsePath = path
		}
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHTTPClient replaces the transport (used by tests)
func WithHTTPClient(doer httpDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Client for the given endpoint
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	client := &Client{
		endpoint:     endpoint,
		responsePath: PathResponse,
		timeout:      60 * time.Second,
		headers:      map[string]string{},
		logger:       zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// Endpoint returns the service endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close marks the client closed; later queries fail
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

var _ Querier = (*Client)(nil)
