package polygon

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.polygon.io"
	// defaultCallTimeout bounds a single transport call. There is no retry;
	// expiry is classified as a transport failure.
	defaultCallTimeout = 15 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=polygon_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues authenticated calls against the Polygon REST API and maps
// every outcome into a classified Outcome. The API key is attached as a
// query credential; its shape is not validated, only the provider's
// response is observed.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// apiKey is the pre-issued query credential.
	apiKey string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// timeout bounds each call.
	timeout time.Duration
	// log receives per-call debug lines.
	log *logrus.Logger
}

// ClientOption is a configuration option for the Polygon client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-call timeout bound.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(log *logrus.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a new Polygon client.
func NewClient(apiKey string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		timeout:    defaultCallTimeout,
		log:        logrus.StandardLogger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}
