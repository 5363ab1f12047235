package nomad

import (
	"net/http"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/EBB2675/curator/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithOwner sets the entry visibility scope, e.g. "visible" or "public".
func WithOwner(owner string) Option {
	return func(c *Client) {
		if owner != "" {
			c.owner = owner
		}
	}
}

// WithProgramName filters entries by simulation program.
// An empty name disables the filter.
func WithProgramName(name string) Option {
	return func(c *Client) {
		c.programName = name
	}
}

// WithPageSize sets the number of entries requested per page.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBackoffFactory sets the factory building the per-page retry policy.
func WithBackoffFactory(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		if factory != nil {
			c.buildBackoff = factory
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
