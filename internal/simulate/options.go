package simulate

import (
	"net/http"

	"github.com/okian/auge/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHTTPClient replaces the transport, mainly for tests against an
// in-process server.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			r.client.client = c
		}
	}
}
