// internal/common/http/client.go

// Package http wraps the standard client with a shared timeout so every
// outbound call in the pipeline is bounded the same way.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is the timeout-bound HTTP client; product image downloads flow
// through DoWithContext.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client whose requests all share the given timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
