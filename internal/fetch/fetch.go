// Package fetch retrieves raw snapshot bytes from webcam URLs.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError reports a non-2xx response from a snapshot URL.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Client fetches snapshot bytes with a bounded timeout. Resort webcams
// routinely serve expired or self-signed certificates, so certificate
// verification can be disabled, matching how the cams are consumed by
// their own embed pages.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration, allowInsecureTLS bool) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if allowInsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Fetch retrieves the body at url. No retries: a failed candidate fetch
// skips the source for this cycle only, and the next scheduled run tries
// again.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}
