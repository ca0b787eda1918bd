package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Forwarder delivers a forward message to the next pipeline stage.
type Forwarder interface {
	Forward(ctx context.Context, payload []byte) error
}

// HTTPForwarder posts forward messages to the downstream stage's endpoint.
type HTTPForwarder struct {
	endpoint string
	client   *http.Client
}

// NewHTTPForwarder returns a forwarder for the given downstream endpoint.
func NewHTTPForwarder(endpoint string) *HTTPForwarder {
	return &HTTPForwarder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Forward implements Forwarder.
func (f *HTTPForwarder) Forward(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward to %s: %w", f.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("forward to %s: status %d", f.endpoint, resp.StatusCode)
	}
	return nil
}
