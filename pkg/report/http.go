package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSubmitter posts report payloads as JSON to a backend endpoint.
//
// This is the default network collaborator implementation; deployments with
// their own transport satisfy Submitter instead.
type HTTPSubmitter struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewHTTPSubmitter creates a submitter posting to endpoint.
// apiKey, when non-empty, is sent as a bearer token.
func NewHTTPSubmitter(endpoint, apiKey string) *HTTPSubmitter {
	return &HTTPSubmitter{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Submit implements Submitter.
func (h *HTTPSubmitter) Submit(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit report: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("submit report: backend returned %s", resp.Status)
	}
	return nil
}
