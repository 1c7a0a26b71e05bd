// Package monitor acquires monitoring snapshots: from the upstream
// collector when it answers, and from a local synthesizer when it does not.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vigia/internal/models"
)

// Source produces one snapshot per call for a company.
type Source interface {
	Fetch(ctx context.Context, company string) (*models.Snapshot, error)
}

// Client fetches snapshots from the upstream monitoring endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the given base URL. An empty base URL is
// allowed; Fetch then always reports the upstream as unavailable.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the current snapshot for a company. Transport errors,
// non-2xx statuses, and undecodable bodies all collapse into a plain error;
// the caller decides how to degrade.
func (c *Client) Fetch(ctx context.Context, company string) (*models.Snapshot, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("monitoring upstream not configured")
	}
	endpoint := fmt.Sprintf("%s/monitoring/?company=%s", c.baseURL, url.QueryEscape(company))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("monitoring upstream returned status %d", resp.StatusCode)
	}
	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding monitoring response: %w", err)
	}
	if len(snap.Devices) == 0 {
		return nil, fmt.Errorf("monitoring response carried no devices")
	}
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now()
	}
	return &snap, nil
}
