package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parkpilot/parkpilot-core/internal/parking"
)

// ErrRemoteFetch wraps every failure mode of the backend config endpoint so
// callers can treat them uniformly.
var ErrRemoteFetch = errors.New("remote config fetch failed")

// HTTPClient fetches location configs from the backend over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a remote config client for the given base URL.
// A zero timeout disables the client-side deadline; callers then bound the
// fetch through the request context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// envelope is the backend response wrapper. A 200 with success=false is a
// semantic failure (unknown location, server-side validation error).
type envelope struct {
	Success bool                    `json:"success"`
	Data    *parking.LocationConfig `json:"data"`
	Message string                  `json:"message,omitempty"`
}

// FetchConfig implements RemoteClient.
func (c *HTTPClient) FetchConfig(ctx context.Context, locationID string) (*parking.LocationConfig, error) {
	endpoint := fmt.Sprintf("%s/public/parking-config/%s", c.baseURL, url.PathEscape(locationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d for %s", ErrRemoteFetch, resp.StatusCode, locationID)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrRemoteFetch, err)
	}
	if !env.Success || env.Data == nil {
		if env.Message != "" {
			return nil, fmt.Errorf("%w: backend rejected %s: %s", ErrRemoteFetch, locationID, env.Message)
		}
		return nil, fmt.Errorf("%w: backend returned no config for %s", ErrRemoteFetch, locationID)
	}

	return env.Data, nil
}
