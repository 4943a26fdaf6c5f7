// Package trends talks to the discovery API and runs the trend-refresh job.
package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sentinel errors for discovery client failures.
var (
	ErrDiscoveryUnreachable = errors.New("discovery API unreachable")
	ErrDiscoveryTimeout     = errors.New("discovery API timeout")
	ErrDiscoveryQuota       = errors.New("discovery API quota rejected")
	ErrDiscoveryError       = errors.New("discovery API error")
)

// DiscoverRequest defines parameters for one discovery call. APIKey is the
// credential secret charged for the call.
type DiscoverRequest struct {
	Category string
	Country  string
	Limit    int
	APIKey   string
}

// Client is the interface for discovering trending keywords.
type Client interface {
	Discover(ctx context.Context, req DiscoverRequest) ([]string, error)
}

// HTTPClient implements Client against the discovery HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new discovery HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Discover(ctx context.Context, req DiscoverRequest) ([]string, error) {
	params := url.Values{
		"category": {req.Category},
		"geo":      {req.Country},
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	u := fmt.Sprintf("%s/v1/trending?%s", c.baseURL, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrDiscoveryQuota, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrDiscoveryError, resp.StatusCode)
	}

	var body struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding discovery response: %w", err)
	}

	return body.Keywords, nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrDiscoveryTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDiscoveryTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrDiscoveryUnreachable, err)
}

var _ Client = (*HTTPClient)(nil)
