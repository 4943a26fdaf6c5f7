// Package images looks up illustration URLs for generated articles. Image
// lookup is decorative: every failure is soft and articles publish without a
// media reference.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Client interface {
	// Search returns an image URL for the keyword, or an error when the
	// provider has nothing usable. Callers treat errors as "no image".
	Search(ctx context.Context, keyword string) (string, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Client = (*HTTPClient)(nil)

type searchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

func (c *HTTPClient) Search(ctx context.Context, keyword string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/search?query=%s&per_page=1", c.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building image search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding image search response: %w", err)
	}
	if len(body.Results) == 0 {
		return "", fmt.Errorf("no image found for %q", keyword)
	}
	return body.Results[0].URL, nil
}

// Noop is used when no image provider is configured.
type Noop struct{}

var _ Client = Noop{}

func (Noop) Search(context.Context, string) (string, error) {
	return "", fmt.Errorf("image lookup disabled")
}
