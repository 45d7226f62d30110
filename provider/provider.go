package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/echukwudebere/kachifo/models"
)

// Adapter fetches items matching a query from one upstream content source.
// Implementations self-limit to a small top-N and have no side effects
// beyond the outbound call. Failures are always *models.ProviderError.
type Adapter interface {
	Source() models.Source
	Fetch(ctx context.Context, query string) ([]models.RawItem, error)
}

// Client is the shared HTTP helper for adapters: one GET, JSON decode,
// failures classified into provider error kinds.
type Client struct {
	source models.Source
	http   *http.Client
}

func NewClient(source models.Source, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{source: source, http: &http.Client{Timeout: timeout}}
}

// GetJSON performs the request and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &models.ProviderError{Provider: c.source, Kind: models.ProviderErrNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &models.ProviderError{Provider: c.source, Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.ProviderError{
			Provider: c.source,
			Kind:     models.ProviderErrStatus,
			Status:   resp.StatusCode,
			Err:      errors.New(resp.Status),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.ProviderError{Provider: c.source, Kind: models.ProviderErrParse, Err: err}
	}
	return nil
}

func classifyTransport(err error) models.ProviderErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ProviderErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.ProviderErrTimeout
	}
	return models.ProviderErrNetwork
}

// Cap clamps a provider's requested result count, defaulting to 3.
func Cap(max int) int {
	if max <= 0 {
		return 3
	}
	return max
}
