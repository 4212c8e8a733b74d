// Package geocode is a client for the Azure Maps address search API.
// Requests in a batch run strictly one at a time with a fixed delay
// between them to respect the service rate limit; the delay is pacing,
// not retry-on-failure.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// DefaultBaseURL is the Azure Maps address search endpoint.
const DefaultBaseURL = "https://atlas.microsoft.com/search/address/json"

// DefaultDelay is the fixed pause between batch requests.
const DefaultDelay = 200 * time.Millisecond

// Status classifies a geocoding outcome.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusNotFound     Status = "not_found"
	StatusNoAddress    Status = "no_address"
	StatusRateLimited  Status = "rate_limited"
	StatusUnauthorized Status = "unauthorized"
	StatusTimeout      Status = "timeout"
	StatusError        Status = "error"
)

// Result is the outcome of geocoding one address.
type Result struct {
	Address    string  `json:"address"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Status     Status  `json:"status"`
	Detail     string  `json:"detail,omitempty"`
}

// ProgressFunc receives each completed result with its position in the
// batch.
type ProgressFunc func(done, total int, r *Result)

// Client calls the geocoding service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithDelay overrides the inter-request pacing delay.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a geocoding client with the given subscription key.
func NewClient(key string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		key:        key,
		delay:      DefaultDelay,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Results []struct {
		Score    float64 `json:"score"`
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// Geocode resolves a single address.
func (c *Client) Geocode(ctx context.Context, address string) *Result {
	r := &Result{Address: address}
	if strings.TrimSpace(address) == "" {
		r.Status = StatusNoAddress
		return r
	}

	q := url.Values{}
	q.Set("api-version", "1.0")
	q.Set("subscription-key", c.key)
	q.Set("query", address)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		r.Status = StatusError
		r.Detail = err.Error()
		return r
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			r.Status = StatusTimeout
		} else {
			r.Status = StatusError
		}
		r.Detail = err.Error()
		return r
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		r.Status = StatusUnauthorized
		return r
	case http.StatusTooManyRequests:
		r.Status = StatusRateLimited
		return r
	default:
		r.Status = StatusError
		r.Detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return r
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.Status = StatusError
		r.Detail = err.Error()
		return r
	}
	if len(body.Results) == 0 {
		r.Status = StatusNotFound
		return r
	}

	top := body.Results[0]
	r.Latitude = top.Position.Lat
	r.Longitude = top.Position.Lon
	r.Confidence = top.Score
	r.Status = StatusSuccess
	return r
}

// GeocodeBatch resolves addresses sequentially with the fixed pacing
// delay between requests. Once started the batch runs to completion;
// only context cancellation stops it early.
func (c *Client) GeocodeBatch(ctx context.Context, addresses []string, progress ProgressFunc) []*Result {
	results := make([]*Result, 0, len(addresses))
	for i, addr := range addresses {
		if i > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				log.Warn().Int("done", i).Int("total", len(addresses)).
					Msg("geocode batch cancelled")
				return results
			}
		}
		r := c.Geocode(ctx, addr)
		results = append(results, r)
		if progress != nil {
			progress(i+1, len(addresses), r)
		}
	}
	return results
}

// BuildAddress joins the non-empty address parts with ", ", mirroring
// how the CSV columns (street, street 2, city, zip) are assembled.
func BuildAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// FeaturesFromResults converts successful geocode results into point
// features carrying the address and confidence as properties.
func FeaturesFromResults(results []*Result) []*models.Feature {
	features := make([]*models.Feature, 0, len(results))
	for _, r := range results {
		if r.Status != StatusSuccess {
			continue
		}
		features = append(features, models.NewPointFeature("", r.Latitude, r.Longitude, map[string]any{
			"address":    r.Address,
			"confidence": r.Confidence,
		}))
	}
	return features
}
