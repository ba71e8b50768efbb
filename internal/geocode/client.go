// Package geocode resolves free-text addresses to coordinates through a
// Google Geocoding compatible HTTP API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stoiyeet/TravelShare/internal/domain"
)

var (
	// ErrNoResults means the upstream answered but found nothing.
	ErrNoResults = errors.New("geocoding failed or no results found")
	// ErrUpstream wraps transport failures and non-2xx upstream answers.
	ErrUpstream = errors.New("geocoding service unavailable")
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL, to which the escaped address is
// appended verbatim, for example ".../geocode/json?key=K&address=".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type response struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location domain.Position `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Lookup returns the position of the first result for address.
func (c *Client) Lookup(ctx context.Context, address string) (*domain.Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.QueryEscape(address), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return nil, ErrNoResults
	}

	pos := body.Results[0].Geometry.Location
	return &pos, nil
}
