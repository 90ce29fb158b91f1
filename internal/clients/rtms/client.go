// Package rtms implements the HTTP client for the upstream RTMS record feed.
// The feed exposes the session-wise production rows plus the distinct-value
// filter queries (units → floors → lines → parts). This client is the only
// place that knows the upstream URL layout; the engine consumes plain record
// and option slices.
package rtms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

// FetchQuery narrows a record fetch to a location scope. Zero values mean
// no restriction at that level.
type FetchQuery struct {
	Unit      string
	Floor     string
	Line      string
	Operation string
	Limit     int
}

// Client talks to the upstream RTMS backend.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// New creates an RTMS client for the given base URL.
func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "rtms").Logger(),
	}
}

// envelope is the upstream response wrapper: {"status", "data", "count"}.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// FetchRecords retrieves the current raw production snapshot, optionally
// scoped by query. Records come back untyped; normalization happens in the
// engine, not here.
func (c *Client) FetchRecords(ctx context.Context, q FetchQuery) ([]normalize.RawRecord, error) {
	params := url.Values{}
	if q.Unit != "" {
		params.Set("unit_code", q.Unit)
	}
	if q.Floor != "" {
		params.Set("floor_name", q.Floor)
	}
	if q.Line != "" {
		params.Set("line_name", q.Line)
	}
	if q.Operation != "" {
		params.Set("operation", q.Operation)
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}

	var env envelope
	if err := c.get(ctx, "/api/rtms/records", params, &env); err != nil {
		return nil, err
	}

	var records []normalize.RawRecord
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode record payload: %w", err)
		}
	}
	return records, nil
}

// Units queries the distinct unit codes.
func (c *Client) Units(ctx context.Context) ([]string, error) {
	return c.fetchOptions(ctx, "/api/rtms/filters/units", url.Values{})
}

// Floors queries the distinct floors for a unit.
func (c *Client) Floors(ctx context.Context, unit string) ([]string, error) {
	params := url.Values{}
	params.Set("unit_code", unit)
	return c.fetchOptions(ctx, "/api/rtms/filters/floors", params)
}

// Lines queries the distinct lines for a unit and floor.
func (c *Client) Lines(ctx context.Context, unit, floor string) ([]string, error) {
	params := url.Values{}
	params.Set("unit_code", unit)
	params.Set("floor_name", floor)
	return c.fetchOptions(ctx, "/api/rtms/filters/lines", params)
}

// Parts queries the distinct parts for a unit, floor and line.
func (c *Client) Parts(ctx context.Context, unit, floor, line string) ([]string, error) {
	params := url.Values{}
	params.Set("unit_code", unit)
	params.Set("floor_name", floor)
	params.Set("line_name", line)
	return c.fetchOptions(ctx, "/api/rtms/filters/parts", params)
}

func (c *Client) fetchOptions(ctx context.Context, path string, params url.Values) ([]string, error) {
	var env envelope
	if err := c.get(ctx, path, params, &env); err != nil {
		return nil, err
	}

	var options []string
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &options); err != nil {
			return nil, fmt.Errorf("failed to decode option payload: %w", err)
		}
	}
	return options, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
