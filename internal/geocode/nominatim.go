package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultEndpoint is the public OpenStreetMap search API.
const DefaultEndpoint = "https://nominatim.openstreetmap.org/search"

type nominatimResult struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// NominatimClient looks places up on a Nominatim-compatible endpoint.
type NominatimClient struct {
	endpoint  string
	limit     int
	userAgent string
	client    *http.Client
	group     singleflight.Group
}

func NewNominatimClient(endpoint string, limit int, timeout time.Duration) *NominatimClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NominatimClient{
		endpoint:  endpoint,
		limit:     limit,
		userAgent: "snacknav/1.0 (+https://github.com/susu3304/snacknav)",
		client:    &http.Client{Timeout: timeout},
	}
}

// Lookup runs the search. Identical concurrent queries share one request.
func (c *NominatimClient) Lookup(ctx context.Context, query string) ([]Candidate, error) {
	ch := c.group.DoChan(query, func() (interface{}, error) {
		// Detached from any single caller so one cancelled keystroke does not
		// fail the others waiting on the same query; the client timeout bounds it.
		return c.fetch(context.WithoutCancel(ctx), query)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Candidate), nil
	}
}

func (c *NominatimClient) fetch(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	out := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		out = append(out, Candidate{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Type:        r.Type,
			Importance:  r.Importance,
		})
	}
	return truncate(out, c.limit), nil
}
