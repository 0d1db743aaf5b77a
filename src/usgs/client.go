// Package usgs queries the USGS earthquake catalog and adapts it as a publishable source.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// APIBaseURL is the FDSN event query endpoint of the USGS ComCat catalog.
	APIBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

	fdsnTimeFormat = "2006-01-02T15:04:05"
)

// Client is a USGS FDSN event API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Earthquake is a single catalog event.
type Earthquake struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Depth     float64   `json:"depth"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place,omitempty"`
}

// String formats the event the way the catalog summarizes it.
func (e Earthquake) String() string {
	s := fmt.Sprintf("%s %s (%.3f,%.3f) %.1f km M%.1f",
		e.ID, e.Time.UTC().Format("2006-01-02 15:04:05"), e.Latitude, e.Longitude, e.Depth, e.Magnitude)
	if e.Place != "" {
		s += " " + e.Place
	}
	return s
}

// featureCollection is the GeoJSON shape returned by format=geojson.
type featureCollection struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag   *float64 `json:"mag"`
			Place string   `json:"place"`
			Time  int64    `json:"time"` // milliseconds since epoch
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // longitude, latitude, depth
		} `json:"geometry"`
	} `json:"features"`
}

// NewClient creates a new USGS client. An empty baseURL selects the public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Search returns the events matching q, newest first.
func (c *Client) Search(ctx context.Context, q Query) ([]Earthquake, error) {
	end := c.now().UTC()
	start := end.Add(-q.Duration)

	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("orderby", "time")
	params.Set("starttime", start.Format(fdsnTimeFormat))
	params.Set("endtime", end.Format(fdsnTimeFormat))
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("maxradiuskm", strconv.Itoa(q.Radius))
	params.Set("minmagnitude", strconv.Itoa(q.MinMagnitude))
	params.Set("maxmagnitude", strconv.Itoa(q.MaxMagnitude))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return []Earthquake{}, nil
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrBadQuery, string(body))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	quakes := make([]Earthquake, 0, len(fc.Features))
	for _, f := range fc.Features {
		coords := f.Geometry.Coordinates
		if len(coords) < 3 || f.Properties.Mag == nil {
			// Events without a hypocenter or magnitude cannot be represented in the schema.
			continue
		}
		quakes = append(quakes, Earthquake{
			ID:        f.ID,
			Time:      time.UnixMilli(f.Properties.Time).UTC(),
			Latitude:  coords[1],
			Longitude: coords[0],
			Depth:     coords[2],
			Magnitude: *f.Properties.Mag,
			Place:     f.Properties.Place,
		})
	}

	return quakes, nil
}
