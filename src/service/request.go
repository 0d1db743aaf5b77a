package service

import (
	"errors"
	"fmt"
	"time"

	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/usgs"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

// Request is an earthquake search with optional publishing.
// JSON names match the HTTP wrapper's body.
type Request struct {
	Days      int     `json:"days"`
	Hours     int     `json:"hours"`
	Radius    int     `json:"radius"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Lower     int     `json:"lower"`
	Upper     int     `json:"upper"`
	Publish   bool    `json:"publish"`
	Method    string  `json:"method"`
	Force     bool    `json:"force"`
	// CacheURL overrides the configured membership cache address.
	CacheURL string `json:"-"`
}

// DefaultRequest returns the defaults of every optional field.
func DefaultRequest() Request {
	return Request{
		Radius:    usgs.DefaultRadius,
		Latitude:  usgs.DefaultLatitude,
		Longitude: usgs.DefaultLongitude,
		Lower:     usgs.DefaultMinMagnitude,
		Upper:     usgs.DefaultMaxMagnitude,
		Method:    string(contracts.PublishDirect),
	}
}

// Duration is the look-back window.
func (r Request) Duration() time.Duration {
	return time.Duration(r.Days)*24*time.Hour + time.Duration(r.Hours)*time.Hour
}

// Query converts the request into a catalog query.
func (r Request) Query() usgs.Query {
	return usgs.Query{
		Duration:     r.Duration(),
		Radius:       r.Radius,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		MinMagnitude: r.Lower,
		MaxMagnitude: r.Upper,
	}
}

// PublishMethod parses Method.
func (r Request) PublishMethod() contracts.PublishMethod {
	return contracts.ParsePublishMethod(r.Method)
}

// Validate checks the request before anything touches the network.
func (r Request) Validate() error {
	if r.Days < 0 || r.Hours < 0 {
		return fmt.Errorf("%w: Your provided duration (%d days, %d hours) cannot be negative.", ErrInvalidRequest, r.Days, r.Hours)
	}
	if err := r.Query().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
