// Package mcp provides the MCP server exposing earthquake search and publishing as tools.
package mcp

import (
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/usgs"
)

// Manifest is the usgs_earthquake_data tool response.
// Strong and moderate events are listed in full; minor events are only counted.
type Manifest struct {
	RequestID string             `json:"request_id"`
	Total     int                `json:"total"`
	Strong    []usgs.Earthquake  `json:"strong"`
	Moderate  []usgs.Earthquake  `json:"moderate"`
	Minor     int                `json:"minor_count"`
	Truncated bool               `json:"truncated"`
	Outcome   *contracts.Outcome `json:"outcome,omitempty"`
}
