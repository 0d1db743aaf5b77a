package mcp

import (
	"sort"

	"sasquatch-backpack/src/usgs"
)

const (
	StrongMagnitude   = 6.0
	ModerateMagnitude = 4.0
)

// TierEarthquakes sorts events strongest first and splits them by magnitude.
// At most limit events are listed per tier.
func TierEarthquakes(quakes []usgs.Earthquake, limit int) (strong, moderate []usgs.Earthquake, minor int, truncated bool) {
	sorted := make([]usgs.Earthquake, len(quakes))
	copy(sorted, quakes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Magnitude > sorted[j].Magnitude
	})

	strong = []usgs.Earthquake{}
	moderate = []usgs.Earthquake{}
	for _, q := range sorted {
		switch {
		case q.Magnitude >= StrongMagnitude:
			if len(strong) < limit {
				strong = append(strong, q)
			} else {
				truncated = true
			}
		case q.Magnitude >= ModerateMagnitude:
			if len(moderate) < limit {
				moderate = append(moderate, q)
			} else {
				truncated = true
			}
		default:
			minor++
		}
	}
	return strong, moderate, minor, truncated
}
