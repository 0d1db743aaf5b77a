package usgs

import (
	"context"
	"fmt"

	"sasquatch-backpack/src/contracts"
)

// Searcher runs an earthquake query. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Earthquake, error)
}

// Source is the backpack data source for the USGS earthquake catalog.
type Source struct {
	searcher  Searcher
	query     Query
	topicName string
}

// NewSource creates a source publishing the results of q to the default topic.
func NewSource(searcher Searcher, q Query) *Source {
	return &Source{
		searcher:  searcher,
		query:     q,
		topicName: TopicName,
	}
}

func (s *Source) TopicName() string { return s.topicName }

func (s *Source) Schema() string { return EarthquakeSchema }

// UsesRedis is true: overlapping search windows return the same events on every poll.
func (s *Source) UsesRedis() bool { return true }

// GetRecords queries the catalog and assembles one record per event.
func (s *Source) GetRecords(ctx context.Context) ([]contracts.Record, error) {
	quakes, err := s.searcher.Search(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("a connection error occurred while fetching records: %w", err)
	}
	return Records(quakes), nil
}

// GetRedisKey returns "topic_name:event_id".
func (s *Source) GetRedisKey(record contracts.Record) (string, error) {
	id, err := record.StringField("id")
	if err != nil {
		return "", err
	}
	return contracts.CacheKey(s.topicName, id), nil
}

// Records converts events into publishable records.
func Records(quakes []Earthquake) []contracts.Record {
	records := make([]contracts.Record, 0, len(quakes))
	for _, q := range quakes {
		records = append(records, contracts.NewRecord(map[string]any{
			"timestamp": q.Time.Unix(),
			"id":        q.ID,
			"latitude":  q.Latitude,
			"longitude": q.Longitude,
			"depth":     q.Depth,
			"magnitude": q.Magnitude,
		}))
	}
	return records
}

// Results replays events that were already fetched, so publishing does not query the catalog twice.
type Results []Earthquake

func (r Results) Search(ctx context.Context, q Query) ([]Earthquake, error) {
	return r, nil
}
