package dispatch

import (
	"context"
	"errors"
	"sync"

	"sasquatch-backpack/src/broker"
	"sasquatch-backpack/src/cache"
	"sasquatch-backpack/src/contracts"
)

const testTopic = "test_topic"

type fakeSource struct {
	records   []contracts.Record
	err       error
	usesRedis bool
	schema    string
	fetches   int
}

func newFakeSource(usesRedis bool, ids ...string) *fakeSource {
	records := make([]contracts.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, contracts.NewRecord(map[string]any{"id": id}))
	}
	return &fakeSource{
		records:   records,
		usesRedis: usesRedis,
		schema:    `{"namespace": "$namespace", "name": "$topic_name"}`,
	}
}

func (s *fakeSource) TopicName() string { return testTopic }
func (s *fakeSource) Schema() string    { return s.schema }
func (s *fakeSource) UsesRedis() bool   { return s.usesRedis }

func (s *fakeSource) GetRecords(ctx context.Context) ([]contracts.Record, error) {
	s.fetches++
	return s.records, s.err
}

func (s *fakeSource) GetRedisKey(record contracts.Record) (string, error) {
	id, err := record.StringField("id")
	if err != nil {
		return "", err
	}
	return contracts.CacheKey(testTopic, id), nil
}

type fakeProvisioner struct {
	exists      bool
	existsErr   error
	createErr   error
	checkCalls  int
	createCalls int
}

func (p *fakeProvisioner) TopicExists(ctx context.Context, topic string) (bool, error) {
	p.checkCalls++
	return p.exists, p.existsErr
}

func (p *fakeProvisioner) CreateTopic(ctx context.Context, topic string) (string, error) {
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	return `{"topic_name":"` + topic + `"}`, nil
}

// flakyCache wraps an in-memory cache with injectable failures.
type flakyCache struct {
	*cache.InMemoryCache
	mu            sync.Mutex
	getErr        error
	storeFailures int
	storeCalls    int
}

func newFlakyCache() *flakyCache {
	return &flakyCache{InMemoryCache: cache.NewInMemoryCache()}
}

func (c *flakyCache) Get(ctx context.Context, key string) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	return c.InMemoryCache.Get(ctx, key)
}

func (c *flakyCache) Store(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.storeCalls++
	fail := c.storeFailures > 0
	if fail {
		c.storeFailures--
	}
	c.mu.Unlock()

	if fail {
		return errors.New("READONLY You can't write against a read only replica")
	}
	return c.InMemoryCache.Store(ctx, key)
}

// cancelOnDeliver cancels the publish context once the batch is delivered,
// the way an HTTP client hanging up mid-request does.
type cancelOnDeliver struct {
	*broker.InMemoryTransport
	cancel context.CancelFunc
}

func (t *cancelOnDeliver) Deliver(ctx context.Context, topic string, records []contracts.Record) (string, error) {
	resp, err := t.InMemoryTransport.Deliver(ctx, topic, records)
	t.cancel()
	return resp, err
}

// stuckTransport fails to close.
type stuckTransport struct {
	*broker.InMemoryTransport
}

func (t *stuckTransport) Close() error {
	return errors.New("connection pool busy")
}
