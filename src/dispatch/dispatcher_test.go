package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sasquatch-backpack/src/broker"
	"sasquatch-backpack/src/cache"
	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/metrics"
	"sasquatch-backpack/src/retry"
)

const fullTopic = "lsst.backpack.test_topic"

type harness struct {
	src         *fakeSource
	cache       *flakyCache
	provisioner *fakeProvisioner
	transport   *broker.InMemoryTransport
	dispatcher  *Dispatcher
}

func newHarness(t *testing.T, src *fakeSource, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		src:         src,
		cache:       newFlakyCache(),
		provisioner: &fakeProvisioner{exists: true},
		transport:   broker.NewInMemoryTransport(),
	}

	fast := retry.Strategy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 2}
	opts = append([]Option{
		WithTransport(contracts.PublishDirect, h.transport),
		WithCommitRetry(fast),
	}, opts...)

	d, err := New(src, DefaultConfig(), h.cache, h.provisioner, opts...)
	require.NoError(t, err)
	h.dispatcher = d
	return h
}

func (h *harness) publish(force bool) contracts.Outcome {
	return h.dispatcher.Publish(context.Background(), contracts.PublishDirect, force)
}

func ids(t *testing.T, records []contracts.Record) []string {
	t.Helper()
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, err := r.StringField("id")
		require.NoError(t, err)
		out = append(out, id)
	}
	return out
}

func TestPublish_DeliversOnlyUncachedRecords(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"))
	ctx := context.Background()
	require.NoError(t, h.cache.Store(ctx, "test_topic:a"))

	out := h.publish(false)

	require.True(t, out.Succeeded)
	assert.Equal(t, []string{"b"}, ids(t, out.Records))
	assert.Equal(t, []string{"b"}, ids(t, h.transport.Delivered(fullTopic)))

	present, err := h.cache.Get(ctx, "test_topic:b")
	require.NoError(t, err)
	assert.True(t, present)

	assert.Equal(t, contracts.StatusSuccess, out.Requests.WriteValues.Status)
	assert.Equal(t, broker.SuccessMessage, out.Requests.WriteValues.Message)
	assert.Equal(t, contracts.Success("Stored 1 keys"), out.Requests.CommitCache)
}

func TestPublish_SuppressesRedelivery(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"))

	first := h.publish(false)
	require.True(t, first.Succeeded)
	assert.Len(t, first.Records, 2)

	second := h.publish(false)
	assert.False(t, second.Succeeded)
	assert.Empty(t, second.Records)
	assert.Equal(t, contracts.Warning("All entries already present, aborting publish"), second.Requests.WriteValues)
	assert.Equal(t, 1, h.transport.Calls())
}

func TestPublish_DeduplicatesWithinBatch(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "a", "b"))

	out := h.publish(false)
	require.True(t, out.Succeeded)
	assert.Equal(t, []string{"a", "b"}, ids(t, out.Records))
}

func TestPublish_EmptyBatch(t *testing.T) {
	h := newHarness(t, newFakeSource(true))

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.StatusWarning, out.Requests.WriteValues.Status)
	assert.Contains(t, out.Requests.WriteValues.Message, "No entries found")
	assert.Nil(t, out.Requests.CommitCache)
	assert.Equal(t, 0, h.transport.Calls())

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"records":[]`)
	assert.Contains(t, string(raw), `"succeeded":false`)
}

func TestPublish_AllCached(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"))
	ctx := context.Background()
	require.NoError(t, h.cache.Store(ctx, "test_topic:a"))
	require.NoError(t, h.cache.Store(ctx, "test_topic:b"))

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.StatusWarning, out.Requests.WriteValues.Status)
	assert.Empty(t, out.Records)
	assert.Equal(t, 0, h.transport.Calls())
}

func TestPublish_CacheDisabledPassthrough(t *testing.T) {
	h := newHarness(t, newFakeSource(false, "a", "b"))
	ctx := context.Background()
	require.NoError(t, h.cache.Store(ctx, "test_topic:a"))

	out := h.publish(false)

	require.True(t, out.Succeeded)
	assert.Equal(t, []string{"a", "b"}, ids(t, out.Records))
	assert.Nil(t, out.Requests.CommitCache)
	assert.Equal(t, 1, h.cache.Len(), "no keys written after delivery")
	assert.Equal(t, 0, h.cache.storeCalls)
}

func TestPublish_CacheOptionalWhenUnused(t *testing.T) {
	transport := broker.NewInMemoryTransport()
	d, err := New(newFakeSource(false, "a"), DefaultConfig(), nil, &fakeProvisioner{exists: true},
		WithTransport(contracts.PublishDirect, transport))
	require.NoError(t, err)
	defer d.Close()

	out := d.Publish(context.Background(), contracts.PublishDirect, false)
	assert.True(t, out.Succeeded)
}

func TestPublish_TopicCreationGating(t *testing.T) {
	tests := []struct {
		name        string
		exists      bool
		force       bool
		wantCreate  int
		wantCheck   string
		wantMessage string
	}{
		{"exists", true, false, 0, "Topic lsst.backpack.test_topic exists", "Topic lsst.backpack.test_topic already exists, bypassing creation"},
		{"missing", false, false, 1, "Topic lsst.backpack.test_topic does not exist", `{"topic_name":"lsst.backpack.test_topic"}`},
		{"exists forced", true, true, 1, "Topic lsst.backpack.test_topic exists", `{"topic_name":"lsst.backpack.test_topic"}`},
		{"missing forced", false, true, 1, "Topic lsst.backpack.test_topic does not exist", `{"topic_name":"lsst.backpack.test_topic"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, newFakeSource(true, "a"))
			h.provisioner.exists = tt.exists

			out := h.publish(tt.force)

			assert.Equal(t, 1, h.provisioner.checkCalls, "existence is always checked")
			assert.Equal(t, tt.wantCreate, h.provisioner.createCalls)
			assert.Equal(t, contracts.Success(tt.wantCheck), out.Requests.CheckTopic)
			assert.Equal(t, contracts.Success(tt.wantMessage), out.Requests.CreateTopic)
			assert.Equal(t, tt.wantCreate == 1, out.TopicCreated)
			assert.True(t, out.Succeeded)
		})
	}
}

func TestPublish_DeliveryFailureExcludesRecords(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"))
	h.transport.FailWith(&broker.DeliveryError{Kind: broker.KindConnection, Err: errors.New("SASL authentication failed")})

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Empty(t, out.Records)
	assert.Equal(t, contracts.StatusError, out.Requests.WriteValues.Status)
	assert.Equal(t, "Connection Error :( Check kafka auth secrets.\nSASL authentication failed", out.Requests.WriteValues.Message)
	assert.Nil(t, out.Requests.CommitCache)
	assert.Equal(t, 0, h.cache.Len())
}

func TestPublish_CheckTopicError(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a"))
	h.provisioner.existsErr = errors.New("getting cluster ID: connection refused")

	out := h.publish(true)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.Failure("Error getting cluster ID: connection refused"), out.Requests.CheckTopic)
	assert.Nil(t, out.Requests.CreateTopic)
	assert.Nil(t, out.Requests.WriteValues)
	assert.Empty(t, out.Records)
	assert.Equal(t, 0, h.provisioner.createCalls)
	assert.Equal(t, 0, h.src.fetches)
}

func TestPublish_CreateTopicError(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a"))
	h.provisioner.exists = false
	h.provisioner.createErr = errors.New("POSTing data: status 403: forbidden")

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.Failure("Error POSTing data: status 403: forbidden"), out.Requests.CreateTopic)
	assert.False(t, out.TopicCreated)
	assert.Nil(t, out.Requests.WriteValues)
	assert.Equal(t, 0, h.src.fetches)
}

func TestPublish_FetchError(t *testing.T) {
	src := newFakeSource(true)
	src.err = errors.New("a connection error occurred while fetching records: timeout")
	h := newHarness(t, src)

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.StatusError, out.Requests.WriteValues.Status)
	assert.True(t, strings.HasPrefix(out.Requests.WriteValues.Message, "Error fetching records: "))
	assert.Equal(t, 0, h.transport.Calls())
}

func TestPublish_CacheQueryError(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a"))
	h.cache.getErr = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

	out := h.publish(false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.StatusError, out.Requests.WriteValues.Status)
	assert.Contains(t, out.Requests.WriteValues.Message, "Error querying cache: ")
	assert.Equal(t, 0, h.transport.Calls())
}

func TestPublish_BadRecordKey(t *testing.T) {
	src := newFakeSource(true)
	src.records = []contracts.Record{{"not_value": 1}}
	h := newHarness(t, src)

	out := h.publish(false)

	assert.Equal(t, contracts.StatusError, out.Requests.WriteValues.Status)
	assert.Contains(t, out.Requests.WriteValues.Message, "Error querying cache: ")
}

func TestPublish_NoPublisher(t *testing.T) {
	tests := []struct {
		method contracts.PublishMethod
		want   string
	}{
		{contracts.PublishNone, "Error: No publisher found for None, please specify a valid PublishMethod"},
		{contracts.PublishMethod("CARRIER_PIGEON"), "Error: No publisher found for CARRIER_PIGEON, please specify a valid PublishMethod"},
	}

	for _, tt := range tests {
		h := newHarness(t, newFakeSource(true, "a"))

		out := h.dispatcher.Publish(context.Background(), tt.method, false)

		assert.False(t, out.Succeeded)
		assert.Equal(t, contracts.Failure(tt.want), out.Requests.WriteValues)
		assert.Empty(t, out.Records)
		assert.Equal(t, 0, h.cache.Len())
	}
}

func TestPublish_CommitRetries(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"))
	h.cache.storeFailures = 2

	out := h.publish(false)

	require.True(t, out.Succeeded)
	assert.Equal(t, contracts.Success("Stored 2 keys"), out.Requests.CommitCache)
	assert.Equal(t, 4, h.cache.storeCalls)
	assert.Equal(t, 2, h.cache.Len())
}

func TestPublish_CommitFailureKeepsSuccess(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a", "b"), WithCommitRetry(retry.NoRetry()))
	h.cache.storeFailures = 1

	out := h.publish(false)

	assert.True(t, out.Succeeded, "delivery already happened")
	assert.Len(t, out.Records, 2)
	assert.Equal(t, contracts.StatusError, out.Requests.CommitCache.Status)
	assert.Contains(t, out.Requests.CommitCache.Message, "Error storing keys: 1 of 2 stored")
	assert.Equal(t, 1, h.cache.Len())
}

func TestPublish_CommitFailureLogsRetrySchedule(t *testing.T) {
	var buf bytes.Buffer
	strategy := retry.Strategy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 2}
	h := newHarness(t, newFakeSource(true, "a"),
		WithCommitRetry(strategy),
		WithLogger(logger.NewWriterLogger(&buf, "warn")),
	)
	h.cache.storeFailures = 2

	out := h.publish(false)

	assert.Equal(t, contracts.StatusError, out.Requests.CommitCache.Status)
	assert.Contains(t, buf.String(), "failed to store test_topic:a (2 attempts: 1ms)")
}

func TestPublish_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, newFakeSource(true, "a"), WithMetrics(metrics.New(reg)))

	h.publish(false)
	h.publish(false)

	count, err := testutil.GatherAndCount(reg, "backpack_publish_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one succeeded series and one warning series")
}

func TestPublish_UnknownMethodsShareMetricSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newHarness(t, newFakeSource(true, "a"), WithMetrics(metrics.New(reg)))

	for _, method := range []string{"junk-1", "junk-2"} {
		out := h.dispatcher.Publish(context.Background(), contracts.ParsePublishMethod(method), false)
		require.Equal(t, contracts.StatusError, out.Requests.WriteValues.Status)
	}

	count, err := testutil.GatherAndCount(reg, "backpack_publish_total", "backpack_publish_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one unknown series per metric")
}

func TestPublish_CommitSurvivesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport := &cancelOnDeliver{InMemoryTransport: broker.NewInMemoryTransport(), cancel: cancel}
	h := newHarness(t, newFakeSource(true, "a", "b"), WithTransport(contracts.PublishDirect, transport))

	out := h.dispatcher.Publish(ctx, contracts.PublishDirect, false)

	require.True(t, out.Succeeded)
	require.Error(t, ctx.Err())
	assert.Equal(t, contracts.Success("Stored 2 keys"), out.Requests.CommitCache)
	assert.Equal(t, 2, h.cache.Len())
}

func TestNew_ReplacedTransportCloseError(t *testing.T) {
	stuck := &stuckTransport{InMemoryTransport: broker.NewInMemoryTransport()}

	_, err := New(newFakeSource(false), DefaultConfig(), nil, nil,
		WithTransport(contracts.PublishDirect, stuck),
		WithTransport(contracts.PublishDirect, broker.NewInMemoryTransport()),
	)
	assert.ErrorContains(t, err, "closing replaced Direct Connection transport")
	assert.ErrorContains(t, err, "connection pool busy")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig(), cache.NewInMemoryCache(), nil)
	assert.Error(t, err)

	_, err = New(newFakeSource(true, "a"), DefaultConfig(), nil, nil)
	assert.Error(t, err)

	src := newFakeSource(false)
	src.schema = `{"name": "$nope"}`
	_, err = New(src, DefaultConfig(), nil, nil)
	assert.ErrorContains(t, err, "nope")

	_, err = New(newFakeSource(false), DefaultConfig(), nil, nil, WithTransport(contracts.PublishDirect, nil))
	assert.Error(t, err)

	_, err = New(newFakeSource(false), DefaultConfig(), nil, nil, WithCommitRetry(retry.Strategy{}))
	assert.Error(t, err)

	_, err = New(newFakeSource(false), DefaultConfig(), nil, nil, WithKafka(config.KafkaConfig{}))
	assert.ErrorContains(t, err, "direct connection")
}

func TestNew_RendersTopicAndSchema(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Namespace = "lsst.example"

	d, err := New(newFakeSource(false), cfg, nil, nil)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "lsst.example.test_topic", d.Topic())
	assert.Equal(t, `{"namespace": "lsst.example", "name": "test_topic"}`, d.Schema())
}

func TestClose_ClosesCache(t *testing.T) {
	h := newHarness(t, newFakeSource(true, "a"))
	require.NoError(t, h.dispatcher.Close())

	_, err := h.cache.InMemoryCache.Get(context.Background(), "x")
	assert.Error(t, err)
}

// fakeProxy serves the REST proxy endpoints used by the default provisioner and transport.
type fakeProxy struct {
	topics   []string
	produced []map[string]any
}

func (p *fakeProxy) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/clusters", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"cluster_id":"c1"}]}`))
	})
	mux.HandleFunc("/v3/clusters/c1/topics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			p.topics = append(p.topics, req["topic_name"].(string))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"kind":"KafkaTopic"}`))
			return
		}
		var data []map[string]string
		for _, name := range p.topics {
			data = append(data, map[string]string{"topic_name": name})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/topics/", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		p.produced = append(p.produced, body)
		w.Write([]byte(`{"offsets":[{"partition":0,"offset":0}]}`))
	})
	return mux
}

func TestPublish_RestProxyEndToEnd(t *testing.T) {
	proxy := &fakeProxy{}
	server := httptest.NewServer(proxy.handler(t))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.RestProxyURL = server.URL
	store := cache.NewInMemoryCache()

	d, err := New(newFakeSource(true, "a", "b"), cfg, store, nil)
	require.NoError(t, err)
	defer d.Close()

	out := d.Publish(context.Background(), contracts.PublishREST, false)

	require.True(t, out.Succeeded, "%+v", out.Requests)
	assert.True(t, out.TopicCreated)
	assert.Equal(t, []string{fullTopic}, proxy.topics)
	require.Len(t, proxy.produced, 1)
	assert.Equal(t, d.Schema(), proxy.produced[0]["value_schema"])
	assert.Len(t, proxy.produced[0]["records"], 2)
	assert.Contains(t, out.Requests.WriteValues.Message, "offsets")

	again := d.Publish(context.Background(), contracts.PublishREST, false)
	assert.Equal(t, contracts.Success("Topic "+fullTopic+" already exists, bypassing creation"), again.Requests.CreateTopic)
	assert.Equal(t, contracts.StatusWarning, again.Requests.WriteValues.Status)
	assert.Len(t, proxy.produced, 1)
}

func TestPublish_RestProxyUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := DefaultConfig()
	cfg.RestProxyURL = url

	d, err := New(newFakeSource(false, "a"), cfg, nil, nil)
	require.NoError(t, err)

	out := d.Publish(context.Background(), contracts.PublishREST, false)

	assert.False(t, out.Succeeded)
	assert.Equal(t, contracts.StatusError, out.Requests.CheckTopic.Status)
	assert.True(t, strings.HasPrefix(out.Requests.CheckTopic.Message, "Error getting cluster ID: "))
	assert.Nil(t, out.Requests.CreateTopic)
}
