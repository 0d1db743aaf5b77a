package restproxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sasquatch-backpack/src/contracts"
)

func TestClient_ClusterIDAndTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/clusters":
			w.Write([]byte(`{"data":[{"cluster_id":"abc123"},{"cluster_id":"other"}]}`))
		case "/v3/clusters/abc123/topics":
			w.Write([]byte(`{"data":[{"topic_name":"lsst.backpack.usgs_earthquake_data"},{"topic_name":"lsst.other"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	ctx := context.Background()

	id, err := client.ClusterID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	topics, err := client.ListTopics(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"lsst.backpack.usgs_earthquake_data", "lsst.other"}, topics)
}

func TestClient_ClusterIDEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ClusterID(context.Background())
	assert.True(t, errors.Is(err, ErrNoCluster))
}

func TestClient_CreateTopic(t *testing.T) {
	var got CreateTopicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/clusters/abc123/topics", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"topic_name":"lsst.backpack.test"}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).CreateTopic(context.Background(), "abc123", CreateTopicRequest{
		TopicName:         "lsst.backpack.test",
		PartitionsCount:   1,
		ReplicationFactor: 3,
	})
	require.NoError(t, err)
	assert.Contains(t, resp, "lsst.backpack.test")
	assert.Equal(t, CreateTopicRequest{TopicName: "lsst.backpack.test", PartitionsCount: 1, ReplicationFactor: 3}, got)
}

func TestClient_ProduceRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/topics/lsst.backpack.test", r.URL.Path)
		assert.Equal(t, AvroContentType, r.Header.Get("Content-Type"))
		assert.Equal(t, V2Accept, r.Header.Get("Accept"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, `{"type":"record"}`, body["value_schema"])
		assert.Len(t, body["records"], 2)

		w.Write([]byte(`{"offsets":[{"partition":0,"offset":7}]}`))
	}))
	defer server.Close()

	records := []contracts.Record{
		contracts.NewRecord(map[string]any{"id": "a"}),
		contracts.NewRecord(map[string]any{"id": "b"}),
	}
	resp, err := NewClient(server.URL).ProduceRecords(context.Background(), "lsst.backpack.test", `{"type":"record"}`, records)
	require.NoError(t, err)
	assert.Contains(t, resp, "offsets")
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error_code":42201,"message":"schema mismatch"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ProduceRecords(context.Background(), "t", "{}", nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "schema mismatch")
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).ClusterID(context.Background())
	assert.Error(t, err)
}
