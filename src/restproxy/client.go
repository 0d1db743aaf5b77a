// Package restproxy is a client for the Sasquatch Kafka REST proxy.
// Cluster and topic management go through the v3 API; records are produced through v2.
package restproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
)

const (
	// AvroContentType is the v2 produce body type for Avro-encoded values.
	AvroContentType = "application/vnd.kafka.avro.v2+json"
	// V2Accept is the v2 response type.
	V2Accept = "application/vnd.kafka.v2+json"
)

// ErrNoCluster is returned when the proxy lists no clusters.
var ErrNoCluster = errors.New("no clusters returned by the REST proxy")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to one REST proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the proxy at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

type clusterList struct {
	Data []struct {
		ClusterID string `json:"cluster_id"`
	} `json:"data"`
}

type topicList struct {
	Data []struct {
		TopicName string `json:"topic_name"`
	} `json:"data"`
}

// CreateTopicRequest is the v3 topic creation body.
type CreateTopicRequest struct {
	TopicName         string `json:"topic_name"`
	PartitionsCount   int    `json:"partitions_count"`
	ReplicationFactor int    `json:"replication_factor"`
}

// produceRequest is the v2 produce body. Records keep their {"value": ...} envelope.
type produceRequest struct {
	ValueSchema string             `json:"value_schema"`
	Records     []contracts.Record `json:"records"`
}

// ClusterID returns the identifier of the first cluster the proxy serves.
func (c *Client) ClusterID(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v3/clusters", "", nil)
	if err != nil {
		return "", err
	}

	var clusters clusterList
	if err := json.Unmarshal(body, &clusters); err != nil {
		return "", fmt.Errorf("failed to decode cluster list: %w", err)
	}
	if len(clusters.Data) == 0 {
		return "", ErrNoCluster
	}
	return clusters.Data[0].ClusterID, nil
}

// ListTopics returns the names of every topic in the cluster.
func (c *Client) ListTopics(ctx context.Context, clusterID string) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v3/clusters/"+clusterID+"/topics", "", nil)
	if err != nil {
		return nil, err
	}

	var topics topicList
	if err := json.Unmarshal(body, &topics); err != nil {
		return nil, fmt.Errorf("failed to decode topic list: %w", err)
	}

	names := make([]string, 0, len(topics.Data))
	for _, t := range topics.Data {
		names = append(names, t.TopicName)
	}
	return names, nil
}

// CreateTopic creates a topic and returns the proxy's response text.
func (c *Client) CreateTopic(ctx context.Context, clusterID string, req CreateTopicRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode topic request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v3/clusters/"+clusterID+"/topics", "application/json", payload)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ProduceRecords posts records with their Avro value schema and returns the response text.
func (c *Client) ProduceRecords(ctx context.Context, topic, valueSchema string, records []contracts.Record) (string, error) {
	payload, err := json.Marshal(produceRequest{ValueSchema: valueSchema, Records: records})
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/topics/"+topic, AvroContentType, payload)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if contentType == AvroContentType {
		req.Header.Set("Accept", V2Accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
