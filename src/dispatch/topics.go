package dispatch

import (
	"context"
	"fmt"

	"sasquatch-backpack/src/restproxy"
)

// Provisioner checks for and creates topics.
// Error messages read as the tail of "Error <message>".
type Provisioner interface {
	TopicExists(ctx context.Context, topic string) (bool, error)
	CreateTopic(ctx context.Context, topic string) (string, error)
}

// RestProvisioner manages topics through the REST proxy v3 API.
type RestProvisioner struct {
	client            *restproxy.Client
	partitionsCount   int
	replicationFactor int
}

// NewRestProvisioner creates a provisioner that creates topics with the configured sizing.
func NewRestProvisioner(client *restproxy.Client, cfg Config) *RestProvisioner {
	return &RestProvisioner{
		client:            client,
		partitionsCount:   cfg.PartitionsCount,
		replicationFactor: cfg.ReplicationFactor,
	}
}

// TopicExists reports whether topic is listed in the proxy's first cluster.
func (p *RestProvisioner) TopicExists(ctx context.Context, topic string) (bool, error) {
	clusterID, err := p.client.ClusterID(ctx)
	if err != nil {
		return false, fmt.Errorf("getting cluster ID: %w", err)
	}

	topics, err := p.client.ListTopics(ctx, clusterID)
	if err != nil {
		return false, fmt.Errorf("listing topics: %w", err)
	}

	for _, name := range topics {
		if name == topic {
			return true, nil
		}
	}
	return false, nil
}

// CreateTopic creates topic and returns the proxy's response text.
func (p *RestProvisioner) CreateTopic(ctx context.Context, topic string) (string, error) {
	clusterID, err := p.client.ClusterID(ctx)
	if err != nil {
		return "", fmt.Errorf("getting cluster ID: %w", err)
	}

	resp, err := p.client.CreateTopic(ctx, clusterID, restproxy.CreateTopicRequest{
		TopicName:         topic,
		PartitionsCount:   p.partitionsCount,
		ReplicationFactor: p.replicationFactor,
	})
	if err != nil {
		return "", fmt.Errorf("POSTing data: %w", err)
	}
	return resp, nil
}
