package broker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"

	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
)

// SuccessMessage is the confirmation returned by a direct delivery.
const SuccessMessage = "Data sent successfully :D"

// RedpandaTransport produces directly to Kafka-compatible brokers using franz-go.
type RedpandaTransport struct {
	client *kgo.Client
	mu     sync.RWMutex
	closed bool
}

// NewRedpandaTransport creates a producer client from the Kafka settings.
// The client connects lazily; connection problems surface from Deliver.
func NewRedpandaTransport(cfg config.KafkaConfig, opts ...kgo.Opt) (*RedpandaTransport, error) {
	kopts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	kopts = append(kopts, opts...)

	client, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaTransport{client: client}, nil
}

func clientOptions(cfg config.KafkaConfig) ([]kgo.Opt, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required (KAFKA_BOOTSTRAP_SERVERS)")
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequestTimeoutOverhead(config.RequestTimeout),
	}
	if cfg.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.UsesTLS() {
		kopts = append(kopts, kgo.DialTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if cfg.UsesSASL() {
		mech, err := saslMechanism(cfg)
		if err != nil {
			return nil, err
		}
		kopts = append(kopts, kgo.SASL(mech))
	}
	return kopts, nil
}

func saslMechanism(cfg config.KafkaConfig) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "PLAIN":
		return plain.Auth{User: cfg.SASLUsername, Pass: cfg.SASLPassword}.AsMechanism(), nil
	case "SCRAM-SHA-256":
		return scram.Auth{User: cfg.SASLUsername, Pass: cfg.SASLPassword}.AsSha256Mechanism(), nil
	case "SCRAM-SHA-512":
		return scram.Auth{User: cfg.SASLUsername, Pass: cfg.SASLPassword}.AsSha512Mechanism(), nil
	}
	return nil, fmt.Errorf("unsupported KAFKA_SASL_MECHANISM %q", cfg.SASLMechanism)
}

// Deliver pings the cluster, then produces the whole batch as one JSON array record.
func (t *RedpandaTransport) Deliver(ctx context.Context, topic string, records []contracts.Record) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return "", ErrClosed
	}

	value, err := json.Marshal(records)
	if err != nil {
		return "", &DeliveryError{Kind: KindProduce, Err: fmt.Errorf("failed to encode records: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	if err := t.client.Ping(ctx); err != nil {
		return "", &DeliveryError{Kind: KindConnection, Err: err}
	}

	record := &kgo.Record{
		Topic: topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	if err := t.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", &DeliveryError{Kind: KindProduce, Err: err}
	}

	return SuccessMessage, nil
}

// Close shuts down the producer client.
func (t *RedpandaTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.client.Close()
	return nil
}
