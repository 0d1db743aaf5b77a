// Package broker defines the transports that deliver record batches to Kafka.
package broker

import (
	"context"
	"errors"

	"sasquatch-backpack/src/contracts"
)

// Transport delivers a batch of records to a fully-qualified topic.
// Implementations: RedpandaTransport (direct), RestTransport (REST proxy), InMemoryTransport (tests).
type Transport interface {
	// Deliver sends records and returns a human-readable confirmation.
	// A non-nil error means nothing can be assumed delivered.
	Deliver(ctx context.Context, topic string, records []contracts.Record) (string, error)

	// Close releases connections held by the transport.
	Close() error
}

// Kind classifies delivery failures.
type Kind int

const (
	KindConnection Kind = iota + 1
	KindProduce
	KindPost
)

// ErrClosed is returned by Deliver after Close.
var ErrClosed = errors.New("transport is closed")

// DeliveryError is returned by Deliver. Its message is suitable for a step report.
type DeliveryError struct {
	Kind Kind
	Err  error
}

func (e *DeliveryError) Error() string {
	switch e.Kind {
	case KindConnection:
		return "Connection Error :( Check kafka auth secrets.\n" + e.Err.Error()
	case KindProduce:
		return "Error producing records: " + e.Err.Error()
	case KindPost:
		return "Error POSTing data: " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
