package broker

import (
	"context"
	"sync"

	"sasquatch-backpack/src/contracts"
)

// InMemoryTransport keeps delivered batches per topic.
type InMemoryTransport struct {
	mu         sync.Mutex
	deliveries map[string][][]contracts.Record
	err        error
	response   string
	calls      int
	closed     bool
}

// NewInMemoryTransport creates a transport answering with SuccessMessage.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{
		deliveries: make(map[string][][]contracts.Record),
		response:   SuccessMessage,
	}
}

// FailWith makes every following Deliver return err.
func (t *InMemoryTransport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

// Deliver stores a copy of the batch.
func (t *InMemoryTransport) Deliver(ctx context.Context, topic string, records []contracts.Record) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	if t.closed {
		return "", ErrClosed
	}
	if t.err != nil {
		return "", t.err
	}

	batch := make([]contracts.Record, len(records))
	copy(batch, records)
	t.deliveries[topic] = append(t.deliveries[topic], batch)
	return t.response, nil
}

// Delivered returns every record delivered to topic, in order.
func (t *InMemoryTransport) Delivered(topic string) []contracts.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []contracts.Record
	for _, batch := range t.deliveries[topic] {
		out = append(out, batch...)
	}
	return out
}

// Calls returns how many times Deliver was invoked.
func (t *InMemoryTransport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *InMemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
