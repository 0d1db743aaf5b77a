package broker

import (
	"context"

	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/restproxy"
)

// RestTransport posts records through the Sasquatch REST proxy with their Avro value schema.
type RestTransport struct {
	client *restproxy.Client
	schema string
}

// NewRestTransport creates a transport posting with the rendered schema.
func NewRestTransport(client *restproxy.Client, schema string) *RestTransport {
	return &RestTransport{client: client, schema: schema}
}

// Deliver returns the proxy's response text on success.
func (t *RestTransport) Deliver(ctx context.Context, topic string, records []contracts.Record) (string, error) {
	resp, err := t.client.ProduceRecords(ctx, topic, t.schema, records)
	if err != nil {
		return "", &DeliveryError{Kind: KindPost, Err: err}
	}
	return resp, nil
}

// Close is a no-op; the HTTP client holds no dedicated connections.
func (t *RestTransport) Close() error {
	return nil
}
