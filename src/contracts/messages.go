// Package contracts defines the data structures shared between sources, transports and the dispatcher.
package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingValue is returned when a record lacks its mandatory "value" wrapper.
var ErrMissingValue = errors.New("record has no value map")

// Record is a single datapoint ready for publishing.
// Wire shape: {"value": {<domain fields>}}. The "value" wrapper is mandatory;
// it is the unit serialized to the wire format.
type Record map[string]any

// NewRecord wraps domain fields in the mandatory "value" envelope.
func NewRecord(value map[string]any) Record {
	return Record{"value": value}
}

// Value returns the nested domain fields of the record.
func (r Record) Value() (map[string]any, error) {
	raw, ok := r["value"]
	if !ok {
		return nil, ErrMissingValue
	}
	value, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: value is %T", ErrMissingValue, raw)
	}
	return value, nil
}

// StringField returns a string field from the record's value map.
func (r Record) StringField(name string) (string, error) {
	value, err := r.Value()
	if err != nil {
		return "", err
	}
	field, ok := value[name].(string)
	if !ok || field == "" {
		return "", fmt.Errorf("record value has no string field %q", name)
	}
	return field, nil
}

// FullTopicName combines a namespace and a source topic into the fully-qualified topic name.
func FullTopicName(namespace, topicName string) string {
	return namespace + "." + topicName
}

// CacheKey builds the membership cache key for a record identifier.
// Keys are formatted "topic_name:identifier" to keep data from different sources discrete.
func CacheKey(topicName, identifier string) string {
	return topicName + ":" + identifier
}

// PublishMethod selects the transport used to deliver records.
type PublishMethod string

const (
	// PublishNone selects no transport; publishing with it is an error.
	PublishNone PublishMethod = "NONE"

	// PublishDirect connects to the Kafka brokers directly.
	PublishDirect PublishMethod = "DIRECT_CONNECTION"

	// PublishREST posts records through the Sasquatch REST proxy.
	PublishREST PublishMethod = "REST_API"
)

// String returns the human-readable name of the method.
func (m PublishMethod) String() string {
	switch m {
	case PublishNone:
		return "None"
	case PublishDirect:
		return "Direct Connection"
	case PublishREST:
		return "REST API"
	}
	return string(m)
}

// ParsePublishMethod accepts both the enum names and the display names.
// Unrecognized input is returned as-is so the dispatcher can report it.
func ParsePublishMethod(s string) PublishMethod {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	switch normalized {
	case "", "NONE":
		return PublishNone
	case "DIRECT_CONNECTION", "DIRECT":
		return PublishDirect
	case "REST_API", "REST":
		return PublishREST
	}
	return PublishMethod(s)
}
