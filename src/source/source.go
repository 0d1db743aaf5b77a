// Package source defines the contract every origin of publishable records implements.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sasquatch-backpack/src/contracts"
)

// DataSource produces records for the dispatcher.
// A source is constructed fresh per invocation and owned by one Dispatcher for the duration of a publish.
type DataSource interface {
	// TopicName identifies the source; combined with the namespace it forms the full topic name.
	TopicName() string

	// Schema is the serialization schema of the records. It may contain $namespace and
	// $topic_name placeholders, rendered once when the dispatcher is built.
	Schema() string

	// UsesRedis reports whether records should be deduplicated through the membership cache.
	// Sources whose GetRecords never repeats an item return false.
	UsesRedis() bool

	// GetRecords returns the current batch of candidate records.
	// Fetching must be idempotent and free of side effects on the origin.
	GetRecords(ctx context.Context) ([]contracts.Record, error)

	// GetRedisKey derives the deterministic cache key of a record, "topic_name:identifier".
	GetRedisKey(record contracts.Record) (string, error)
}

// RenderSchema substitutes $namespace and $topic_name (or their ${...} forms) in a schema template.
// $$ renders a literal $. Any other placeholder is an error, so a typo cannot leak into the wire schema.
func RenderSchema(template, namespace, topicName string) (string, error) {
	var unknown []string
	rendered := os.Expand(template, func(name string) string {
		switch name {
		case "$":
			return "$"
		case "namespace":
			return namespace
		case "topic_name":
			return topicName
		}
		unknown = append(unknown, name)
		return ""
	})

	if len(unknown) > 0 {
		return "", fmt.Errorf("schema contains unknown placeholders: %s", strings.Join(unknown, ", "))
	}
	return rendered, nil
}
