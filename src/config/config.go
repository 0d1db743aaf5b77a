// Package config provides configuration management for the backpack tools.
// Every setting is read from the environment with a hardcoded fallback.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRestProxyURL      = "https://data-int.lsst.cloud/sasquatch-rest-proxy"
	DefaultNamespace         = "lsst.backpack"
	DefaultRedisURL          = "redis://localhost:6379/0"
	DefaultUSGSAPIURL        = "https://earthquake.usgs.gov/fdsnws/event/1/query"
	DefaultPartitionsCount   = 1
	DefaultReplicationFactor = 3

	// RequestTimeout bounds every outbound network call.
	RequestTimeout = 10 * time.Second
)

// Config holds the application configuration.
type Config struct {
	// RestProxyURL is the base URL of the Sasquatch REST proxy (topic management and REST publishing).
	RestProxyURL string
	// Namespace prefixes every topic name.
	Namespace string
	// RedisURL is the membership cache address. Despite the name any supported cache scheme is accepted.
	RedisURL          string
	PartitionsCount   int
	ReplicationFactor int

	// USGSAPIURL is the FDSN event query endpoint.
	USGSAPIURL string

	Kafka KafkaConfig

	// HTTPAddr is the listen address of the HTTP wrapper.
	HTTPAddr string
	LogLevel string
}

// KafkaConfig holds the settings for a direct broker connection.
type KafkaConfig struct {
	Brokers          []string
	ClientID         string
	SecurityProtocol string // PLAINTEXT, SSL, SASL_PLAINTEXT, SASL_SSL
	SASLMechanism    string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	SASLUsername     string
	SASLPassword     string
}

// UsesSASL reports whether the security protocol requires SASL authentication.
func (k KafkaConfig) UsesSASL() bool {
	return strings.HasPrefix(strings.ToUpper(k.SecurityProtocol), "SASL_")
}

// UsesTLS reports whether the security protocol requires TLS.
func (k KafkaConfig) UsesTLS() bool {
	p := strings.ToUpper(k.SecurityProtocol)
	return p == "SSL" || p == "SASL_SSL"
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("sasquatch_rest_proxy_url", DefaultRestProxyURL)
	v.SetDefault("backpack_namespace", DefaultNamespace)
	v.SetDefault("backpack_redis_url", DefaultRedisURL)
	v.SetDefault("backpack_partitions_count", DefaultPartitionsCount)
	v.SetDefault("backpack_replication_factor", DefaultReplicationFactor)
	v.SetDefault("usgs_api_url", DefaultUSGSAPIURL)
	v.SetDefault("kafka_bootstrap_servers", "")
	v.SetDefault("kafka_client_id", "sasquatch-backpack")
	v.SetDefault("kafka_security_protocol", "PLAINTEXT")
	v.SetDefault("kafka_sasl_mechanism", "SCRAM-SHA-512")
	v.SetDefault("kafka_sasl_username", "")
	v.SetDefault("kafka_sasl_password", "")
	v.SetDefault("backpack_http_addr", ":8080")
	v.SetDefault("backpack_log_level", "info")
	return v
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	v := newViper()

	cfg := &Config{
		RestProxyURL:      strings.TrimRight(v.GetString("sasquatch_rest_proxy_url"), "/"),
		Namespace:         v.GetString("backpack_namespace"),
		RedisURL:          v.GetString("backpack_redis_url"),
		PartitionsCount:   v.GetInt("backpack_partitions_count"),
		ReplicationFactor: v.GetInt("backpack_replication_factor"),
		USGSAPIURL:        v.GetString("usgs_api_url"),
		Kafka: KafkaConfig{
			Brokers:          splitList(v.GetString("kafka_bootstrap_servers")),
			ClientID:         v.GetString("kafka_client_id"),
			SecurityProtocol: strings.ToUpper(v.GetString("kafka_security_protocol")),
			SASLMechanism:    strings.ToUpper(v.GetString("kafka_sasl_mechanism")),
			SASLUsername:     v.GetString("kafka_sasl_username"),
			SASLPassword:     v.GetString("kafka_sasl_password"),
		},
		HTTPAddr: v.GetString("backpack_http_addr"),
		LogLevel: v.GetString("backpack_log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks values that would make every publish fail.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("BACKPACK_NAMESPACE must not be empty")
	}
	if c.PartitionsCount < 1 {
		return fmt.Errorf("BACKPACK_PARTITIONS_COUNT must be at least 1, got %d", c.PartitionsCount)
	}
	if c.ReplicationFactor < 1 {
		return fmt.Errorf("BACKPACK_REPLICATION_FACTOR must be at least 1, got %d", c.ReplicationFactor)
	}
	switch c.Kafka.SecurityProtocol {
	case "PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL":
	default:
		return fmt.Errorf("unsupported KAFKA_SECURITY_PROTOCOL %q", c.Kafka.SecurityProtocol)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
