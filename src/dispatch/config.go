package dispatch

import "sasquatch-backpack/src/config"

// Config is the dispatcher's immutable view of the environment.
type Config struct {
	RestProxyURL      string
	PartitionsCount   int
	ReplicationFactor int
	Namespace         string
	RedisAddress      string
}

// NewConfig projects the application configuration.
func NewConfig(cfg *config.Config) Config {
	return Config{
		RestProxyURL:      cfg.RestProxyURL,
		PartitionsCount:   cfg.PartitionsCount,
		ReplicationFactor: cfg.ReplicationFactor,
		Namespace:         cfg.Namespace,
		RedisAddress:      cfg.RedisURL,
	}
}

// DefaultConfig returns the hardcoded fallbacks.
func DefaultConfig() Config {
	return Config{
		RestProxyURL:      config.DefaultRestProxyURL,
		PartitionsCount:   config.DefaultPartitionsCount,
		ReplicationFactor: config.DefaultReplicationFactor,
		Namespace:         config.DefaultNamespace,
		RedisAddress:      config.DefaultRedisURL,
	}
}
