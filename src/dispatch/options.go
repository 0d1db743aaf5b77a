package dispatch

import (
	"fmt"

	"sasquatch-backpack/src/broker"
	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/metrics"
	"sasquatch-backpack/src/retry"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithTransport registers t for method, replacing any default.
func WithTransport(method contracts.PublishMethod, t broker.Transport) Option {
	return func(d *Dispatcher) error {
		if t == nil {
			return fmt.Errorf("transport for %s cannot be nil", method)
		}
		return d.replaceTransport(method, t)
	}
}

// WithKafka registers a direct connection transport built from cfg.
func WithKafka(cfg config.KafkaConfig) Option {
	return func(d *Dispatcher) error {
		t, err := broker.NewRedpandaTransport(cfg)
		if err != nil {
			return fmt.Errorf("failed to configure direct connection: %w", err)
		}
		return d.replaceTransport(contracts.PublishDirect, t)
	}
}

// replaceTransport installs t and closes the transport it replaces.
// t stays installed when that close fails, so New's cleanup still releases it.
func (d *Dispatcher) replaceTransport(method contracts.PublishMethod, t broker.Transport) error {
	old, ok := d.transports[method]
	d.transports[method] = t
	if !ok {
		return nil
	}
	if err := old.Close(); err != nil {
		return fmt.Errorf("closing replaced %s transport: %w", method, err)
	}
	return nil
}

// WithLogger sets the logger. The default is silent.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) error {
		if l == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		d.logger = l
		return nil
	}
}

// WithMetrics records every outcome on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Dispatcher) error {
		if r == nil {
			return fmt.Errorf("metrics recorder cannot be nil")
		}
		d.metrics = r
		return nil
	}
}

// WithCommitRetry sets the backoff used when writing delivered keys to the cache.
func WithCommitRetry(s retry.Strategy) Option {
	return func(d *Dispatcher) error {
		if s.MaxAttempts < 1 {
			return fmt.Errorf("commit retry needs at least one attempt, got %d", s.MaxAttempts)
		}
		d.commitRetry = s
		return nil
	}
}
