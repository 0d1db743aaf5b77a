// Package dispatch publishes a data source's new records to its Kafka topic.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sasquatch-backpack/src/broker"
	"sasquatch-backpack/src/cache"
	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/logger"
	"sasquatch-backpack/src/metrics"
	"sasquatch-backpack/src/restproxy"
	"sasquatch-backpack/src/retry"
	"sasquatch-backpack/src/source"
)

// commitTimeout bounds the whole cache commit, retries included.
const commitTimeout = 3 * config.RequestTimeout

// Dispatcher runs the publish pipeline for one data source.
// It owns its cache and transports. Publish calls must not overlap.
type Dispatcher struct {
	source      source.DataSource
	cfg         Config
	cache       cache.Cache
	provisioner Provisioner
	transports  map[contracts.PublishMethod]broker.Transport

	topic  string
	schema string

	logger      logger.Logger
	metrics     *metrics.Recorder
	commitRetry retry.Strategy
}

// New builds a dispatcher for src. The schema is rendered here, once.
// c may be nil only for sources that do not use the cache.
// A nil provisioner selects the REST proxy at cfg.RestProxyURL, which also backs the REST_API transport.
func New(src source.DataSource, cfg Config, c cache.Cache, provisioner Provisioner, opts ...Option) (*Dispatcher, error) {
	if src == nil {
		return nil, errors.New("data source cannot be nil")
	}
	if c == nil && src.UsesRedis() {
		return nil, fmt.Errorf("source %s uses the membership cache but none was given", src.TopicName())
	}

	schema, err := source.RenderSchema(src.Schema(), cfg.Namespace, src.TopicName())
	if err != nil {
		return nil, fmt.Errorf("failed to render schema for %s: %w", src.TopicName(), err)
	}

	proxy := restproxy.NewClient(cfg.RestProxyURL)
	if provisioner == nil {
		provisioner = NewRestProvisioner(proxy, cfg)
	}

	d := &Dispatcher{
		source:      src,
		cfg:         cfg,
		cache:       c,
		provisioner: provisioner,
		transports: map[contracts.PublishMethod]broker.Transport{
			contracts.PublishREST: broker.NewRestTransport(proxy, schema),
		},
		topic:       contracts.FullTopicName(cfg.Namespace, src.TopicName()),
		schema:      schema,
		logger:      logger.NewSilentLogger(),
		commitRetry: retry.DefaultStrategy(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			d.closeTransports()
			return nil, err
		}
	}
	return d, nil
}

// Topic returns the fully-qualified topic name.
func (d *Dispatcher) Topic() string { return d.topic }

// Schema returns the rendered schema.
func (d *Dispatcher) Schema() string { return d.schema }

// Publish runs check topic, create topic, fetch and filter, deliver, and commit, in that order.
// Failures are reported in the outcome; Publish never returns an error.
func (d *Dispatcher) Publish(ctx context.Context, method contracts.PublishMethod, force bool) contracts.Outcome {
	start := time.Now()
	outcome := d.publish(ctx, method, force)
	elapsed := time.Since(start)

	if d.metrics != nil {
		d.metrics.Observe(d.topic, method, outcome, elapsed)
	}

	if step, failed := outcome.FailedStep(); failed {
		d.logger.Error("publish to %s via %s failed at %s: %s", d.topic, method, step.Name, step.Report.Message)
	} else if outcome.Succeeded {
		d.logger.Info("published %d records to %s via %s in %v", len(outcome.Records), d.topic, method, elapsed)
	} else {
		d.logger.Warn("publish to %s stopped early: %s", d.topic, outcome.Requests.WriteValues.Message)
	}
	return outcome
}

func (d *Dispatcher) publish(ctx context.Context, method contracts.PublishMethod, force bool) contracts.Outcome {
	out := contracts.Outcome{Records: []contracts.Record{}}

	exists, err := d.provisioner.TopicExists(ctx, d.topic)
	if err != nil {
		out.Requests.CheckTopic = contracts.Failure("Error " + err.Error())
		return out
	}
	if exists {
		out.Requests.CheckTopic = contracts.Success(fmt.Sprintf("Topic %s exists", d.topic))
	} else {
		out.Requests.CheckTopic = contracts.Success(fmt.Sprintf("Topic %s does not exist", d.topic))
	}

	if !exists || force {
		resp, err := d.provisioner.CreateTopic(ctx, d.topic)
		if err != nil {
			out.Requests.CreateTopic = contracts.Failure("Error " + err.Error())
			return out
		}
		out.Requests.CreateTopic = contracts.Success(resp)
		out.TopicCreated = true
		d.logger.Info("created topic %s", d.topic)
	} else {
		out.Requests.CreateTopic = contracts.Success(fmt.Sprintf("Topic %s already exists, bypassing creation", d.topic))
	}

	records, keys, report := d.fetchAndFilter(ctx)
	if report != nil {
		out.Requests.WriteValues = report
		return out
	}

	transport, ok := d.transports[method]
	if !ok || method == contracts.PublishNone {
		out.Requests.WriteValues = contracts.Failure(fmt.Sprintf(
			"Error: No publisher found for %s, please specify a valid PublishMethod", method))
		return out
	}

	resp, err := transport.Deliver(ctx, d.topic, records)
	if err != nil {
		out.Requests.WriteValues = contracts.Failure(err.Error())
		return out
	}

	out.Succeeded = true
	out.Requests.WriteValues = contracts.Success(resp)
	out.Records = records

	if d.source.UsesRedis() {
		out.Requests.CommitCache = d.commit(ctx, keys)
	}
	return out
}

// fetchAndFilter returns the records to deliver and their cache keys.
// A non-nil report ends the publish.
func (d *Dispatcher) fetchAndFilter(ctx context.Context) ([]contracts.Record, []string, *contracts.StepReport) {
	records, err := d.source.GetRecords(ctx)
	if err != nil {
		return nil, nil, contracts.Failure(fmt.Sprintf("Error fetching records: %v", err))
	}
	if len(records) == 0 {
		return nil, nil, contracts.Warning("No entries found, aborting publish")
	}
	if !d.source.UsesRedis() {
		return records, nil, nil
	}

	fresh := make([]contracts.Record, 0, len(records))
	keys := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		key, err := d.source.GetRedisKey(record)
		if err != nil {
			return nil, nil, contracts.Failure(fmt.Sprintf("Error querying cache: %v", err))
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		present, err := d.cache.Get(ctx, key)
		if err != nil {
			return nil, nil, contracts.Failure(fmt.Sprintf("Error querying cache: %v", err))
		}
		if present {
			d.logger.Debug("skipping %s, already published", key)
			continue
		}
		fresh = append(fresh, record)
		keys = append(keys, key)
	}

	if len(fresh) == 0 {
		return nil, nil, contracts.Warning("All entries already present, aborting publish")
	}
	return fresh, keys, nil
}

// commit stores every delivered key, continuing past failures so as many as possible are recorded.
// The records are already on the topic, so caller cancellation does not stop the commit.
func (d *Dispatcher) commit(ctx context.Context, keys []string) *contracts.StepReport {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	var firstErr error
	stored := 0
	for _, key := range keys {
		err := d.commitRetry.Do(ctx, func(ctx context.Context) error {
			return d.cache.Store(ctx, key)
		})
		if err != nil {
			d.logger.Warn("failed to store %s (%s): %v", key, d.commitRetry.Schedule(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}

	if firstErr != nil {
		return contracts.Failure(fmt.Sprintf("Error storing keys: %d of %d stored: %v", stored, len(keys), firstErr))
	}
	return contracts.Success(fmt.Sprintf("Stored %d keys", stored))
}

// Close releases the transports and the cache.
func (d *Dispatcher) Close() error {
	errs := d.closeTransports()
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) closeTransports() []error {
	var errs []error
	for method, t := range d.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s transport: %w", method, err))
		}
	}
	return errs
}
