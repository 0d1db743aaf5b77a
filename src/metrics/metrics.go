// Package metrics exposes Prometheus collectors for publish outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sasquatch-backpack/src/contracts"
)

// Result labels of backpack_publish_total.
const (
	ResultSucceeded = "succeeded"
	ResultWarning   = "warning"
	ResultError     = "error"
)

// MethodUnknown is the method label for anything but the known publish methods.
const MethodUnknown = "unknown"

// Recorder holds the publish collectors.
type Recorder struct {
	publishTotal     *prometheus.CounterVec
	stepTotal        *prometheus.CounterVec
	recordsDelivered *prometheus.CounterVec
	topicsCreated    *prometheus.CounterVec
	publishDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backpack_publish_total",
				Help: "Number of publish invocations by topic, method and result.",
			},
			[]string{"topic", "method", "result"},
		),
		stepTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backpack_publish_step_total",
				Help: "Number of publish steps reached by step and status.",
			},
			[]string{"step", "status"},
		),
		recordsDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backpack_records_delivered_total",
				Help: "Total number of records delivered to a topic.",
			},
			[]string{"topic"},
		),
		topicsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backpack_topics_created_total",
				Help: "Number of topic creations performed during publishes.",
			},
			[]string{"topic"},
		),
		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backpack_publish_duration_seconds",
				Help:    "Time taken by a publish invocation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	reg.MustRegister(
		r.publishTotal,
		r.stepTotal,
		r.recordsDelivered,
		r.topicsCreated,
		r.publishDuration,
	)
	return r
}

// Observe records one publish outcome.
func (r *Recorder) Observe(topic string, method contracts.PublishMethod, outcome contracts.Outcome, elapsed time.Duration) {
	label := MethodLabel(method)
	r.publishTotal.WithLabelValues(topic, label, Result(outcome)).Inc()
	for _, step := range outcome.Requests.Steps() {
		r.stepTotal.WithLabelValues(step.Name, string(step.Report.Status)).Inc()
	}
	if n := len(outcome.Records); n > 0 {
		r.recordsDelivered.WithLabelValues(topic).Add(float64(n))
	}
	if outcome.TopicCreated {
		r.topicsCreated.WithLabelValues(topic).Inc()
	}
	r.publishDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// Result classifies an outcome for the result label.
func Result(outcome contracts.Outcome) string {
	switch {
	case outcome.Succeeded:
		return ResultSucceeded
	case outcome.HasError():
		return ResultError
	}
	return ResultWarning
}

// MethodLabel keeps the method label bounded; method names come from request bodies.
func MethodLabel(method contracts.PublishMethod) string {
	switch method {
	case contracts.PublishNone, contracts.PublishDirect, contracts.PublishREST:
		return string(method)
	}
	return MethodUnknown
}
