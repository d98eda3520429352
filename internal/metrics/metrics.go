// Package metrics exposes Prometheus counters and timers for the vote engine
// and the HTTP layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives engine events. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordVote(targetType, outcome string)
	RecordRetry(operation string)
	RecordDuration(operation string, d time.Duration)
}

// Noop discards all events.
type Noop struct{}

func (Noop) RecordVote(string, string)            {}
func (Noop) RecordRetry(string)                   {}
func (Noop) RecordDuration(string, time.Duration) {}

type Metrics struct {
	registry *prometheus.Registry

	VotesTotal        *prometheus.CounterVec
	StoreRetriesTotal *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them, with the Go and process
// collectors, on a dedicated registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.VotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_votes_total",
		Help: "Vote submissions partitioned by target type and outcome.",
	}, []string{"target_type", "outcome"})

	m.StoreRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackit_store_retries_total",
		Help: "Transactions retried after a conflict or transient store failure.",
	}, []string{"operation"})

	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackit_operation_duration_seconds",
		Help:    "Duration of engine operations including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	for _, c := range []prometheus.Collector{
		m.VotesTotal,
		m.StoreRetriesTotal,
		m.OperationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordVote(targetType, outcome string) {
	m.VotesTotal.WithLabelValues(targetType, outcome).Inc()
}

func (m *Metrics) RecordRetry(operation string) {
	m.StoreRetriesTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
