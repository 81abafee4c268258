// Package metrics records programmer transactions in Prometheus collectors
// and writes them out in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements programmer.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	bytes        *prometheus.CounterVec
}

// New creates a Recorder. port labels every series.
func New(port string) *Recorder {
	labels := prometheus.Labels{"port": port}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "eeprog",
				Subsystem:   "programmer",
				Name:        "transactions_total",
				Help:        "Wire transactions by kind and response status.",
				ConstLabels: labels,
			},
			[]string{"kind", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "eeprog",
				Subsystem:   "programmer",
				Name:        "transaction_duration_seconds",
				Help:        "Wire transaction duration in seconds.",
				Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "eeprog",
				Subsystem:   "programmer",
				Name:        "payload_bytes_total",
				Help:        "Payload bytes moved by direction.",
				ConstLabels: labels,
			},
			[]string{"direction"},
		),
	}
	r.registry.MustRegister(r.transactions, r.duration, r.bytes)
	return r
}

func (r *Recorder) Transaction(kind string, status string, elapsed time.Duration) {
	r.transactions.WithLabelValues(kind, status).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Recorder) Bytes(direction string, n int) {
	if n <= 0 {
		return
	}
	r.bytes.WithLabelValues(direction).Add(float64(n))
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every series to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
