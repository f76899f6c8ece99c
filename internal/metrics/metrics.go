// Package metrics exports the statistics of checks in the Prometheus text format.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// A Recorder accumulates statistics in its own registry.
// It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry
	stats    *prometheus.CounterVec
	results  *prometheus.CounterVec
	duration prometheus.Histogram
}

// New returns a recorder whose metrics are prefixed with namespace.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistic_total",
			Help:      "Statistics of the graphs and their plugins, summed over all checks",
		}, []string{"name"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Checks performed, by status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of checks in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.stats, r.results, r.duration)
	return r
}

// Update adds value to the statistic named key. It implements euf.Statistics.
func (r *Recorder) Update(key string, value uint64) {
	r.stats.WithLabelValues(key).Add(float64(value))
}

// Observe records the outcome of a check that lasted d.
func (r *Recorder) Observe(status string, d time.Duration) {
	r.results.WithLabelValues(status).Inc()
	r.duration.Observe(d.Seconds())
}

// Registry returns the registry holding the metrics of r.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes the metrics to path, in the format of the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "could not write metrics to %q", path)
	}
	return nil
}
