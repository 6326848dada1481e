package vbox

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts tool invocations per subcommand. It is written to a
// node-exporter textfile at exit rather than served.
type Metrics struct {
	calls    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the tool metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vbsnap",
				Subsystem: "tool",
				Name:      "calls_total",
				Help:      "Number of VBoxManage invocations",
			},
			[]string{"subcommand"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vbsnap",
				Subsystem: "tool",
				Name:      "errors_total",
				Help:      "Number of VBoxManage invocations that failed",
			},
			[]string{"subcommand"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vbsnap",
				Subsystem: "tool",
				Name:      "call_duration_seconds",
				Help:      "Duration of VBoxManage invocations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"subcommand"},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.errors, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register tool metrics: %w", err)
		}
	}
	return m, nil
}

// observe records one invocation. A nil receiver records nothing.
func (m *Metrics) observe(subcommand string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(subcommand).Inc()
	if failed {
		m.errors.WithLabelValues(subcommand).Inc()
	}
	m.duration.WithLabelValues(subcommand).Observe(elapsed.Seconds())
}

// WriteTextfile writes everything gathered by g to path in the Prometheus
// text format, atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
