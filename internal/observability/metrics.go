package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fannport"

// Metrics holds the bridge's collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	handles  *prometheus.GaugeVec
	epochs   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands handled, by command and outcome.",
			},
			[]string{"command", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command handling duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		handles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "handles",
				Help:      "Live registry handles by kind.",
			},
			[]string{"kind"},
		),
		epochs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "training_epochs_total",
				Help:      "Training epochs run across all models.",
			},
		),
	}
	m.registry.MustRegister(m.commands, m.duration, m.handles, m.epochs)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, status).Inc()
	m.duration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *Metrics) SetHandles(kind string, n int) {
	if m == nil {
		return
	}
	m.handles.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) AddEpochs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.epochs.Add(float64(n))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
