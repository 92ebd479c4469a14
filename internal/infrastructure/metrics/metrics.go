package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calendarease/core/internal/ports"
)

const namespace = "calendarease"

// StoreMetrics exports task store observations to Prometheus
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	records    *prometheus.GaugeVec
}

// NewStoreMetrics creates the collectors and registers them with reg
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of task store operations",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Task store operation duration in seconds, including persistence",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_records",
				Help:      "Number of records held by the task store",
			},
			[]string{"collection"},
		),
	}

	reg.MustRegister(m.operations, m.duration, m.records)
	return m
}

// ObserveOperation implements ports.StoreMetrics
func (m *StoreMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetCollectionSizes implements ports.StoreMetrics
func (m *StoreMetrics) SetCollectionSizes(tasks, voiceNotes int) {
	m.records.WithLabelValues(ports.TasksKey).Set(float64(tasks))
	m.records.WithLabelValues(ports.VoiceNotesKey).Set(float64(voiceNotes))
}

var _ ports.StoreMetrics = (*StoreMetrics)(nil)
