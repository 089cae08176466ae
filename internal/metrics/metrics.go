package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mailcadence/internal/core/domain"
)

// Metrics holds the Prometheus collectors of the scheduling engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Operations           *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	SegmentationDuration prometheus.Histogram
	AudienceSize         prometheus.Histogram
	BatchesTransitioned  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcadence_lifecycle_operations_total",
			Help: "Lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailcadence_lifecycle_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including the transaction",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		SegmentationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailcadence_segmentation_duration_seconds",
			Help:    "Duration of one segmentation pass",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		AudienceSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailcadence_segmentation_audience_size",
			Help:    "Number of prospects selected by one segmentation pass",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		}),
		BatchesTransitioned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcadence_bulk_status_batches_total",
			Help: "Batches moved by the bulk status processor, by target status",
		}, []string{"status"}),
	}
}

// ObserveOperation counts an operation outcome and its duration.
func (m *Metrics) ObserveOperation(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(domain.CodeOf(err))
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveSegmentation records one segmentation pass.
func (m *Metrics) ObserveSegmentation(started time.Time, size int) {
	if m == nil {
		return
	}
	m.SegmentationDuration.Observe(time.Since(started).Seconds())
	m.AudienceSize.Observe(float64(size))
}

// AddTransitioned counts batches moved to status by the bulk processor.
func (m *Metrics) AddTransitioned(status domain.BatchStatus, n int) {
	if m == nil {
		return
	}
	m.BatchesTransitioned.WithLabelValues(string(status)).Add(float64(n))
}
