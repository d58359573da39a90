package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	bestOffset     *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	batchCompleted prometheus.Gauge
	batchTotal     prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yutaiscan_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "code"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yutaiscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		bestOffset: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yutaiscan_best_offset_days",
				Help: "Last computed optimal buy offset per instrument",
			},
			[]string{"code"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yutaiscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		batchCompleted: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yutaiscan_batch_completed",
				Help: "Instruments completed in the active batch run",
			},
		),
		batchTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yutaiscan_batch_total",
				Help: "Instruments in the active batch run",
			},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, code string) {
	r.messagesSent.WithLabelValues(backend, code).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordBestOffset records the optimal offset found for an instrument.
func (r *Recorder) RecordBestOffset(code string, offset int) {
	r.bestOffset.WithLabelValues(code).Set(float64(offset))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordBatchProgress records batch run progress in completion order.
func (r *Recorder) RecordBatchProgress(completed, total int) {
	r.batchCompleted.Set(float64(completed))
	r.batchTotal.Set(float64(total))
}
