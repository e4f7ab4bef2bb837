// Package metrics exposes queue and notification metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"lineup/queue-engine/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type statsSource interface {
	Stats() []domain.Statistics
}

type bufferSource interface {
	Len() int
}

// Metrics collects per-business queue gauges on scrape and counts
// notification outcomes as they are recorded.
type Metrics struct {
	queues statsSource
	buffer bufferSource

	activeEntries *prometheus.Desc
	peakLength    *prometheus.Desc
	servedTotal   *prometheus.Desc
	avgWait       *prometheus.Desc
	bufferedDesc  *prometheus.Desc

	outcomes *prometheus.CounterVec
	registry *prometheus.Registry
}

func New(queues statsSource, buffer bufferSource) *Metrics {
	m := &Metrics{
		queues: queues,
		buffer: buffer,
		activeEntries: prometheus.NewDesc(
			"lineup_queue_active_entries",
			"Number of waiting and notified entries per business",
			[]string{"business_id"}, nil,
		),
		peakLength: prometheus.NewDesc(
			"lineup_queue_peak_length",
			"Largest active queue length seen per business",
			[]string{"business_id"}, nil,
		),
		servedTotal: prometheus.NewDesc(
			"lineup_queue_served_total",
			"Entries served per business since the engine was created",
			[]string{"business_id"}, nil,
		),
		avgWait: prometheus.NewDesc(
			"lineup_queue_avg_wait_seconds",
			"Mean time from join to served per business",
			[]string{"business_id"}, nil,
		),
		bufferedDesc: prometheus.NewDesc(
			"lineup_notification_buffered_intents",
			"Intents waiting for a dispatcher worker",
			nil, nil,
		),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lineup_notification_outcomes_total",
			Help: "Notification outcomes by status and reason",
		}, []string{"status", "reason"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m, m.outcomes)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Record counts an outcome. It never fails.
func (m *Metrics) Record(_ context.Context, outcome domain.NotificationOutcome) error {
	m.outcomes.WithLabelValues(string(outcome.Status), string(outcome.Reason)).Inc()
	return nil
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.activeEntries
	ch <- m.peakLength
	ch <- m.servedTotal
	ch <- m.avgWait
	ch <- m.bufferedDesc
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, s := range m.queues.Stats() {
		ch <- prometheus.MustNewConstMetric(m.activeEntries, prometheus.GaugeValue, float64(s.CurrentQueueLength), s.BusinessID)
		ch <- prometheus.MustNewConstMetric(m.peakLength, prometheus.GaugeValue, float64(s.PeakQueueLength), s.BusinessID)
		ch <- prometheus.MustNewConstMetric(m.servedTotal, prometheus.CounterValue, float64(s.TotalServed), s.BusinessID)
		ch <- prometheus.MustNewConstMetric(m.avgWait, prometheus.GaugeValue, s.AvgWaitTime.Seconds(), s.BusinessID)
	}
	if m.buffer != nil {
		ch <- prometheus.MustNewConstMetric(m.bufferedDesc, prometheus.GaugeValue, float64(m.buffer.Len()))
	}
}
