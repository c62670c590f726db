package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// PipelineMetrics covers the worker side: application runs, extraction
// cache effectiveness, paid model calls, and produced drafts. It
// implements the extractor's Stats interface.
type PipelineMetrics struct {
	service  string
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        prometheus.Histogram

	cacheTotal      *prometheus.CounterVec
	remoteCallTotal *prometheus.CounterVec
	draftsCreated   *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()
	serviceLabel := prometheus.Labels{"service": service}

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "application_process_total",
			Help:        "Total processed applications by outcome.",
			ConstLabels: serviceLabel,
		},
		[]string{"status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "application_process_duration_seconds",
			Help:        "Application processing duration in seconds by outcome.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: serviceLabel,
		},
		[]string{"status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "application_process_in_flight",
			Help:        "Number of in-flight application runs.",
			ConstLabels: serviceLabel,
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "queue_lag_seconds",
			Help:        "Delay between upload and processing start.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: serviceLabel,
		},
	)
	cacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "extraction_cache_total",
			Help:        "Extraction cache lookups by outcome.",
			ConstLabels: serviceLabel,
		},
		[]string{"outcome"},
	)
	remoteCallTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "extraction_remote_call_total",
			Help:        "Paid model calls by modality and outcome.",
			ConstLabels: serviceLabel,
		},
		[]string{"modality", "status"},
	)
	draftsCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "zuvp",
			Subsystem:   "pipeline",
			Name:        "drafts_created_total",
			Help:        "Created decision drafts, split by manual-review flag.",
			ConstLabels: serviceLabel,
		},
		[]string{"needs_review"},
	)

	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		queueLag,
		cacheTotal,
		remoteCallTotal,
		draftsCreated,
	)

	return &PipelineMetrics{
		service:         service,
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		cacheTotal:      cacheTotal,
		remoteCallTotal: remoteCallTotal,
		draftsCreated:   draftsCreated,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartApplication() {
	m.processInFlight.Inc()
}

func (m *PipelineMetrics) FinishApplication(duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(status).Inc()
	m.processDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}

func (m *PipelineMetrics) CacheHit() {
	m.cacheTotal.WithLabelValues("hit").Inc()
}

func (m *PipelineMetrics) CacheMiss() {
	m.cacheTotal.WithLabelValues("miss").Inc()
}

func (m *PipelineMetrics) RemoteCall(modality domain.Modality, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.remoteCallTotal.WithLabelValues(string(modality), status).Inc()
}

func (m *PipelineMetrics) DraftCreated(needsReview bool) {
	flag := "false"
	if needsReview {
		flag = "true"
	}
	m.draftsCreated.WithLabelValues(flag).Inc()
}
