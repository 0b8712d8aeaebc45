package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

// PipelineMetrics records decision-pipeline outcomes.
type PipelineMetrics struct {
	service string

	stageDuration  *prometheus.HistogramVec
	stageTotal     *prometheus.CounterVec
	pathTotal      *prometheus.CounterVec
	freshnessTotal *prometheus.CounterVec
	expiryTotal    *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service", "stage"},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Pipeline stage executions by status.",
		},
		[]string{"service", "stage", "status"},
	)
	pathTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "path_total",
			Help:      "Analyses routed to each path.",
		},
		[]string{"service", "path"},
	)
	freshnessTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "freshness_scale_total",
			Help:      "Freshness grades produced.",
		},
		[]string{"service", "scale"},
	)
	expiryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "expiry_status_total",
			Help:      "Expiry statuses derived from packaged goods.",
		},
		[]string{"service", "status"},
	)

	registerer.MustRegister(stageDuration, stageTotal, pathTotal, freshnessTotal, expiryTotal)

	return &PipelineMetrics{
		service:        service,
		stageDuration:  stageDuration,
		stageTotal:     stageTotal,
		pathTotal:      pathTotal,
		freshnessTotal: freshnessTotal,
		expiryTotal:    expiryTotal,
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, err error, seconds float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.stageTotal.WithLabelValues(m.service, stage, status).Inc()
	m.stageDuration.WithLabelValues(m.service, stage).Observe(seconds)
}

func (m *PipelineMetrics) ObservePath(path domain.AnalysisPath) {
	m.pathTotal.WithLabelValues(m.service, string(path)).Inc()
}

func (m *PipelineMetrics) ObserveFreshness(scale domain.FreshnessScale) {
	m.freshnessTotal.WithLabelValues(m.service, string(scale)).Inc()
}

func (m *PipelineMetrics) ObserveExpiry(status domain.ExpiryStatus) {
	m.expiryTotal.WithLabelValues(m.service, string(status)).Inc()
}
