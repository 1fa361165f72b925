package metrics

import (
	"time"

	"coinsage/sources/tracing"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService struct {
	log *tracing.Logger
}

var (
	aiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_ai_requests_total",
			Help: "Total number of AI provider requests",
		},
		[]string{"task", "status"},
	)

	aiFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_ai_fallbacks_total",
			Help: "Total number of degradations to non-AI fallback output",
		},
		[]string{"task", "reason"},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_cache_events_total",
			Help: "Total number of advisor cache hits and misses",
		},
		[]string{"task", "event"},
	)

	tokenUsage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_token_usage_total",
			Help: "Total number of tokens used",
		},
		[]string{"model", "task"},
	)

	costUsage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_cost_usage_total",
			Help: "Total cost incurred",
		},
		[]string{"model", "task"},
	)

	aiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinsage_ai_request_duration_seconds",
			Help:    "Duration of AI provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	insightsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinsage_insights_served_total",
			Help: "Total number of daily insights served",
		},
		[]string{"source"},
	)

	statsTotalCost = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coinsage_stats_total_cost",
			Help: "Total cost recorded in usage",
		},
	)
)

func init() {
	prometheus.MustRegister(aiRequests)
	prometheus.MustRegister(aiFallbacks)
	prometheus.MustRegister(cacheEvents)
	prometheus.MustRegister(tokenUsage)
	prometheus.MustRegister(costUsage)
	prometheus.MustRegister(aiRequestDuration)
	prometheus.MustRegister(insightsServed)
	prometheus.MustRegister(statsTotalCost)
}

func NewMetricsService(log *tracing.Logger) *MetricsService {
	return &MetricsService{log: log}
}

func (s *MetricsService) RecordAIRequest(task string, status string) {
	aiRequests.WithLabelValues(task, status).Inc()
}

func (s *MetricsService) RecordFallback(task string, reason string) {
	aiFallbacks.WithLabelValues(task, reason).Inc()
}

func (s *MetricsService) RecordCacheEvent(task string, event string) {
	cacheEvents.WithLabelValues(task, event).Inc()
}

func (s *MetricsService) RecordUsage(tokens int, cost float64, model string, task string) {
	tokenUsage.WithLabelValues(model, task).Add(float64(tokens))
	costUsage.WithLabelValues(model, task).Add(cost)
}

func (s *MetricsService) RecordAIRequestDuration(duration time.Duration, model string) {
	aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (s *MetricsService) RecordInsightServed(source string) {
	insightsServed.WithLabelValues(source).Inc()
}

func (s *MetricsService) SetTotalCost(cost float64) {
	statsTotalCost.Set(cost)
}
