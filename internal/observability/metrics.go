package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/pathforge-backend/internal/platform/envutil"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	plansCreated     *prometheus.CounterVec
	planEnforcements prometheus.Counter
	generations      *prometheus.CounterVec
	generationTime   prometheus.Histogram
	lessonExpansions *prometheus.CounterVec

	vectorOps        *prometheus.CounterVec
	vectorLatency    *prometheus.HistogramVec
	vectorBootstraps *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled reports whether METRICS_ENABLED is set.
func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process-wide metrics, or nil before Init. All methods accept a nil receiver.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = NewMetrics(reg)
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// NewMetrics registers the service collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathforge_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pathforge_http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_llm_requests_total",
			Help: "Model provider requests by model, endpoint and status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathforge_llm_request_duration_seconds",
			Help:    "Model provider latency including retries.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"model", "endpoint"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_llm_tokens_total",
			Help: "Tokens reported by the model provider.",
		}, []string{"model", "direction"}),
		plansCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_plans_created_total",
			Help: "Learning paths created, by whether the model plan was used or the fallback.",
		}, []string{"outcome"}),
		planEnforcements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pathforge_plan_reuse_enforced_total",
			Help: "Plans where the best matching course was prepended.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_course_generations_total",
			Help: "Course generation attempts by outcome.",
		}, []string{"outcome"}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathforge_course_generation_duration_seconds",
			Help:    "Wall time of claimed course generations.",
			Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 900},
		}),
		lessonExpansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_lesson_expansions_total",
			Help: "Lesson expansions by the attempt that produced the content.",
		}, []string{"path"}),
		vectorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_vector_store_operations_total",
			Help: "External vector store operations by provider, operation and status.",
		}, []string{"provider", "operation", "status"}),
		vectorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pathforge_vector_store_operation_duration_seconds",
			Help:    "External vector store latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		vectorBootstraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathforge_vector_provider_bootstrap_total",
			Help: "Vector provider selection attempts by provider, outcome and error code.",
		}, []string{"provider", "outcome", "code"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.plansCreated, m.planEnforcements,
		m.generations, m.generationTime, m.lessonExpansions,
		m.vectorOps, m.vectorLatency, m.vectorBootstraps,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	endpoint = orUnknown(endpoint)
	m.llmRequests.WithLabelValues(model, endpoint, orUnknown(status)).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// IncPlanCreated counts a persisted plan; outcome is "planned" or "fallback".
func (m *Metrics) IncPlanCreated(outcome string, enforced bool) {
	if m == nil {
		return
	}
	m.plansCreated.WithLabelValues(orUnknown(outcome)).Inc()
	if enforced {
		m.planEnforcements.Inc()
	}
}

// ObserveGeneration counts a generation outcome: ready, failed or conflict.
func (m *Metrics) ObserveGeneration(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(orUnknown(outcome)).Inc()
	if dur > 0 {
		m.generationTime.Observe(dur.Seconds())
	}
}

// IncLessonExpansion counts an expansion by path: first, retry or placeholder.
func (m *Metrics) IncLessonExpansion(path string) {
	if m == nil {
		return
	}
	m.lessonExpansions.WithLabelValues(orUnknown(path)).Inc()
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	operation = orUnknown(operation)
	m.vectorOps.WithLabelValues(provider, operation, orUnknown(status)).Inc()
	if dur > 0 {
		m.vectorLatency.WithLabelValues(provider, operation).Observe(dur.Seconds())
	}
}

func (m *Metrics) ObserveVectorProviderBootstrap(provider, outcome, code string) {
	if m == nil {
		return
	}
	m.vectorBootstraps.WithLabelValues(orUnknown(provider), orUnknown(outcome), orUnknown(code)).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
