package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface with Prometheus metrics.
type PrometheusHooks struct {
	runs       *prometheus.CounterVec
	runSeconds prometheus.Histogram
	replicates *prometheus.CounterVec
	repSeconds prometheus.Histogram

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpSeconds  *prometheus.HistogramVec
}

// NewPrometheusHooks creates the metrics and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	const ns = "reefrank"
	h := &PrometheusHooks{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "runs_total",
			Help:      "Ranking runs by outcome.",
		}, []string{"status"}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of ranking runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		replicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "replicates_total",
			Help:      "Ranked replicates by outcome.",
		}, []string{"status"}),
		repSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "replicate_duration_seconds",
			Help:      "Duration of a single replicate ranking.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(h.runs, h.runSeconds, h.replicates, h.repSeconds,
		h.cacheOps, h.cacheBytes, h.httpRequests, h.httpSeconds)
	return h
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) OnRunStart(context.Context, string, int) {}

func (h *PrometheusHooks) OnReplicateComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	h.replicates.WithLabelValues(status(err)).Inc()
	h.repSeconds.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnRunComplete(_ context.Context, _ string, d time.Duration, err error) {
	h.runs.WithLabelValues(status(err)).Inc()
	h.runSeconds.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.httpSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
