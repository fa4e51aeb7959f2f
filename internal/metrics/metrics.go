package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

const namespace = "oneri"

// Metrics 刷新周期、快照与 HTTP 指标，使用独立的 Registry
type Metrics struct {
	registry *prometheus.Registry

	refreshCycles   *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	lastSuccess     prometheus.Gauge
	snapshotRows    *prometheus.GaugeVec
	skippedRows     *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New 创建指标集合
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		refreshCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by final status.",
		}, []string{"status"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of snapshot refresh cycles.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
		snapshotRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_rows",
			Help:      "Rows imported per source in the current snapshot.",
		}, []string{"source"}),
		skippedRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_skipped_rows",
			Help:      "Rows skipped per source in the current snapshot.",
		}, []string{"source"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry 底层 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRefresh 记录一次刷新周期
func (m *Metrics) ObserveRefresh(status string, elapsed time.Duration) {
	m.refreshCycles.WithLabelValues(status).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
}

// ObserveSnapshot 记录新快照的逐源行数
func (m *Metrics) ObserveSnapshot(snap *model.Snapshot) {
	if snap == nil {
		return
	}
	for _, r := range snap.Reports {
		m.snapshotRows.WithLabelValues(r.Source).Set(float64(r.ImportedRows))
		m.skippedRows.WithLabelValues(r.Source).Set(float64(r.SkippedRows))
	}
	m.lastSuccess.Set(float64(snap.GeneratedAt.Unix()))
}

// CacheStatsFunc 返回缓存命中与未命中次数
type CacheStatsFunc func() (hits, misses uint64)

// RegisterCache 以 CounterFunc 暴露缓存命中统计
func (m *Metrics) RegisterCache(stats CacheStatsFunc) {
	factory := promauto.With(m.registry)
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_cache_hits_total",
		Help:      "Snapshot cache hits.",
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_cache_misses_total",
		Help:      "Snapshot cache misses.",
	}, func() float64 {
		_, miss := stats()
		return float64(miss)
	})
}

// GinMiddleware 记录 HTTP 请求指标
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
