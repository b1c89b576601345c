package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/models"
)

// MetricsService owns the Prometheus registry. It also implements
// etl.EventSink so pipeline runs feed the same registry.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	recordsTotal       *prometheus.CounterVec
	rowsLoaded         *prometheus.CounterVec
	enrollmentsSkipped prometheus.Counter
	registrations      *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_runs_total",
			Help: "Batch runs by final status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "etl_run_duration_seconds",
			Help:    "Wall time of batch runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Records seen per pipeline stage",
		}, []string{"stage"}),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_rows_loaded_total",
			Help: "Rows inserted per table",
		}, []string{"table"}),
		enrollmentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etl_enrollments_skipped_total",
			Help: "Enrollments skipped because the student or course id was missing",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Single-record registrations by outcome",
		}, []string{"outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.runsTotal, m.runDuration, m.recordsTotal, m.rowsLoaded, m.enrollmentsSkipped, m.registrations,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveRegistration counts a single-record registration outcome.
func (m *MetricsService) ObserveRegistration(outcome models.RegistrationOutcome) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(string(outcome)).Inc()
}

// Emit implements etl.EventSink.
func (m *MetricsService) Emit(e etl.Event) {
	if m == nil {
		return
	}
	switch e.Kind {
	case etl.EventRowsExtracted:
		m.recordsTotal.WithLabelValues("extracted").Add(float64(e.Int(etl.KeyCount)))
	case etl.EventDuplicateDetected:
		m.recordsTotal.WithLabelValues("duplicate").Inc()
	case etl.EventRecordRejected:
		m.recordsTotal.WithLabelValues("rejected").Inc()
	case etl.EventRecordsNormalized:
		m.recordsTotal.WithLabelValues("normalized").Add(float64(e.Int(etl.KeyCount)))
	case etl.EventTableLoaded:
		m.rowsLoaded.WithLabelValues(e.String(etl.KeyTable)).Add(float64(e.Int(etl.KeyCount)))
	case etl.EventEnrollmentSkipped:
		m.enrollmentsSkipped.Inc()
	case etl.EventRunFinished:
		m.runsTotal.WithLabelValues(e.String(etl.KeyStatus)).Inc()
		if d, ok := e.Context[etl.KeyDuration].(time.Duration); ok {
			m.runDuration.Observe(d.Seconds())
		}
	}
}
