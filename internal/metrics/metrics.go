package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded by FetchDone.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeDecode    = "decode"
	OutcomeCached    = "cached"
)

// Metrics holds the collectors for fetches and the web UI. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	storeWrites   *prometheus.CounterVec
}

// New creates collectors on a private registry so tests can build many.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statustracker_fetch_total",
			Help: "Fetches against the tracker server by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statustracker_fetch_duration_seconds",
			Help:    "Histogram of tracker fetch durations by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statustracker_http_requests_total",
			Help: "Total count of web UI requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statustracker_http_request_duration_seconds",
			Help:    "Histogram of web UI request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statustracker_store_writes_total",
			Help: "Results written to the presentation store by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.fetchTotal,
		m.fetchDuration,
		m.httpRequests,
		m.httpDuration,
		m.storeWrites,
	)
	return m
}

// FetchDone records one fetch.
func (m *Metrics) FetchDone(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome != OutcomeCached {
		m.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// StoreWrite records a presentation store write.
func (m *Metrics) StoreWrite(kind string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request counts and durations under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
