// Package metrics exposes Prometheus collectors for the authentication service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "velure_auth"

// Metrics holds the service collectors in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	logins           *prometheus.CounterVec
	loginDuration    *prometheus.HistogramVec
	registrations    *prometheus.CounterVec
	registerDuration *prometheus.HistogramVec
	logouts          *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	expiredSessions  prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
}

// New registers every collector, including Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		loginDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Login latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		registerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registration_duration_seconds",
			Help:      "Registration latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logout requests by outcome.",
		}, []string{"outcome"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Access token validations by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_cache_lookups_total",
			Help:      "Token cache lookups by result.",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions not yet expired at the last cleanup run.",
		}),
		expiredSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_sessions_removed_total",
			Help:      "Expired sessions deleted by the cleanup job.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.loginDuration,
		m.registrations,
		m.registerDuration,
		m.logouts,
		m.tokenValidations,
		m.cacheLookups,
		m.activeSessions,
		m.expiredSessions,
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
	)

	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveLogin(outcome string, elapsed time.Duration) {
	m.logins.WithLabelValues(outcome).Inc()
	m.loginDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRegistration(outcome string, elapsed time.Duration) {
	m.registrations.WithLabelValues(outcome).Inc()
	m.registerDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLogout(outcome string) {
	m.logouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTokenValidation(outcome string) {
	m.tokenValidations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) SetActiveSessions(count int64) {
	m.activeSessions.Set(float64(count))
}

func (m *Metrics) ObserveExpiredSessionsRemoved(count int64) {
	m.expiredSessions.Add(float64(count))
}

// StartRequest marks a request in flight and returns the function that records it.
func (m *Metrics) StartRequest() func(method, route string, status int) {
	start := time.Now()
	m.httpInFlight.Inc()

	return func(method, route string, status int) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
