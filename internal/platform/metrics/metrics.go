package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Services accept a nil *Metrics and skip recording, so unit tests don't
// need to touch the default registry.
type Metrics struct {
	Verifications         *prometheus.CounterVec
	VerificationFallbacks prometheus.Counter
	AuditLogFailures      prometheus.Counter
	TokenCacheHits        prometheus.Counter
	TokenCacheMisses      prometheus.Counter
	LoginAttempts         *prometheus.CounterVec
	HTTPRequestSeconds    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visleg_verifications_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}),
		VerificationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visleg_verification_fallback_total",
			Help: "Verifications answered with fallback identity data because the provider was degraded",
		}),
		AuditLogFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visleg_audit_log_failures_total",
			Help: "Audit log writes that failed and were swallowed",
		}),
		TokenCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visleg_token_cache_hits_total",
			Help: "Provider token requests served from the cache",
		}),
		TokenCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "visleg_token_cache_misses_total",
			Help: "Provider token requests that required a fresh client-credentials grant",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "visleg_login_attempts_total",
			Help: "Admin login attempts by result",
		}, []string{"result"}),
		HTTPRequestSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visleg_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementVerification records a verification attempt outcome
// (verified, demo, fallback, already_used, invalid, provider_error).
func (m *Metrics) IncrementVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

// IncrementFallback records a degraded-mode fallback substitution.
func (m *Metrics) IncrementFallback() {
	if m == nil {
		return
	}
	m.VerificationFallbacks.Inc()
}

// IncrementAuditFailure records a swallowed audit write failure.
func (m *Metrics) IncrementAuditFailure() {
	if m == nil {
		return
	}
	m.AuditLogFailures.Inc()
}

// IncrementTokenCache records a token cache lookup result.
func (m *Metrics) IncrementTokenCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.TokenCacheHits.Inc()
	} else {
		m.TokenCacheMisses.Inc()
	}
}

// IncrementLogin records a login attempt result (success, invalid_credentials, deactivated).
func (m *Metrics) IncrementLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records request latency.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestSeconds.WithLabelValues(method, route, status).Observe(seconds)
}
