package metrics

import (
	"sync"

	"github.com/go-authgate/oidcgate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is an alias for core.Recorder.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Grant Metrics
	GrantsTotal   *prometheus.CounterVec
	GrantDuration *prometheus.HistogramVec

	// Token Metrics
	TokensIssuedTotal    *prometheus.CounterVec
	TokensRevokedTotal   *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec

	// Interactive Flow Metrics
	AuthorizeTotal *prometheus.CounterVec
	LoginTotal     *prometheus.CounterVec
	LogoutTotal    prometheus.Counter
	LockoutEvents  *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		GrantsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_grants_total",
				Help: "Total number of token endpoint grant dispatches",
			},
			[]string{"grant_type", "result"}, // result: success or a denial code
		),
		GrantDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oidc_grant_duration_seconds",
				Help:    "Time taken to dispatch a grant",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grant_type"},
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"token_type"}, // access, id, refresh, code
		),
		TokensRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_tokens_revoked_total",
				Help: "Total number of tokens put on the revocation list",
			},
			[]string{"token_type"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_token_validation_total",
				Help: "Total number of bearer token validations",
			},
			[]string{"result"}, // valid, invalid, expired, revoked
		),

		AuthorizeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_authorize_total",
				Help: "Total number of interactive authorize requests",
			},
			[]string{"result"}, // challenge, code, or a denial code
		),
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_login_total",
				Help: "Total number of interactive login attempts",
			},
			[]string{"result"},
		),
		LogoutTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oidc_logout_total",
				Help: "Total number of logouts",
			},
		),
		LockoutEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oidc_lockout_events_total",
				Help: "Account lockout bookkeeping events",
			},
			[]string{"event"}, // failure, locked, reset
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001, 0.005, 0.010, 0.025, 0.050, 0.100,
					0.250, 0.500, 1.0, 2.5, 5.0, 10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),
	}
}
