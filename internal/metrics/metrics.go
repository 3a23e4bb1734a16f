package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ctxKey string

const requestIDCtxKey ctxKey = "metrics_request_id"

var (
	remoteCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvminder_remote_calls_total",
		Help: "Total number of calls to remote services by outcome.",
	}, []string{"service", "operation", "outcome"})

	remoteCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tvminder_remote_call_duration_seconds",
		Help:    "Histogram of latencies for remote service calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "operation"})

	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvminder_reconcile_total",
		Help: "Optimistic mutations by collection and outcome (applied, rolled_back).",
	}, []string{"collection", "outcome"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvminder_http_requests_total",
		Help: "Total number of HTTP requests served by the local API.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tvminder_http_request_duration_seconds",
		Help:    "Histogram of latencies for local API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveCall returns a func that records latency and outcome of a remote
// call when invoked with its final error:
//
//	done := metrics.ObserveCall("epg", "list_channels")
//	defer func() { done(err) }()
func ObserveCall(service, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		remoteCallDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
		remoteCallsTotal.WithLabelValues(service, operation, Outcome(err)).Inc()
	}
}

// Outcome labels err by its apperr kind; nil is "ok".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

// ObserveReconcile counts one optimistic mutation result.
func ObserveReconcile(collection, outcome string) {
	reconcileTotal.WithLabelValues(collection, outcome).Inc()
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request. route is the mux pattern.
func ObserveHTTP(method, route string, status int, start time.Time) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// WithRequestID stores id so outbound clients can forward it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext extracts the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey).(string); ok {
		return id
	}
	return ""
}
