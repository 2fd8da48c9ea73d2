// Package metrics constructs the metrics the application will track.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/jcpaschoal/confmgmt/foundation/otel"
	"github.com/prometheus/client_golang/prometheus"
)

// This holds the set of collectors we need to track.
type metrics struct {
	requests     prometheus.Counter
	errors       prometheus.Counter
	panics       prometheus.Counter
	authFailures *prometheus.CounterVec
	tokens       prometheus.Counter
	retries      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

var m metrics

// Registry holds every collector of the service. The debug mux serves it.
var Registry = prometheus.NewRegistry()

func init() {
	m = metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "requests_total",
			Help:      "Number of requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "errors_total",
			Help:      "Number of requests that ended in an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "panics_total",
			Help:      "Number of recovered panics.",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "auth_failures_total",
			Help:      "Authentication failures by internal reason.",
		}, []string{"reason"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "tokens_issued_total",
			Help:      "Number of room tokens issued.",
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confmgmt",
			Name:      "retries_total",
			Help:      "Retried attempts by scope.",
		}, []string{"scope"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "confmgmt",
			Name:      "request_duration_seconds",
			Help:      "Request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	Registry.MustRegister(
		m.requests,
		m.errors,
		m.panics,
		m.authFailures,
		m.tokens,
		m.retries,
		m.duration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// AddRequests increments the request count by 1.
func AddRequests(ctx context.Context) {
	m.requests.Inc()
}

// AddErrors increments the errors count by 1.
func AddErrors(ctx context.Context) {
	m.errors.Inc()
}

// AddPanics increments the panics count by 1.
func AddPanics(ctx context.Context) {
	m.panics.Inc()
}

// AddAuthFailure counts a failed authentication by its internal reason.
func AddAuthFailure(ctx context.Context, reason string) {
	m.authFailures.WithLabelValues(reason).Inc()
}

// AddTokens increments the issued token count by 1.
func AddTokens(ctx context.Context) {
	m.tokens.Inc()
}

// AddRetries counts a retried attempt. Scope tells store calls apart from
// whole transactions.
func AddRetries(ctx context.Context, scope string) {
	m.retries.WithLabelValues(scope).Inc()
}

// ObserveRequest records the request latency. The trace id, when present, is
// attached as an exemplar.
func ObserveRequest(ctx context.Context, route string, status int, since time.Duration) {
	obs := m.duration.WithLabelValues(route, strconv.Itoa(status))

	if traceID := otel.GetTraceID(ctx); traceID != "" && traceID != otel.NoTraceID {
		if eo, ok := obs.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(since.Seconds(), prometheus.Labels{"trace_id": traceID})
			return
		}
	}

	obs.Observe(since.Seconds())
}
