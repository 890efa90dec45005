// Package metrics exports Prometheus collectors fed by eventbus events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	eventbus "github.com/hanpama/docgraph/internal/eventbus"
	events "github.com/hanpama/docgraph/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docgraph"

// Metrics owns a private registry so several instances can coexist in
// tests.
type Metrics struct {
	reg *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPLatency    *prometheus.HistogramVec
	Operations     *prometheus.CounterVec
	OperationTime  *prometheus.HistogramVec
	StoreCalls     *prometheus.CounterVec
	StoreLatency   *prometheus.HistogramVec
	ResolverPanics prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "graphql_operations_total",
			Help: "GraphQL operations by type and outcome (ok, error, rejected).",
		}, []string{"type", "outcome"}),
		OperationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "graphql_operation_duration_seconds",
			Help:    "GraphQL operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		StoreCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_calls_total",
			Help: "Document store calls by collection, operation and outcome (ok, not_found, error).",
		}, []string{"collection", "op", "outcome"}),
		StoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "store_call_duration_seconds",
			Help:    "Document store call latency.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"collection", "op"}),
		ResolverPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "resolver_panics_total",
			Help: "Resolver panics recovered into field errors.",
		}),
	}
	m.reg.MustRegister(
		m.HTTPRequests, m.HTTPLatency,
		m.Operations, m.OperationTime,
		m.StoreCalls, m.StoreLatency,
		m.ResolverPanics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Subscribe feeds the collectors from the global eventbus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			m.HTTPRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
			m.HTTPLatency.WithLabelValues(e.Request.Method).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			outcome := "ok"
			switch {
			case e.Rejected:
				outcome = "rejected"
			case len(e.Errors) > 0:
				outcome = "error"
			}
			typ := e.OperationType
			if typ == "" {
				typ = "unknown"
			}
			m.Operations.WithLabelValues(typ, outcome).Inc()
			m.OperationTime.WithLabelValues(typ).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.StoreCall) {
			outcome := "ok"
			switch {
			case e.Err != nil:
				outcome = "error"
			case !e.Found && e.Op != events.StoreFind:
				outcome = "not_found"
			}
			m.StoreCalls.WithLabelValues(e.Collection, string(e.Op), outcome).Inc()
			m.StoreLatency.WithLabelValues(e.Collection, string(e.Op)).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(context.Context, events.ResolverPanic) {
			m.ResolverPanics.Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
