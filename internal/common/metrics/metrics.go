// Package metrics holds the dispatcher's prometheus collectors on a private
// registry exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "judgegate"

// Metrics bundles every collector the dispatcher updates.
type Metrics struct {
	reg *prometheus.Registry

	Submissions    *prometheus.CounterVec
	Rejudges       *prometheus.CounterVec
	Publishes      *prometheus.CounterVec
	Reconnects     *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions received, by outcome.",
		}, []string{"outcome"}),
		Rejudges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejudges_total",
			Help:      "Rejudge requests received, by outcome.",
		}, []string{"outcome"}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_publishes_total",
			Help:      "Broker publish attempts, by result.",
		}, []string{"result"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Successful connects to a collaborator.",
		}, []string{"target"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(
		m.Submissions,
		m.Rejudges,
		m.Publishes,
		m.Reconnects,
		m.RequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObservePublish counts a publish attempt.
func (m *Metrics) ObservePublish(err error) {
	if err != nil {
		m.Publishes.WithLabelValues("failed").Inc()
		return
	}
	m.Publishes.WithLabelValues("ok").Inc()
}

// ReconnectCounter returns a callback counting connects to target.
func (m *Metrics) ReconnectCounter(target string) func() {
	c := m.Reconnects.WithLabelValues(target)
	return c.Inc
}
