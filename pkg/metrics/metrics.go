package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the harvester.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	NodesTotal          *prometheus.CounterVec
	LinksDiscovered     *prometheus.CounterVec
	CardsExtracted      prometheus.Counter
	NodeDuration        *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the harvester metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_nodes_total",
				Help: "Total number of catalog nodes processed.",
			},
			[]string{"role", "status"}, // status: visited, skipped
		),
		LinksDiscovered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_links_discovered_total",
				Help: "Total number of unique links discovered per role.",
			},
			[]string{"role"},
		),
		CardsExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_cards_extracted_total",
				Help: "Total number of content cards extracted.",
			},
		),
		NodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_node_duration_seconds",
				Help:    "Time spent loading, stabilizing and harvesting one node.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
			[]string{"role"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (m *Metrics) ObserveNode(role, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.NodesTotal.WithLabelValues(role, status).Inc()
	m.NodeDuration.WithLabelValues(role).Observe(d.Seconds())
}

func (m *Metrics) AddLinks(role string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LinksDiscovered.WithLabelValues(role).Add(float64(n))
}

func (m *Metrics) AddCards(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CardsExtracted.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
