package sitemapsubmit

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	PingsTotal          *prometheus.CounterVec
	PingDuration        prometheus.Histogram
	InvalidationsTotal  *prometheus.CounterVec
	DispatchesTotal     *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitemap_pings_total",
				Help: "Total number of endpoint pings.",
			},
			[]string{"result", "status"},
		),
		PingDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sitemap_ping_duration_seconds",
				Help:    "Duration of endpoint pings.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		InvalidationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitemap_cache_invalidations_total",
				Help: "Companion cache invalidation attempts.",
			},
			[]string{"path", "result"}, // path: absent, native, direct
		),
		DispatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitemap_dispatches_total",
				Help: "Dispatches triggered by content changes.",
			},
			[]string{"outcome"}, // submitted, skipped
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (m *Metrics) observePing(r PingResult, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !r.Success {
		result = "failure"
	}
	m.PingsTotal.WithLabelValues(result, strconv.Itoa(r.HTTPStatus)).Inc()
	m.PingDuration.Observe(d.Seconds())
}

func (m *Metrics) observeInvalidation(path string, ok bool) {
	if m == nil {
		return
	}
	m.InvalidationsTotal.WithLabelValues(path, strconv.FormatBool(ok)).Inc()
}

func (m *Metrics) observeDispatch(skipped bool) {
	if m == nil {
		return
	}
	outcome := "submitted"
	if skipped {
		outcome = "skipped"
	}
	m.DispatchesTotal.WithLabelValues(outcome).Inc()
}
