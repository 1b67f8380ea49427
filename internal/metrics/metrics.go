// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	combinationsTotal          *prometheus.CounterVec
	organizationsUpsertedTotal prometheus.Counter
	vendorRequestsTotal        *prometheus.CounterVec
	vendorRequestSeconds       *prometheus.HistogramVec
	pacingDelaySeconds         prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		combinationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_combinations_total",
				Help: "Combinations processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		organizationsUpsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_organizations_upserted_total",
				Help: "Organizations written to the store, including re-discoveries.",
			},
		)

		vendorRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_vendor_requests_total",
				Help: "Vendor API requests, labeled by endpoint and status code.",
			},
			[]string{"endpoint", "code"},
		)

		vendorRequestSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_vendor_request_duration_seconds",
				Help:    "Vendor API request latencies, labeled by endpoint.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		)

		pacingDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harvester_pacing_delay_seconds",
				Help:    "Injected inter-item and inter-page pacing delays.",
				Buckets: []float64{1, 5, 10, 15, 20, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_http_requests_total",
				Help: "Read API requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCombination increments the per-outcome combination counter.
func ObserveCombination(outcome string) {
	if combinationsTotal != nil {
		combinationsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveOrganizationUpsert counts one organization write.
func ObserveOrganizationUpsert() {
	if organizationsUpsertedTotal != nil {
		organizationsUpsertedTotal.Inc()
	}
}

// ObserveVendorRequest records one vendor API call.
func ObserveVendorRequest(endpoint, code string, duration time.Duration) {
	if vendorRequestsTotal != nil {
		vendorRequestsTotal.WithLabelValues(endpoint, code).Inc()
		vendorRequestSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// ObservePacingDelay records an injected pacing delay.
func ObservePacingDelay(delay time.Duration) {
	if pacingDelaySeconds != nil {
		pacingDelaySeconds.Observe(delay.Seconds())
	}
}

// ObserveHTTPRequest records one read API request.
func ObserveHTTPRequest(method, code string) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(method, code).Inc()
	}
}
