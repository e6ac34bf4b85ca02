// Package metrics is the reference for the Prometheus metrics exported by the
// character client. Metrics are declared with promauto in the packages that
// record them (client, pagination); this package documents them and serves
// the registry over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry all metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler exposing Gatherer. Scrapes are counted in
// promhttp_metric_handler_requests_total on Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - rickmorty_requests_total{status} (Counter): Requests by HTTP status or "network_error"
//   - rickmorty_request_duration_seconds (Histogram): Request duration
//   - rickmorty_errors_total{kind} (Counter): Failed fetches by NetworkError kind
//     (invalid_request, transport, bad_status, decode)
//
// Listing Metrics (pkg/pagination):
//   - rickmorty_listing_pages_loaded_total (Counter): Pages appended to listings
//   - rickmorty_listing_page_failures_total (Counter): Failed fetches surfaced to listeners
//   - rickmorty_listing_fetches_in_flight (Gauge): Fetches currently running
//
// Example Prometheus Queries:
//
//   # Fetch error rate by kind
//   sum by (kind) (rate(rickmorty_errors_total[5m]))
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(rickmorty_request_duration_seconds_bucket[5m]))
//
//   # Share of page loads that failed
//   rate(rickmorty_listing_page_failures_total[5m]) /
//   (rate(rickmorty_listing_pages_loaded_total[5m]) + rate(rickmorty_listing_page_failures_total[5m]))
