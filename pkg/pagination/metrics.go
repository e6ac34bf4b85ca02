package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesLoadedTotal counts pages appended to a listing.
	pagesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rickmorty_listing_pages_loaded_total",
		Help: "Total number of pages appended to character listings",
	})

	// pageFailuresTotal counts page fetches that completed with an error.
	pageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rickmorty_listing_page_failures_total",
		Help: "Total number of failed page fetches surfaced to listeners",
	})

	// fetchesInFlight is the number of page fetches currently running.
	fetchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rickmorty_listing_fetches_in_flight",
		Help: "Number of page fetches currently in flight",
	})
)
