package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of ticket store queries, labelled by backing store.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbot_store_query_seconds",
			Help:    "Duration of ticket store queries",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"store", "query"},
	)

	// StoreErrors counts failed ticket store queries. A missing ticket is not a failure.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_store_query_errors_total",
			Help: "Total number of failed ticket store queries",
		},
		[]string{"store", "query"},
	)

	// MemoryTickets is the number of records held by the in-memory store.
	MemoryTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketbot_store_memory_tickets",
			Help: "Number of ticket records held in memory",
		},
	)
)

// Query starts timing a store query. The returned func records the duration and, when err is non-nil, the failure.
func Query(store, query string) func(err error) {
	t := prometheus.NewTimer(StoreLatency.WithLabelValues(store, query))
	return func(err error) {
		t.ObserveDuration()
		if err != nil {
			StoreErrors.WithLabelValues(store, query).Inc()
		}
	}
}
