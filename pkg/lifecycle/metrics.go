package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsClosed is the total number of tickets closed.
	TicketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketbot_tickets_closed_total",
			Help: "Total number of tickets closed",
		},
	)

	// TranscriptLines is the number of lines in each archived transcript.
	TranscriptLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketbot_transcript_lines",
			Help:    "Number of lines in each archived transcript",
			Buckets: prometheus.ExponentialBuckets(10, 4, 7),
		},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_lifecycle_rejections_total",
			Help: "Total number of ticket operations refused for lack of permission",
		},
		[]string{"operation"},
	)
)
