package intake

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsOpened is the total number of tickets opened.
	TicketsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_tickets_opened_total",
			Help: "Total number of tickets opened",
		},
		[]string{"category"},
	)

	// Rejections is the total number of intake commands refused because the user was not allowed to use them.
	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_intake_rejections_total",
			Help: "Total number of intake commands refused for lack of permission",
		},
		[]string{"command"},
	)
)
