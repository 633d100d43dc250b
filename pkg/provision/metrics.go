package provision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProvisionedObjects is the total number of roles and channels created because they were missing.
	ProvisionedObjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbot_provisioned_objects_total",
			Help: "Total number of roles and channels created because they were missing",
		},
		[]string{"kind"},
	)
)
