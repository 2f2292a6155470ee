package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techfest_registrations_created_total",
		Help: "Registrations created, labeled by type (ONLINE or MANUAL).",
	}, []string{"type"})

	RegistrationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techfest_registrations_rejected_total",
		Help: "Registrations rejected by a business rule, labeled by reason.",
	}, []string{"reason"})

	RegistrationsCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techfest_registrations_canceled_total",
		Help: "Registrations canceled by their owning student.",
	})
)
