package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Update outcomes recorded by eventUpdatesTotal.
const (
	outcomeChanged   = "changed"
	outcomeUnchanged = "unchanged"
	outcomeRejected  = "rejected"
)

var (
	profilesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventplanner_profiles_created_total",
		Help: "Total number of profiles created",
	})

	eventsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventplanner_events_created_total",
		Help: "Total number of events created",
	})

	eventUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventplanner_event_updates_total",
		Help: "Event update requests by outcome",
	}, []string{"outcome"})

	changeLogWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventplanner_change_log_write_failures_total",
		Help: "Updates whose event write succeeded but whose change log write failed",
	})
)
