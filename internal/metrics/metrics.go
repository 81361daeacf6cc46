// Package metrics exposes workflow counters to prometheus.
package metrics

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalsSubmitted counts newly filed approval requests.
	ApprovalsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signoff_approvals_submitted_total",
		Help: "Total number of approval requests submitted",
	})

	// ApprovalsProcessed counts decisions by outcome.
	ApprovalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signoff_approvals_processed_total",
		Help: "Total number of approval requests decided",
	}, []string{"decision"})

	// ProcessConflicts counts decisions refused because the request was already decided.
	ProcessConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signoff_approvals_process_conflicts_total",
		Help: "Total number of decisions rejected because the request was no longer pending",
	})

	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signoff_signups_total",
		Help: "Total number of self-service signups",
	})

	UserApprovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signoff_user_decisions_total",
		Help: "Total number of pending signups approved or rejected",
	}, []string{"outcome"})

	// Notifications counts notification writes and pushes by outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signoff_notifications_total",
		Help: "Total number of notifications by outcome",
	}, []string{"outcome"})
)

// Register mounts HTTP request metrics and the /metrics endpoint on app.
func Register(app *fiber.App, serviceName string) {
	prom := fiberprometheus.New(serviceName)
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
