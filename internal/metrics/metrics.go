package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcrt_webhook_deliveries_total",
			Help: "Webhook deliveries by form and outcome",
		},
		[]string{"form", "outcome"}, // kickoff|onboarding|poster , created|updated|duplicate|deferred|rejected|failed
	)

	StatusPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcrt_status_polls_total",
			Help: "Submission-status poll requests by outcome",
		},
		[]string{"outcome"}, // found|pending|error
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcrt_notifications_total",
			Help: "Notification deliveries by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // sent|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		WebhookDeliveriesTotal,
		StatusPollsTotal,
		NotificationsTotal,
	)
}
