package model

import "time"

// Notification event types published through the outbox.
const (
	NotificationAthleteCreated  = "athlete.created"
	NotificationAthleteEnriched = "athlete.enriched"
	NotificationPosterReceived  = "athlete.poster_received"
)

// NotificationEvent is the payload written to the outbox and consumed from
// Kafka by the notifier worker.
type NotificationEvent struct {
	EventID      string    `json:"eventId"`      // provider event id, for tracing
	Type         string    `json:"type"`
	AthleteID    string    `json:"athleteId"`
	SubmissionID string    `json:"submissionId"`
	AthleteName  string    `json:"athleteName"`
	Form         FormType  `json:"form"`
	OccurredAt   time.Time `json:"occurredAt"`
}
