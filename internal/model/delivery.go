package model

import "time"

// Delivery outcomes recorded in the audit log.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeDuplicate = "duplicate"
	OutcomeDeferred  = "deferred"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Delivery is one processed webhook call, appended to ClickHouse for the
// ops report view.
type Delivery struct {
	ID         string    `db:"id"` // ULID
	EventID    string    `db:"event_id"`
	Form       FormType  `db:"form"`
	Outcome    string    `db:"outcome"`
	AthleteID  string    `db:"athlete_id"` // empty when no record was touched
	ReceivedAt time.Time `db:"received_at"`
}
