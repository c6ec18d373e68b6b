package model

import (
	"encoding/json"
	"time"
)

// Athlete is the DB entity persisted in the athletes table. Created by the
// kickoff webhook, enriched by onboarding and poster webhooks; never deleted
// by this service.
type Athlete struct {
	ID                 string          `db:"id"`                  // uuid
	TallySubmissionID  string          `db:"tally_submission_id"` // unique correlation key from the provider
	FirstName          string          `db:"first_name"`
	LastName           string          `db:"last_name"`
	Email              string          `db:"email"`
	Phone              string          `db:"phone"`
	GraduationYear     int             `db:"graduation_year"`
	Sport              string          `db:"sport"`
	NeedsPoster        bool            `db:"needs_poster"`
	PosterURL          string          `db:"poster_url"`
	PosterReceived     bool            `db:"poster_received"`
	OnboardingFormData json.RawMessage `db:"onboarding_form_data"` // attribute bag incl. unmapped_fields
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// FullName joins first/last, tolerating either being empty.
func (a Athlete) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}
