package model

import "strings"

// FormType identifies which Tally form produced a webhook delivery.
type FormType string

const (
	FormKickoff    FormType = "kickoff"
	FormOnboarding FormType = "onboarding"
	FormPoster     FormType = "poster"
)

func (f FormType) String() string { return string(f) }

func (f FormType) Valid() bool {
	return f == FormKickoff || f == FormOnboarding || f == FormPoster
}

// ParseFormType normalizes route/config input into a FormType.
// Returns (value, true) if valid; otherwise (kickoff, false).
func ParseFormType(s string) (FormType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kickoff":
		return FormKickoff, true
	case "onboarding":
		return FormOnboarding, true
	case "poster":
		return FormPoster, true
	default:
		return FormKickoff, false
	}
}
