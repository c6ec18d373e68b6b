package intake

import "context"

// Status is the answer to one submission-status poll. Absence of the record
// is not an error: the webhook that creates it may simply not have been
// processed yet.
type Status struct {
	Found       bool   `json:"found"`
	AthleteID   string `json:"athleteId,omitempty"`
	AthleteName string `json:"athleteName,omitempty"`
	NeedsPoster bool   `json:"needsPoster,omitempty"`
}

// SubmissionStatus looks up the athlete created for submissionID and reports
// whether the poster step is still required.
func (s *Service) SubmissionStatus(ctx context.Context, submissionID string) (Status, error) {
	a, err := s.athletes.FindBySubmissionID(ctx, submissionID)
	if err != nil {
		return Status{}, err
	}
	if a == nil {
		return Status{Found: false}, nil
	}
	return Status{
		Found:       true,
		AthleteID:   a.ID,
		AthleteName: a.FullName(),
		NeedsPoster: a.NeedsPoster && !a.PosterReceived,
	}, nil
}
