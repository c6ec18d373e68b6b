package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/preferredrecruit/intake-gateway/internal/metrics"
	"github.com/preferredrecruit/intake-gateway/internal/model"
	"github.com/preferredrecruit/intake-gateway/internal/repository"
	"github.com/preferredrecruit/intake-gateway/internal/tally"
	"github.com/preferredrecruit/intake-gateway/internal/util"
)

// NotificationsTopic is the outbox topic the notifier worker consumes.
const NotificationsTopic = "athlete.notifications"

// Terminal pipeline errors. Anything else returned by Handle is a
// persistence failure and safe for the provider to redeliver.
var (
	ErrSignature = errors.New("invalid signature")
	ErrMalformed = errors.New("malformed payload")
	ErrNotFound  = errors.New("correlated record not found")
)

// Result is the successful outcome of one webhook delivery.
type Result struct {
	Outcome   string // created | updated | duplicate | deferred
	AthleteID string
}

// Deferred reports whether the delivery was accepted without a write because
// the kickoff record has not landed yet.
func (r Result) Deferred() bool { return r.Outcome == model.OutcomeDeferred }

// Secrets are the per-form webhook signing secrets.
type Secrets struct {
	Kickoff    string
	Onboarding string
	Poster     string
}

// Service runs the webhook intake pipeline: verify signature, extract fields,
// persist, emit a notification event through the outbox. One instance serves
// all three forms; per-form behavior lives in a pipeline strategy.
type Service struct {
	athletes   repository.AthletesRepository
	outbox     repository.OutboxRepository
	deliveries repository.DeliveriesRepository // optional audit log
	rds        *redis.Client                   // optional fast-path dedup
	verifiers  map[model.FormType]*tally.Verifier
	runTx      func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func New(
	db *sqlx.DB,
	athletesRepo repository.AthletesRepository,
	outboxRepo repository.OutboxRepository,
	deliveriesRepo repository.DeliveriesRepository,
	rds *redis.Client,
	secrets Secrets,
) *Service {
	s := &Service{
		athletes:   athletesRepo,
		outbox:     outboxRepo,
		deliveries: deliveriesRepo,
		rds:        rds,
		verifiers: map[model.FormType]*tally.Verifier{
			model.FormKickoff:    tally.NewVerifier(secrets.Kickoff),
			model.FormOnboarding: tally.NewVerifier(secrets.Onboarding),
			model.FormPoster:     tally.NewVerifier(secrets.Poster),
		},
	}
	if db != nil {
		s.runTx = func(ctx context.Context, fn func(*sqlx.Tx) error) error {
			tx, err := db.BeginTxx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit()
		}
	} else {
		// no db (tests with fake repos): run without a wrapping transaction
		s.runTx = func(ctx context.Context, fn func(*sqlx.Tx) error) error {
			return fn(nil)
		}
	}
	return s
}

// pipeline is one form's strategy: which mapping translates its questions and
// how the extracted result is persisted.
type pipeline struct {
	mapping tally.Mapping
	apply   func(ctx context.Context, env model.Envelope, res *tally.Result) (Result, error)
}

func (s *Service) pipelineFor(form model.FormType) (pipeline, bool) {
	switch form {
	case model.FormKickoff:
		return pipeline{tally.KickoffMapping, s.applyKickoff}, true
	case model.FormOnboarding:
		return pipeline{tally.OnboardingMapping, s.applyOnboarding}, true
	case model.FormPoster:
		return pipeline{tally.PosterMapping, s.applyPoster}, true
	default:
		return pipeline{}, false
	}
}

// Handle processes one webhook delivery. body must be the raw request bytes;
// signature is the value of the tally-signature header.
func (s *Service) Handle(ctx context.Context, form model.FormType, body []byte, signature string) (Result, error) {
	p, ok := s.pipelineFor(form)
	if !ok {
		return Result{}, ErrMalformed
	}

	v := s.verifiers[form]
	if v == nil || !v.Verify(body, signature) {
		s.recordDelivery(ctx, form, "", model.OutcomeRejected, "")
		return Result{}, ErrSignature
	}

	var env model.Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.EventID == "" || len(env.Fields) == 0 {
		s.recordDelivery(ctx, form, env.EventID, model.OutcomeRejected, "")
		return Result{}, ErrMalformed
	}

	res, err := p.apply(ctx, env, tally.Extract(env, p.mapping))
	if err != nil {
		outcome := model.OutcomeFailed
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformed) {
			outcome = model.OutcomeRejected
		}
		s.recordDelivery(ctx, form, env.EventID, outcome, "")
		return Result{}, err
	}

	s.recordDelivery(ctx, form, env.EventID, res.Outcome, res.AthleteID)
	return res, nil
}

// applyKickoff is the sole creator of athlete rows. Duplicate deliveries of
// the same submission are a no-op success.
func (s *Service) applyKickoff(ctx context.Context, env model.Envelope, res *tally.Result) (Result, error) {
	if env.SubmissionID == "" {
		return Result{}, ErrMalformed
	}

	if s.seenEvent(ctx, env.EventID) {
		a, err := s.athletes.FindBySubmissionID(ctx, env.SubmissionID)
		if err == nil && a != nil {
			return Result{Outcome: model.OutcomeDuplicate, AthleteID: a.ID}, nil
		}
		// dedup key without a row: fall through to the real insert
	}

	formData, err := json.Marshal(kickoffFormData(res))
	if err != nil {
		return Result{}, fmt.Errorf("marshal form data: %w", err)
	}

	athlete := model.Athlete{
		ID:                 uuid.NewString(),
		TallySubmissionID:  env.SubmissionID,
		FirstName:          res.String(tally.FieldFirstName),
		LastName:           res.String(tally.FieldLastName),
		Email:              res.String(tally.FieldEmail),
		Phone:              res.String(tally.FieldPhone),
		GraduationYear:     res.Integer(tally.FieldGraduationYear),
		Sport:              res.Dropdown(tally.FieldSport),
		NeedsPoster:        res.Bool(tally.FieldNeedsPoster),
		OnboardingFormData: formData,
	}

	var created bool
	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		created, err = s.athletes.InsertIfAbsent(ctx, tx, athlete)
		if err != nil {
			return fmt.Errorf("insert athlete: %w", err)
		}
		if !created {
			return nil
		}
		return s.emit(ctx, tx, env, model.FormKickoff, model.NotificationAthleteCreated, athlete)
	})
	if err != nil {
		return Result{}, err
	}

	if !created {
		existing, err := s.athletes.FindBySubmissionID(ctx, env.SubmissionID)
		if err != nil || existing == nil {
			return Result{Outcome: model.OutcomeDuplicate}, nil
		}
		return Result{Outcome: model.OutcomeDuplicate, AthleteID: existing.ID}, nil
	}
	return Result{Outcome: model.OutcomeCreated, AthleteID: athlete.ID}, nil
}

// applyOnboarding enriches the record created by kickoff. Arriving before
// kickoff is a legitimate race: accept without writing and let the provider's
// redelivery land it once the row exists.
func (s *Service) applyOnboarding(ctx context.Context, env model.Envelope, res *tally.Result) (Result, error) {
	if env.SubmissionID == "" {
		return Result{}, ErrMalformed
	}

	athlete, err := s.athletes.FindBySubmissionID(ctx, env.SubmissionID)
	if err != nil {
		return Result{}, fmt.Errorf("find athlete: %w", err)
	}
	if athlete == nil {
		return Result{Outcome: model.OutcomeDeferred}, nil
	}

	patch, err := json.Marshal(onboardingFormData(res))
	if err != nil {
		return Result{}, fmt.Errorf("marshal form data: %w", err)
	}

	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.athletes.MergeFormData(ctx, tx, athlete.ID, patch); err != nil {
			return fmt.Errorf("merge form data: %w", err)
		}
		return s.emit(ctx, tx, env, model.FormOnboarding, model.NotificationAthleteEnriched, *athlete)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: model.OutcomeUpdated, AthleteID: athlete.ID}, nil
}

// applyPoster stores the uploaded poster. Correlation is by the athlete's
// internal id carried through the poster form as a hidden field, not the
// submission id, so an invalid or unknown id is terminal.
func (s *Service) applyPoster(ctx context.Context, env model.Envelope, res *tally.Result) (Result, error) {
	athleteID := res.String(tally.FieldAthleteID)
	if _, err := uuid.Parse(athleteID); err != nil {
		return Result{}, ErrNotFound
	}

	file := res.File(tally.FieldPosterFile)
	if file.URL == "" {
		return Result{}, ErrMalformed
	}

	athlete, err := s.athletes.FindByID(ctx, athleteID)
	if err != nil {
		return Result{}, fmt.Errorf("find athlete: %w", err)
	}
	if athlete == nil {
		return Result{}, ErrNotFound
	}

	patch, err := json.Marshal(posterFormData(res, file))
	if err != nil {
		return Result{}, fmt.Errorf("marshal form data: %w", err)
	}

	err = s.runTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.athletes.SetPoster(ctx, tx, athlete.ID, file.URL); err != nil {
			return fmt.Errorf("set poster: %w", err)
		}
		if err := s.athletes.MergeFormData(ctx, tx, athlete.ID, patch); err != nil {
			return fmt.Errorf("merge form data: %w", err)
		}
		return s.emit(ctx, tx, env, model.FormPoster, model.NotificationPosterReceived, *athlete)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: model.OutcomeUpdated, AthleteID: athlete.ID}, nil
}

// emit writes the notification event into the outbox within tx.
func (s *Service) emit(ctx context.Context, tx *sqlx.Tx, env model.Envelope, form model.FormType, eventType string, a model.Athlete) error {
	event := model.NotificationEvent{
		EventID:      env.EventID,
		Type:         eventType,
		AthleteID:    a.ID,
		SubmissionID: a.TallySubmissionID,
		AthleteName:  a.FullName(),
		Form:         form,
		OccurredAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.outbox.Insert(ctx, tx, "athlete", a.ID, NotificationsTopic, payload); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

// seenEvent is a best-effort redis fast path for duplicate deliveries. The
// unique key on tally_submission_id stays the real idempotency guard; any
// redis error means "not seen".
func (s *Service) seenEvent(ctx context.Context, eventID string) bool {
	if s.rds == nil || eventID == "" {
		return false
	}
	set, err := s.rds.SetNX(ctx, "intake:event:"+eventID, 1, 24*time.Hour).Result()
	if err != nil {
		return false
	}
	return !set
}

// recordDelivery appends the outcome to the ClickHouse audit log and bumps
// the counter. Best effort: the audit trail never fails a delivery.
func (s *Service) recordDelivery(ctx context.Context, form model.FormType, eventID, outcome, athleteID string) {
	metrics.WebhookDeliveriesTotal.WithLabelValues(form.String(), outcome).Inc()

	if s.deliveries == nil {
		return
	}
	err := s.deliveries.Insert(ctx, model.Delivery{
		ID:         util.New(),
		EventID:    eventID,
		Form:       form,
		Outcome:    outcome,
		AthleteID:  athleteID,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Errorf("delivery log insert failed: %v", err)
	}
}

func kickoffFormData(res *tally.Result) map[string]any {
	return map[string]any{
		tally.FieldFirstName:      res.String(tally.FieldFirstName),
		tally.FieldLastName:       res.String(tally.FieldLastName),
		tally.FieldEmail:          res.String(tally.FieldEmail),
		tally.FieldPhone:          res.String(tally.FieldPhone),
		tally.FieldGraduationYear: res.Integer(tally.FieldGraduationYear),
		tally.FieldSport:          res.Dropdown(tally.FieldSport),
		tally.FieldPosition:       res.Dropdown(tally.FieldPosition),
		tally.FieldNeedsPoster:    res.Bool(tally.FieldNeedsPoster),
		tally.FieldInstagram:      res.String(tally.FieldInstagram),
		"unmapped_fields":         res.Unmapped(),
	}
}

func onboardingFormData(res *tally.Result) map[string]any {
	return map[string]any{
		tally.FieldGPA:            res.Number(tally.FieldGPA),
		tally.FieldSATScore:       res.Integer(tally.FieldSATScore),
		tally.FieldHeight:         res.String(tally.FieldHeight),
		tally.FieldWeight:         res.Number(tally.FieldWeight),
		tally.FieldBudget:         res.Number(tally.FieldBudget),
		tally.FieldHighlightVideo: res.String(tally.FieldHighlightVideo),
		tally.FieldDivisions:      res.MultiSelect(tally.FieldDivisions),
		tally.FieldRegions:        res.MultiSelect(tally.FieldRegions),
		"unmapped_fields":         res.Unmapped(),
	}
}

func posterFormData(res *tally.Result, file model.FileUpload) map[string]any {
	return map[string]any{
		tally.FieldPosterFile: map[string]any{
			"name":     file.Name,
			"url":      file.URL,
			"mimeType": file.MimeType,
		},
		"unmapped_fields": res.Unmapped(),
	}
}
