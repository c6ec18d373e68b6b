package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/preferredrecruit/intake-gateway/internal/model"
)

// AthletesRepository defines persistence for the athletes table. Row-level
// semantics (insert-if-absent keyed by the unique tally_submission_id,
// update-by-key) are the only concurrency control the intake pipeline uses.
type AthletesRepository interface {
	// InsertIfAbsent inserts the athlete unless a row with the same
	// tally_submission_id already exists. Returns whether a row was created.
	InsertIfAbsent(ctx context.Context, tx *sqlx.Tx, a model.Athlete) (bool, error)
	FindBySubmissionID(ctx context.Context, submissionID string) (*model.Athlete, error)
	FindByID(ctx context.Context, id string) (*model.Athlete, error)
	// MergeFormData merges patch into onboarding_form_data: new keys are
	// added, colliding keys overwritten, unrelated keys preserved.
	MergeFormData(ctx context.Context, tx *sqlx.Tx, id string, patch []byte) error
	// SetPoster stores the uploaded poster URL and flips poster_received.
	SetPoster(ctx context.Context, tx *sqlx.Tx, id, url string) error
}

type AthletesRepositoryImpl struct {
	db *sqlx.DB
}

func NewAthletesRepository(db *sqlx.DB) *AthletesRepositoryImpl {
	return &AthletesRepositoryImpl{db: db}
}

var _ AthletesRepository = (*AthletesRepositoryImpl)(nil)

func (r *AthletesRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// InsertIfAbsent relies on the UNIQUE key on tally_submission_id; a duplicate
// delivery affects zero rows instead of erroring.
func (r *AthletesRepositoryImpl) InsertIfAbsent(ctx context.Context, tx *sqlx.Tx, a model.Athlete) (bool, error) {
	const q = `
		INSERT INTO athletes
		    (id, tally_submission_id, first_name, last_name, email, phone,
		     graduation_year, sport, needs_poster, poster_url, poster_received,
		     onboarding_form_data, created_at, updated_at)
		VALUES
		    (?, ?, ?, ?, ?, ?, ?, ?, ?, '', 0, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE tally_submission_id = tally_submission_id
	`
	created := false
	err := r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q,
			a.ID, a.TallySubmissionID, a.FirstName, a.LastName, a.Email, a.Phone,
			a.GraduationYear, a.Sport, a.NeedsPoster, a.OnboardingFormData,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1 // MySQL reports 0 for the no-op duplicate branch
		return nil
	})
	return created, err
}

func (r *AthletesRepositoryImpl) FindBySubmissionID(ctx context.Context, submissionID string) (*model.Athlete, error) {
	return r.findOne(ctx, `tally_submission_id = ?`, submissionID)
}

func (r *AthletesRepositoryImpl) FindByID(ctx context.Context, id string) (*model.Athlete, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *AthletesRepositoryImpl) findOne(ctx context.Context, where string, arg any) (*model.Athlete, error) {
	var a model.Athlete
	err := r.db.GetContext(ctx, &a, `
		SELECT id, tally_submission_id, first_name, last_name, email, phone,
		       graduation_year, sport, needs_poster, poster_url, poster_received,
		       onboarding_form_data, created_at, updated_at
		  FROM athletes
		 WHERE `+where+` LIMIT 1
	`, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// MergeFormData uses JSON_MERGE_PATCH so a later form never clobbers keys it
// does not itself carry.
func (r *AthletesRepositoryImpl) MergeFormData(ctx context.Context, tx *sqlx.Tx, id string, patch []byte) error {
	const q = `
		UPDATE athletes
		   SET onboarding_form_data = JSON_MERGE_PATCH(COALESCE(onboarding_form_data, '{}'), CAST(? AS JSON)),
		       updated_at = NOW()
		 WHERE id = ?
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, patch, id)
		return err
	})
}

func (r *AthletesRepositoryImpl) SetPoster(ctx context.Context, tx *sqlx.Tx, id, url string) error {
	const q = `
		UPDATE athletes
		   SET poster_url = ?, poster_received = 1, updated_at = NOW()
		 WHERE id = ?
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, q, url, id)
		return err
	})
}
