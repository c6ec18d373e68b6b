package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/preferredrecruit/intake-gateway/internal/model"
)

// DeliveriesRepository is the append-only webhook audit log in ClickHouse,
// read by the ops report endpoint.
type DeliveriesRepository interface {
	Insert(ctx context.Context, d model.Delivery) error
	List(ctx context.Context, form model.FormType, outcome string, limit, offset int) ([]model.Delivery, error)
}

type deliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDeliveriesRepository(ch *sqlx.DB) DeliveriesRepository {
	return &deliveriesRepository{ch: ch}
}

func (r *deliveriesRepository) Insert(ctx context.Context, d model.Delivery) error {
	const q = `
		INSERT INTO recruit.webhook_deliveries
		    (id, event_id, form, outcome, athlete_id, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.ch.ExecContext(ctx, q,
		d.ID, d.EventID, d.Form.String(), d.Outcome, d.AthleteID, d.ReceivedAt,
	)
	return err
}

func (r *deliveriesRepository) List(ctx context.Context, form model.FormType, outcome string, limit, offset int) ([]model.Delivery, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, event_id, form, outcome, athlete_id, received_at
		FROM recruit.webhook_deliveries
		WHERE 1 = 1
	`
	args := []any{}

	if form != "" {
		q += " AND form = ?"
		args = append(args, form.String())
	}
	if outcome != "" {
		q += " AND outcome = ?"
		args = append(args, outcome)
	}

	q += " ORDER BY received_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Delivery
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
