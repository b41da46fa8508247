package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/activity"
)

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo activityRepository) CreateEvent(ctx context.Context, evt activity.Event) (activity.Event, error) {
	evt.ID = uuid.New().String()
	row := struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		Type        string    `db:"type"`
		DurationMin null.Int  `db:"duration_min"`
		OccurredAt  null.Time `db:"occurred_at"`
	}{
		ID:          evt.ID,
		UserID:      evt.UserID,
		Type:        evt.Type,
		DurationMin: null.IntFromPtr(evt.DurationMin),
		OccurredAt:  null.NewTime(evt.OccurredAt.UTC(), !evt.OccurredAt.IsZero()),
	}
	query := `
INSERT INTO activity_event (id, user_id, type, duration_min, occurred_at)
VALUES (:id, :user_id, :type, :duration_min, :occurred_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return activity.Event{}, errors.Wrap(err, "inserting activity event")
	}
	return evt, nil
}
