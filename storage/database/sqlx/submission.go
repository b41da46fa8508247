package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRow struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	AssignmentID string       `db:"assignment_id"`
	Score        null.Float64 `db:"score"`
	DurationMin  null.Int     `db:"duration_min"`
	CompletedAt  null.Time    `db:"completed_at"`
}

func (r submissionRow) unmarshal() submission.Submission {
	return submission.Submission{
		ID:           r.ID,
		UserID:       r.UserID,
		AssignmentID: r.AssignmentID,
		Score:        r.Score.Float64,
		DurationMin:  r.DurationMin.Ptr(),
		CompletedAt:  r.CompletedAt.Time,
	}
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	r := submissionRow{
		ID:           sub.ID,
		UserID:       sub.UserID,
		AssignmentID: sub.AssignmentID,
		Score:        null.Float64From(sub.Score),
		DurationMin:  null.IntFromPtr(sub.DurationMin),
		CompletedAt:  null.NewTime(sub.CompletedAt.UTC(), !sub.CompletedAt.IsZero()),
	}
	query := `
INSERT INTO submission (id, user_id, assignment_id, score, duration_min, completed_at)
VALUES (:id, :user_id, :assignment_id, :score, :duration_min, :completed_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, r); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) FilterSubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var conds []string
	var args []interface{}

	query := `SELECT * FROM submission`
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf(`user_id = $%d`, len(args)))
	}
	if filter.AssignmentID != "" {
		args = append(args, filter.AssignmentID)
		conds = append(conds, fmt.Sprintf(`assignment_id = $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY completed_at DESC"

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.unmarshal())
	}
	return subs, nil
}
