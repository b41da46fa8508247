package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRow struct {
	ID         string      `db:"id"`
	OwnerID    string      `db:"owner_id"`
	Title      string      `db:"title"`
	Status     string      `db:"status"`
	Department null.String `db:"department"`
	DueDate    null.Time   `db:"due_date"`
	CreatedAt  null.Time   `db:"created_at"`
	UpdatedAt  null.Time   `db:"updated_at"`
}

func (r assignmentRow) unmarshal() assignment.Assignment {
	return assignment.Assignment{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Title:      r.Title,
		Status:     r.Status,
		Department: r.Department.String,
		DueDate:    r.DueDate.Time,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

func marshalAssignment(asg assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:         asg.ID,
		OwnerID:    asg.OwnerID,
		Title:      asg.Title,
		Status:     asg.Status,
		Department: null.NewString(asg.Department, asg.Department != ""),
		DueDate:    null.NewTime(asg.DueDate.UTC(), !asg.DueDate.IsZero()),
		CreatedAt:  null.NewTime(asg.CreatedAt.UTC(), !asg.CreatedAt.IsZero()),
		UpdatedAt:  null.NewTime(asg.UpdatedAt.UTC(), !asg.UpdatedAt.IsZero()),
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	r := marshalAssignment(asg)
	query := `
INSERT INTO assignment (id, owner_id, title, status, department, due_date, created_at, updated_at)
VALUES (:id, :owner_id, :title, :status, :department, :due_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, r); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var r assignmentRow
	query := `SELECT * FROM assignment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &r, query, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return r.unmarshal(), nil
}

func (repo assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var conds []string
	var args []interface{}

	query := `SELECT * FROM assignment`
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf(`owner_id = $%d`, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf(`status = $%d`, len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conds = append(conds, fmt.Sprintf(`department = $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.unmarshal())
	}
	return asgs, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	r := marshalAssignment(asg)
	query := `
UPDATE assignment
SET title = :title, status = :status, department = :department, due_date = :due_date, updated_at = :updated_at
WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, query, r); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	query := `DELETE FROM assignment WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
