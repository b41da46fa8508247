package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/analytics"
)

// analyticsRepository runs the aggregate queries behind the dashboards.
// Every method is a single round-trip; the engine fans them out concurrently
// so nothing here holds state beyond the connection pool.
type analyticsRepository struct {
	db *sqlx.DB
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *sqlx.DB) *analyticsRepository {
	return &analyticsRepository{db: db}
}

// userConds builds WHERE conditions on the "user" table from f.
func userConds(f analytics.Filter, args *[]interface{}) []string {
	var conds []string
	if f.RolePrefix != "" {
		*args = append(*args, f.RolePrefix+"%")
		conds = append(conds, fmt.Sprintf(`EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE $%d)`, len(*args)))
	}
	if f.Department != "" {
		*args = append(*args, f.Department)
		conds = append(conds, fmt.Sprintf(`department = $%d`, len(*args)))
	}
	return conds
}

// assignmentConds builds WHERE conditions on an aliased assignment table.
func assignmentConds(alias string, f analytics.Filter, args *[]interface{}) []string {
	var conds []string
	if f.OwnerID != "" {
		*args = append(*args, f.OwnerID)
		conds = append(conds, fmt.Sprintf(`%s.owner_id = $%d`, alias, len(*args)))
	}
	if f.Status != "" {
		*args = append(*args, f.Status)
		conds = append(conds, fmt.Sprintf(`%s.status = $%d`, alias, len(*args)))
	}
	if f.Department != "" {
		*args = append(*args, f.Department)
		conds = append(conds, fmt.Sprintf(`%s.department = $%d`, alias, len(*args)))
	}
	return conds
}

// timeConds bounds col to [From, To).
func timeConds(col string, f analytics.Filter, args *[]interface{}) []string {
	var conds []string
	if !f.From.IsZero() {
		*args = append(*args, f.From.UTC())
		conds = append(conds, fmt.Sprintf(`%s >= $%d`, col, len(*args)))
	}
	if !f.To.IsZero() {
		*args = append(*args, f.To.UTC())
		conds = append(conds, fmt.Sprintf(`%s < $%d`, col, len(*args)))
	}
	return conds
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// submissionQuery joins submission to assignment when the filter needs
// assignment columns; returns the FROM clause and accumulated conditions.
func submissionQuery(f analytics.Filter, args *[]interface{}) (string, []string) {
	from := `FROM submission s`
	var conds []string
	if f.OwnerID != "" || f.Status != "" || f.Department != "" {
		from += ` JOIN assignment a ON a.id = s.assignment_id`
		conds = append(conds, assignmentConds("a", f, args)...)
	}
	conds = append(conds, timeConds("s.completed_at", f, args)...)
	return from, conds
}

func (repo analyticsRepository) CountUsers(ctx context.Context, f analytics.Filter) (int64, error) {
	var args []interface{}
	conds := userConds(f, &args)
	conds = append(conds, timeConds("created_at", f, &args)...)
	query := `SELECT COUNT(*) FROM "user"` + whereClause(conds)

	var cnt int64
	if err := repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return cnt, nil
}

func (repo analyticsRepository) CountAssignments(ctx context.Context, f analytics.Filter) (int64, error) {
	var args []interface{}
	conds := assignmentConds("assignment", f, &args)
	conds = append(conds, timeConds("created_at", f, &args)...)
	query := `SELECT COUNT(*) FROM assignment` + whereClause(conds)

	var cnt int64
	if err := repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting assignments")
	}
	return cnt, nil
}

func (repo analyticsRepository) CountSubmissions(ctx context.Context, f analytics.Filter) (int64, error) {
	var args []interface{}
	from, conds := submissionQuery(f, &args)
	query := `SELECT COUNT(*) ` + from + whereClause(conds)

	var cnt int64
	if err := repo.db.GetContext(ctx, &cnt, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting submissions")
	}
	return cnt, nil
}

func (repo analyticsRepository) AverageScore(ctx context.Context, f analytics.Filter) (null.Float64, error) {
	var args []interface{}
	from, conds := submissionQuery(f, &args)
	query := `SELECT AVG(s.score) ` + from + whereClause(conds)

	var avg null.Float64
	if err := repo.db.GetContext(ctx, &avg, query, args...); err != nil {
		return null.Float64{}, errors.Wrap(err, "averaging scores")
	}
	return avg, nil
}

func (repo analyticsRepository) ScoreValues(ctx context.Context, f analytics.Filter) ([]null.Float64, error) {
	var args []interface{}
	from, conds := submissionQuery(f, &args)
	query := `SELECT s.score ` + from + whereClause(conds)

	var scores []null.Float64
	if err := repo.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying score values")
	}
	return scores, nil
}

func (repo analyticsRepository) UserMonthlyCounts(ctx context.Context, from, to time.Time) ([]analytics.BucketRow, error) {
	query := `
SELECT date_trunc('month', created_at) AS bucket, COUNT(*) AS count, NULL::DOUBLE PRECISION AS avg
FROM "user"
WHERE created_at >= $1 AND created_at < $2
GROUP BY bucket
ORDER BY bucket`
	var rows []analytics.BucketRow
	if err := repo.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying monthly user counts")
	}
	return rows, nil
}

func (repo analyticsRepository) SubmissionDailyCounts(ctx context.Context, f analytics.Filter) ([]analytics.BucketRow, error) {
	return repo.submissionCounts(ctx, "day", f)
}

func (repo analyticsRepository) SubmissionMonthlyCounts(ctx context.Context, f analytics.Filter) ([]analytics.BucketRow, error) {
	return repo.submissionCounts(ctx, "month", f)
}

func (repo analyticsRepository) submissionCounts(ctx context.Context, trunc string, f analytics.Filter) ([]analytics.BucketRow, error) {
	var args []interface{}
	from, conds := submissionQuery(f, &args)
	query := fmt.Sprintf(
		`SELECT date_trunc('%s', s.completed_at) AS bucket, COUNT(*) AS count, AVG(s.score) AS avg `, trunc) +
		from + whereClause(conds) + `
GROUP BY bucket
ORDER BY bucket`

	var rows []analytics.BucketRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %sly submission counts", trunc)
	}
	return rows, nil
}

func (repo analyticsRepository) ActivityDailyCounts(ctx context.Context, from, to time.Time) ([]analytics.BucketRow, error) {
	query := `
SELECT date_trunc('day', occurred_at) AS bucket, COUNT(*) AS count, NULL::DOUBLE PRECISION AS avg
FROM activity_event
WHERE occurred_at >= $1 AND occurred_at < $2
GROUP BY bucket
ORDER BY bucket`
	var rows []analytics.BucketRow
	if err := repo.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying daily activity counts")
	}
	return rows, nil
}

func (repo analyticsRepository) ScoresByDepartment(ctx context.Context, f analytics.Filter) ([]analytics.DeptRow, error) {
	var args []interface{}
	conds := timeConds("s.completed_at", f, &args)
	query := `
SELECT u.department AS department, AVG(s.score) AS avg, COUNT(*) AS count
FROM submission s
JOIN "user" u ON u.id = s.user_id` + whereClause(conds) + `
GROUP BY u.department`

	var rows []analytics.DeptRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying scores by department")
	}
	return rows, nil
}

func (repo analyticsRepository) PracticeMinutesByDepartment(ctx context.Context, from, to time.Time) ([]analytics.DeptMinutesRow, error) {
	query := `
SELECT u.department AS department, SUM(e.duration_min) AS minutes
FROM activity_event e
JOIN "user" u ON u.id = e.user_id
WHERE e.type = 'practice' AND e.occurred_at >= $1 AND e.occurred_at < $2
GROUP BY u.department`
	var rows []analytics.DeptMinutesRow
	if err := repo.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, errors.Wrap(err, "querying practice minutes by department")
	}
	return rows, nil
}

func (repo analyticsRepository) ScoresByUser(ctx context.Context, f analytics.Filter, limit int) ([]analytics.GroupRow, error) {
	var args []interface{}
	from, conds := submissionQuery(f, &args)
	query := `SELECT s.user_id AS key, AVG(s.score) AS avg, COUNT(*) AS count ` +
		from + whereClause(conds) + `
GROUP BY s.user_id`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(`
ORDER BY avg DESC NULLS LAST, key
LIMIT $%d`, len(args))
	}

	var rows []analytics.GroupRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying scores by user")
	}
	return rows, nil
}

func (repo analyticsRepository) ScoresByAssignment(ctx context.Context, ids []string) ([]analytics.GroupRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
SELECT assignment_id AS key, AVG(score) AS avg, COUNT(*) AS count
FROM submission
WHERE assignment_id = ANY($1)
GROUP BY assignment_id`
	var rows []analytics.GroupRow
	if err := repo.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "querying scores by assignment")
	}
	return rows, nil
}

func (repo analyticsRepository) TopAssignmentsByVolume(ctx context.Context, since time.Time, limit int) ([]analytics.AssignmentVolumeRow, error) {
	query := `
SELECT a.id AS id, a.title AS title, COUNT(s.id) AS count
FROM assignment a
JOIN submission s ON s.assignment_id = a.id
WHERE s.completed_at >= $1
GROUP BY a.id, a.title
ORDER BY count DESC, a.id
LIMIT $2`
	var rows []analytics.AssignmentVolumeRow
	if err := repo.db.SelectContext(ctx, &rows, query, since.UTC(), limit); err != nil {
		return nil, errors.Wrap(err, "querying top assignments by volume")
	}
	return rows, nil
}

func (repo analyticsRepository) RecentAssignments(ctx context.Context, ownerID string, limit int) ([]analytics.AssignmentRow, error) {
	query := `
SELECT id, title, status, created_at
FROM assignment
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2`
	var rows []analytics.AssignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, ownerID, limit); err != nil {
		return nil, errors.Wrap(err, "querying recent assignments")
	}
	return rows, nil
}

func (repo analyticsRepository) ProfilesByID(ctx context.Context, ids []string) ([]analytics.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, department FROM "user" WHERE id = ANY($1)`
	var profiles []analytics.Profile
	if err := repo.db.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "querying user profiles")
	}
	return profiles, nil
}
