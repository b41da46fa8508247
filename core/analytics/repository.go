package analytics

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
)

// Raw aggregate row contracts. The store returns these as-is (nullable,
// sometimes string-encoded); nothing downstream touches them without going
// through the normalization boundary in normalize.go.
type (
	// GroupRow is a grouped average+count keyed by an entity id.
	GroupRow struct {
		Key   string       `db:"key"`
		Avg   null.Float64 `db:"avg"`
		Count int64        `db:"count"`
	}

	// BucketRow is a date-truncated grouped count, with the average when the
	// query computes one.
	BucketRow struct {
		Bucket null.Time    `db:"bucket"`
		Count  int64        `db:"count"`
		Avg    null.Float64 `db:"avg"`
	}

	DeptRow struct {
		Department null.String  `db:"department"`
		Avg        null.Float64 `db:"avg"`
		Count      int64        `db:"count"`
	}

	DeptMinutesRow struct {
		Department null.String `db:"department"`
		Minutes    null.Int64  `db:"minutes"`
	}

	AssignmentVolumeRow struct {
		ID    string      `db:"id"`
		Title null.String `db:"title"`
		Count int64       `db:"count"`
	}

	AssignmentRow struct {
		ID        string      `db:"id"`
		Title     null.String `db:"title"`
		Status    string      `db:"status"`
		CreatedAt time.Time   `db:"created_at"`
	}

	// Profile is the display profile resolved by the batched lookup.
	Profile struct {
		ID         string      `db:"id"`
		Name       null.String `db:"name"`
		Department null.String `db:"department"`
	}
)

// Filter scopes an aggregate query. Zero values mean "no constraint".
// OwnerID restricts submissions/assignments to assignments owned by that
// teacher; From/To bound the relevant timestamp (From inclusive, To exclusive).
type Filter struct {
	OwnerID    string
	Department string
	RolePrefix string
	Status     string
	From       time.Time
	To         time.Time
}

// Repository is the read-only boundary to the upstream store. Every method is
// an independent aggregate query; implementations must be safe for concurrent
// use since the engine fans them out.
type Repository interface {
	CountUsers(ctx context.Context, f Filter) (int64, error)
	CountAssignments(ctx context.Context, f Filter) (int64, error)
	CountSubmissions(ctx context.Context, f Filter) (int64, error)
	AverageScore(ctx context.Context, f Filter) (null.Float64, error)
	// ScoreValues returns the raw (possibly null) scores matching f, for binning.
	ScoreValues(ctx context.Context, f Filter) ([]null.Float64, error)

	// Date-truncated range queries. Buckets are day or month starts; the
	// engine folds them into its own windows.
	UserMonthlyCounts(ctx context.Context, from, to time.Time) ([]BucketRow, error)
	SubmissionDailyCounts(ctx context.Context, f Filter) ([]BucketRow, error)
	SubmissionMonthlyCounts(ctx context.Context, f Filter) ([]BucketRow, error)
	ActivityDailyCounts(ctx context.Context, from, to time.Time) ([]BucketRow, error)

	// Grouped aggregates.
	ScoresByDepartment(ctx context.Context, f Filter) ([]DeptRow, error)
	PracticeMinutesByDepartment(ctx context.Context, from, to time.Time) ([]DeptMinutesRow, error)
	// ScoresByUser groups submissions by student; limit <= 0 means no limit.
	ScoresByUser(ctx context.Context, f Filter, limit int) ([]GroupRow, error)
	// ScoresByAssignment groups submissions for the given assignment ids.
	ScoresByAssignment(ctx context.Context, ids []string) ([]GroupRow, error)

	TopAssignmentsByVolume(ctx context.Context, since time.Time, limit int) ([]AssignmentVolumeRow, error)
	RecentAssignments(ctx context.Context, ownerID string, limit int) ([]AssignmentRow, error)

	// ProfilesByID resolves display profiles in a single batched lookup.
	ProfilesByID(ctx context.Context, ids []string) ([]Profile, error)
}
