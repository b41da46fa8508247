package submission

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Submission is one completed-assignment result with a numeric score.
type Submission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AssignmentID string    `json:"assignment_id"`
	Score        float64   `json:"score"`                  // 0 <= score <= 100
	DurationMin  *int      `json:"duration_min,omitempty"` // practice time spent, if tracked
	CompletedAt  time.Time `json:"completed_at"`           // UTC, never in the future
}

// NewSubmission contains information needed to record a Submission.
type NewSubmission struct {
	AssignmentID string  `json:"assignment_id" validate:"required"`
	Score        float64 `json:"score" validate:"min=0,max=100"`
	DurationMin  *int    `json:"duration_min" validate:"omitempty,min=0"`
}

func (ns *NewSubmission) Validate() error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	return core.Validate.Struct(ns)
}

type QueryFilter struct {
	UserID       string `query:"user"`
	AssignmentID string `query:"assignment"`
}
