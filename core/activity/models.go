package activity

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Event types
const (
	TypeLogin    = "login"
	TypePractice = "practice"
	TypeView     = "view"
)

// Event is a timestamped activity record tied to a user.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	DurationMin *int      `json:"duration_min,omitempty"` // nil for instantaneous events
	OccurredAt  time.Time `json:"occurred_at"`            // UTC
}

// NewEvent contains information needed to record an Event.
type NewEvent struct {
	Type        string `json:"type" validate:"required"`
	DurationMin *int   `json:"duration_min" validate:"omitempty,min=0"`
}

func (ne *NewEvent) Validate() error {
	ne.Type = core.CleanString(ne.Type, true /* lower */)
	return core.Validate.Struct(ne)
}
