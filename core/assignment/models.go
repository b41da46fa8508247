package assignment

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"
)

var Statuses = []string{StatusDraft, StatusPublished, StatusClosed}

type Assignment struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"` // teacher
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Department string    `json:"department,omitempty"`
	DueDate    time.Time `json:"due_date"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (a Assignment) IsPublished() bool { return a.Status == StatusPublished }

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title      string    `json:"title" validate:"required"`
	Status     string    `json:"status" validate:"omitempty,oneof=draft published closed"`
	Department string    `json:"department"`
	DueDate    time.Time `json:"due_date"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Department = core.CleanString(na.Department)
	if na.Status == "" {
		na.Status = StatusDraft
	}
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what may be modified on an existing Assignment.
type UpdateAssignment struct {
	Title      string     `json:"title"`
	Status     string     `json:"status" validate:"omitempty,oneof=draft published closed"`
	Department string     `json:"department"`
	DueDate    *time.Time `json:"due_date"`
}

func (ua *UpdateAssignment) Validate() error {
	ua.Title = core.CleanString(ua.Title)
	ua.Department = core.CleanString(ua.Department)
	return core.Validate.Struct(ua)
}

type QueryFilter struct {
	OwnerID    string `query:"owner"`
	Status     string `query:"status"`
	Department string `query:"department"`
}
