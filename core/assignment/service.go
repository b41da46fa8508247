package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		FilterAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ownerID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		OwnerID:    ownerID,
		Title:      na.Title,
		Status:     na.Status,
		Department: na.Department,
		DueDate:    na.DueDate.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, orig Assignment, ua UpdateAssignment) (Assignment, error) {
	if ua.Title != "" {
		orig.Title = ua.Title
	}
	if ua.Status != "" {
		orig.Status = ua.Status
	}
	if ua.Department != "" {
		orig.Department = ua.Department
	}
	if ua.DueDate != nil {
		orig.DueDate = ua.DueDate.UTC()
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, orig)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}
