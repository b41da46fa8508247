package submission

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("submission not found")

type (
	Repository interface {
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		FilterSubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Record(ctx context.Context, userID string, ns NewSubmission) (Submission, error) {
	sub := Submission{
		UserID:       userID,
		AssignmentID: ns.AssignmentID,
		Score:        ns.Score,
		DurationMin:  ns.DurationMin,
		CompletedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, filter)
}
