package activity

import (
	"context"
	"time"
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Record(ctx context.Context, userID string, ne NewEvent) (Event, error) {
	evt := Event{
		UserID:      userID,
		Type:        ne.Type,
		DurationMin: ne.DurationMin,
		OccurredAt:  time.Now().UTC(),
	}
	return svc.repo.CreateEvent(ctx, evt)
}
