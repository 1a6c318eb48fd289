package services

import (
	"context"
	"errors"
	"strings"

	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

type SubscriptionService interface {
	Create(ctx context.Context, ownerID string, sub domain.Subscription) (*domain.Subscription, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Subscription, error)
	List(ctx context.Context, ownerID string) ([]domain.Subscription, error)
	Update(ctx context.Context, ownerID, id string, upd domain.SubscriptionUpdate) (*domain.Subscription, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
}

func NewSubscriptionService(repo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{repo: repo}
}

func (s *subscriptionService) Create(ctx context.Context, ownerID string, sub domain.Subscription) (*domain.Subscription, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.New("owner is required")
	}
	sub.OwnerID = ownerID
	sub.Active = true
	sub.TriggerCount = 0
	sub.ConsecutiveFailures = 0
	sub.LastTriggeredAt = nil
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, sub)
}

func (s *subscriptionService) Get(ctx context.Context, ownerID, id string) (*domain.Subscription, error) {
	return s.repo.Get(ctx, ownerID, id)
}

func (s *subscriptionService) List(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *subscriptionService) Update(ctx context.Context, ownerID, id string, upd domain.SubscriptionUpdate) (*domain.Subscription, error) {
	sub, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		sub.Name = *upd.Name
	}
	if upd.EntityType != nil {
		sub.EntityType = *upd.EntityType
	}
	if upd.EventType != nil {
		sub.EventType = *upd.EventType
	}
	if upd.TargetURL != nil {
		sub.TargetURL = *upd.TargetURL
	}
	if upd.Headers != nil {
		sub.Headers = *upd.Headers
	}
	if upd.Secret != nil {
		sub.Secret = *upd.Secret
	}
	if upd.Conditions != nil {
		sub.Conditions = *upd.Conditions
	}
	if upd.Active != nil {
		// Re-enabling clears the failure streak so the next failure starts
		// a fresh count toward auto-disable.
		if *upd.Active && !sub.Active {
			sub.ConsecutiveFailures = 0
		}
		sub.Active = *upd.Active
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, *sub)
}

func (s *subscriptionService) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.Delete(ctx, ownerID, id)
}
