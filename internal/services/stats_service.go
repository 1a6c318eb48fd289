package services

import (
	"context"

	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

type StatsService interface {
	Overview(ctx context.Context) (*domain.StatsOverview, error)
}

type statsService struct {
	subs repository.SubscriptionRepository
	logs repository.DeliveryLogRepository
}

func NewStatsService(subs repository.SubscriptionRepository, logs repository.DeliveryLogRepository) StatsService {
	return &statsService{subs: subs, logs: logs}
}

func (s *statsService) Overview(ctx context.Context) (*domain.StatsOverview, error) {
	owners, err := s.subs.Owners(ctx)
	if err != nil {
		return nil, err
	}

	stats := domain.StatsOverview{Owners: int64(len(owners))}
	for _, owner := range owners {
		n, err := s.subs.Count(ctx, owner)
		if err != nil {
			return nil, err
		}
		stats.Subscriptions += n

		subs, err := s.subs.List(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if sub.Active {
				stats.ActiveSubscriptions++
			}
		}

		depth, err := s.logs.Len(ctx, owner)
		if err != nil {
			return nil, err
		}
		stats.DeliveryLogEntries += depth
	}
	return &stats, nil
}
