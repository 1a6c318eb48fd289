package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/hookq/internal/repository"
)

// IndexCleanupService periodically sweeps dangling ids out of the
// subscription index sets. The hot path prunes lazily on reads; this loop
// catches indexes nothing dispatches to anymore.
type IndexCleanupService interface {
	Start(ctx context.Context)
}

type indexCleanupService struct {
	repo     repository.SubscriptionRepository
	logger   *slog.Logger
	interval time.Duration
}

func NewIndexCleanupService(repo repository.SubscriptionRepository, logger *slog.Logger, intervalSeconds int) IndexCleanupService {
	if intervalSeconds <= 0 {
		intervalSeconds = 300
	}
	return &indexCleanupService{
		repo:     repo,
		logger:   logger,
		interval: time.Duration(intervalSeconds) * time.Second,
	}
}

func (s *indexCleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *indexCleanupService) sweep(ctx context.Context) {
	owners, err := s.repo.Owners(ctx)
	if err != nil {
		s.logger.Warn("index cleanup list owners failed", "err", err)
		return
	}
	total := 0
	for _, owner := range owners {
		removed, err := s.repo.PruneIndexes(ctx, owner)
		if err != nil {
			s.logger.Warn("index cleanup failed", "owner", owner, "err", err)
			continue
		}
		total += removed
	}
	if total > 0 {
		s.logger.Info("index cleanup removed dangling entries", "count", total)
	}
}
