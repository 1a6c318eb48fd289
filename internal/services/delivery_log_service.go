package services

import (
	"context"
	"strings"

	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

// DeliveryLogService is the read side of the delivery log, scoped to one
// owner. Entries are stored per owner, so a foreign subscription id simply
// matches nothing.
type DeliveryLogService interface {
	Recent(ctx context.Context, ownerID, subscriptionID string, limit int) ([]domain.DeliveryLogEntry, error)
}

type deliveryLogService struct {
	logs repository.DeliveryLogRepository
}

func NewDeliveryLogService(logs repository.DeliveryLogRepository) DeliveryLogService {
	return &deliveryLogService{logs: logs}
}

func (s *deliveryLogService) Recent(ctx context.Context, ownerID, subscriptionID string, limit int) ([]domain.DeliveryLogEntry, error) {
	if strings.TrimSpace(subscriptionID) != "" {
		return s.logs.ListBySubscription(ctx, ownerID, subscriptionID, limit)
	}
	return s.logs.ListRecent(ctx, ownerID, limit)
}
