package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/hookq/internal/metrics"
	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/pkg/domain"
)

// RecorderService persists the aftermath of a delivery series: one log entry
// and one health update per outcome. Manual test deliveries bypass it
// entirely.
type RecorderService interface {
	Record(ctx context.Context, sub domain.Subscription, payload domain.Payload, out domain.Outcome)
}

type recorderService struct {
	subs      repository.SubscriptionRepository
	logs      repository.DeliveryLogRepository
	logger    *slog.Logger
	threshold int
	now       func() time.Time
}

// NewRecorderService builds a recorder that disables subscriptions after
// threshold consecutive failures. A threshold <= 0 uses the default.
func NewRecorderService(subs repository.SubscriptionRepository, logs repository.DeliveryLogRepository, logger *slog.Logger, threshold int, now func() time.Time) RecorderService {
	if now == nil {
		now = time.Now
	}
	return &recorderService{subs: subs, logs: logs, logger: logger, threshold: threshold, now: now}
}

func (r *recorderService) Record(ctx context.Context, sub domain.Subscription, payload domain.Payload, out domain.Outcome) {
	ts := r.now().UTC()

	entry := domain.NewDeliveryLogEntry(sub, payload, out, ts)
	if _, err := r.logs.Append(ctx, entry); err != nil {
		r.logger.Error("append delivery log failed", "subscriptionId", sub.ID, "err", err)
	}

	r.updateHealth(ctx, sub, out.Success, ts)

	metrics.DeliveriesTotal.WithLabelValues(string(sub.EntityType), string(sub.EventType), string(out.Status())).Inc()
	metrics.DeliveryDurationSeconds.WithLabelValues(string(out.Status())).Observe(out.Duration.Seconds())
}

// updateHealth re-reads the subscription so concurrent series fold their
// outcomes into the freshest counters instead of a snapshot taken at
// dispatch time.
func (r *recorderService) updateHealth(ctx context.Context, sub domain.Subscription, success bool, ts time.Time) {
	current, err := r.subs.Get(ctx, sub.OwnerID, sub.ID)
	if err != nil {
		// Deleted mid-flight: the log entry stands on its own.
		r.logger.Warn("health update skipped", "subscriptionId", sub.ID, "err", err)
		return
	}

	next := domain.NextHealthState(current.Health(), success, r.threshold, ts)
	if err := r.subs.UpdateHealth(ctx, sub.OwnerID, sub.ID, next); err != nil {
		r.logger.Error("health update failed", "subscriptionId", sub.ID, "err", err)
		return
	}

	if current.Active && !next.Active {
		metrics.SubscriptionsAutoDisabledTotal.WithLabelValues(string(sub.EntityType), string(sub.EventType)).Inc()
		r.logger.Warn("subscription auto-disabled",
			"subscriptionId", sub.ID,
			"ownerId", sub.OwnerID,
			"consecutiveFailures", next.ConsecutiveFailures,
		)
	}
}
