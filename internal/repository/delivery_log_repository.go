package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultLogMaxEntries = 1000

type DeliveryLogRepository interface {
	Append(ctx context.Context, entry domain.DeliveryLogEntry) (*domain.DeliveryLogEntry, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]domain.DeliveryLogEntry, error)
	ListBySubscription(ctx context.Context, ownerID, subscriptionID string, limit int) ([]domain.DeliveryLogEntry, error)
	Len(ctx context.Context, ownerID string) (int64, error)
}

type deliveryLogRedisRepo struct {
	rdb        *redis.Client
	tz         *time.Location
	maxEntries int
}

// NewDeliveryLogRepository builds the append-only per-owner delivery log.
// maxEntries caps retention at the store level; the engine itself never
// deletes entries.
func NewDeliveryLogRepository(rdb *redis.Client, tz *time.Location, maxEntries int) DeliveryLogRepository {
	if maxEntries <= 0 {
		maxEntries = defaultLogMaxEntries
	}
	return &deliveryLogRedisRepo{rdb: rdb, tz: tz, maxEntries: maxEntries}
}

func (r *deliveryLogRedisRepo) keyDeliveries(ownerID string) string {
	return fmt.Sprintf("hookq:deliveries:%s", ownerID)
}

func (r *deliveryLogRedisRepo) now() time.Time { return time.Now().In(r.tz) }

func (r *deliveryLogRedisRepo) Append(ctx context.Context, entry domain.DeliveryLogEntry) (*domain.DeliveryLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	b, _ := json.Marshal(entry)

	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, r.keyDeliveries(entry.OwnerID), string(b))
	pipe.LTrim(ctx, r.keyDeliveries(entry.OwnerID), 0, int64(r.maxEntries-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis LPUSH delivery: %w", err)
	}
	return &entry, nil
}

func (r *deliveryLogRedisRepo) ListRecent(ctx context.Context, ownerID string, limit int) ([]domain.DeliveryLogEntry, error) {
	if limit <= 0 || limit > r.maxEntries {
		limit = r.maxEntries
	}
	rows, err := r.rdb.LRange(ctx, r.keyDeliveries(ownerID), 0, int64(limit-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	return decodeEntries(rows, limit, nil), nil
}

func (r *deliveryLogRedisRepo) ListBySubscription(ctx context.Context, ownerID, subscriptionID string, limit int) ([]domain.DeliveryLogEntry, error) {
	if limit <= 0 || limit > r.maxEntries {
		limit = r.maxEntries
	}
	// Scan the whole retained window; it is bounded by maxEntries.
	rows, err := r.rdb.LRange(ctx, r.keyDeliveries(ownerID), 0, int64(r.maxEntries-1)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	return decodeEntries(rows, limit, func(e domain.DeliveryLogEntry) bool {
		return e.SubscriptionID == subscriptionID
	}), nil
}

func (r *deliveryLogRedisRepo) Len(ctx context.Context, ownerID string) (int64, error) {
	n, err := r.rdb.LLen(ctx, r.keyDeliveries(ownerID)).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return n, nil
}

func decodeEntries(rows []string, limit int, keep func(domain.DeliveryLogEntry) bool) []domain.DeliveryLogEntry {
	entries := make([]domain.DeliveryLogEntry, 0, len(rows))
	for _, js := range rows {
		var e domain.DeliveryLogEntry
		if err := json.Unmarshal([]byte(js), &e); err != nil {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		entries = append(entries, e)
		if len(entries) >= limit {
			break
		}
	}
	return entries
}
