package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Subscription, error)
	List(ctx context.Context, ownerID string) ([]domain.Subscription, error)
	ListActive(ctx context.Context, ownerID string, entity domain.EntityType, event domain.EventType) ([]domain.Subscription, error)
	Update(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error)
	UpdateHealth(ctx context.Context, ownerID, id string, health domain.HealthState) error
	Delete(ctx context.Context, ownerID, id string) error
	Count(ctx context.Context, ownerID string) (int64, error)
	Owners(ctx context.Context) ([]string, error)
	PruneIndexes(ctx context.Context, ownerID string) (int, error)
}

type subscriptionRedisRepo struct {
	rdb *redis.Client
	tz  *time.Location
}

func NewSubscriptionRepository(rdb *redis.Client, tz *time.Location) SubscriptionRepository {
	return &subscriptionRedisRepo{rdb: rdb, tz: tz}
}

func (r *subscriptionRedisRepo) keySubsHash(ownerID string) string {
	return fmt.Sprintf("hookq:subs:%s", ownerID)
}

// keySubsIndex holds every subscription id for one matching key, active or
// not; readers filter on Active so health flips never need index writes.
func (r *subscriptionRedisRepo) keySubsIndex(ownerID string, entity domain.EntityType, event domain.EventType) string {
	return fmt.Sprintf("hookq:subs:%s:idx:%s:%s", ownerID, entity, event)
}

func (r *subscriptionRedisRepo) keyOwners() string {
	return "hookq:owners"
}

func (r *subscriptionRedisRepo) now() time.Time { return time.Now().In(r.tz) }

func (r *subscriptionRedisRepo) Create(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := r.now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	b, _ := json.Marshal(sub)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keySubsHash(sub.OwnerID), sub.ID, string(b))
	pipe.SAdd(ctx, r.keySubsIndex(sub.OwnerID, sub.EntityType, sub.EventType), sub.ID)
	pipe.SAdd(ctx, r.keyOwners(), sub.OwnerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRedisRepo) Get(ctx context.Context, ownerID, id string) (*domain.Subscription, error) {
	js, err := r.rdb.HGet(ctx, r.keySubsHash(ownerID), id).Result()
	if err == redis.Nil || js == "" {
		return nil, fmt.Errorf("not-found")
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET sub: %w", err)
	}
	var sub domain.Subscription
	if err := json.Unmarshal([]byte(js), &sub); err != nil {
		return nil, fmt.Errorf("unmarshal sub: %w", err)
	}
	return &sub, nil
}

func (r *subscriptionRedisRepo) List(ctx context.Context, ownerID string) ([]domain.Subscription, error) {
	rows, err := r.rdb.HGetAll(ctx, r.keySubsHash(ownerID)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	subs := make([]domain.Subscription, 0, len(rows))
	for _, js := range rows {
		var sub domain.Subscription
		if err := json.Unmarshal([]byte(js), &sub); err != nil {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (r *subscriptionRedisRepo) ListActive(ctx context.Context, ownerID string, entity domain.EntityType, event domain.EventType) ([]domain.Subscription, error) {
	key := r.keySubsIndex(ownerID, entity, event)
	ids, err := r.rdb.SMembers(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	subs := make([]domain.Subscription, 0, len(ids))
	for _, id := range ids {
		sub, err := r.Get(ctx, ownerID, id)
		if err != nil {
			// Dangling index entry, prune lazily.
			_ = r.rdb.SRem(ctx, key, id).Err()
			continue
		}
		if !sub.Active {
			continue
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (r *subscriptionRedisRepo) Update(ctx context.Context, sub domain.Subscription) (*domain.Subscription, error) {
	cur, err := r.Get(ctx, sub.OwnerID, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = cur.CreatedAt
	sub.UpdatedAt = r.now()

	b, _ := json.Marshal(sub)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keySubsHash(sub.OwnerID), sub.ID, string(b))
	if cur.EntityType != sub.EntityType || cur.EventType != sub.EventType {
		pipe.SRem(ctx, r.keySubsIndex(sub.OwnerID, cur.EntityType, cur.EventType), sub.ID)
		pipe.SAdd(ctx, r.keySubsIndex(sub.OwnerID, sub.EntityType, sub.EventType), sub.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateHealth rewrites only the health counters. UpdatedAt is left alone so
// it keeps tracking configuration changes, not delivery traffic.
func (r *subscriptionRedisRepo) UpdateHealth(ctx context.Context, ownerID, id string, health domain.HealthState) error {
	sub, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	sub.ApplyHealth(health)

	b, _ := json.Marshal(sub)
	if err := r.rdb.HSet(ctx, r.keySubsHash(ownerID), id, string(b)).Err(); err != nil {
		return fmt.Errorf("redis HSET sub health: %w", err)
	}
	return nil
}

func (r *subscriptionRedisRepo) Delete(ctx context.Context, ownerID, id string) error {
	sub, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.HDel(ctx, r.keySubsHash(ownerID), id)
	pipe.SRem(ctx, r.keySubsIndex(ownerID, sub.EntityType, sub.EventType), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}

func (r *subscriptionRedisRepo) Count(ctx context.Context, ownerID string) (int64, error) {
	n, err := r.rdb.HLen(ctx, r.keySubsHash(ownerID)).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return n, nil
}

func (r *subscriptionRedisRepo) Owners(ctx context.Context) ([]string, error) {
	owners, err := r.rdb.SMembers(ctx, r.keyOwners()).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	return owners, nil
}

// PruneIndexes drops index ids whose hash entry is gone. ListActive prunes
// the same way but only on matching keys that still get traffic; this sweep
// covers the cold ones. The entity/event sets are closed, so every index key
// can be enumerated directly.
func (r *subscriptionRedisRepo) PruneIndexes(ctx context.Context, ownerID string) (int, error) {
	removed := 0
	for _, entity := range domain.EntityTypes() {
		for _, event := range domain.EventTypes() {
			key := r.keySubsIndex(ownerID, entity, event)
			ids, err := r.rdb.SMembers(ctx, key).Result()
			if err != nil && err != redis.Nil {
				return removed, err
			}
			for _, id := range ids {
				exists, err := r.rdb.HExists(ctx, r.keySubsHash(ownerID), id).Result()
				if err != nil {
					return removed, err
				}
				if exists {
					continue
				}
				if err := r.rdb.SRem(ctx, key, id).Err(); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	return removed, nil
}
