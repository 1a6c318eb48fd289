package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestIndexCleanupSweep(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewSubscriptionRepository(rdb, time.UTC)
	ctx := context.Background()

	sub, err := repo.Create(ctx, domain.Subscription{
		OwnerID:    "owner-1",
		Name:       "hook",
		EntityType: domain.EntityDeal,
		EventType:  domain.EventUpdated,
		TargetURL:  "https://hooks.example.com/x",
		Active:     true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A dangling id on a key no dispatch ever reads.
	coldIdx := fmt.Sprintf("hookq:subs:%s:idx:%s:%s", "owner-1", domain.EntityTask, domain.EventDeleted)
	if err := rdb.SAdd(ctx, coldIdx, "ghost-id").Err(); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}

	svc := NewIndexCleanupService(repo, slog.Default(), 300).(*indexCleanupService)
	svc.sweep(ctx)

	if n, _ := rdb.SCard(ctx, coldIdx).Result(); n != 0 {
		t.Errorf("cold index still holds %d dangling ids", n)
	}

	// The live id must survive the sweep.
	liveIdx := fmt.Sprintf("hookq:subs:%s:idx:%s:%s", "owner-1", domain.EntityDeal, domain.EventUpdated)
	ok, err := rdb.SIsMember(ctx, liveIdx, sub.ID).Result()
	if err != nil {
		t.Fatalf("SIsMember() error = %v", err)
	}
	if !ok {
		t.Error("sweep removed a live index entry")
	}
}

func TestIndexCleanupStartStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewSubscriptionRepository(rdb, time.UTC)
	svc := NewIndexCleanupService(repo, slog.Default(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
