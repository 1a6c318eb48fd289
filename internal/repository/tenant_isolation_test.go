package repository

import (
	"testing"
	"time"

	"github.com/osvaldoandrade/hookq/pkg/domain"
)

// TestOwnerIsolation verifies that subscriptions and delivery logs of
// different owners live under separate keys and never leak across owner
// boundaries.
func TestOwnerIsolation(t *testing.T) {
	ctx, _, rdb, repo := setupSubscriptionRepo(t)
	logs := NewDeliveryLogRepository(rdb, time.UTC, 100)

	subA, err := repo.Create(ctx, testSubscription("owner-a"))
	if err != nil {
		t.Fatalf("create owner A subscription: %v", err)
	}
	subB, err := repo.Create(ctx, testSubscription("owner-b"))
	if err != nil {
		t.Fatalf("create owner B subscription: %v", err)
	}

	// Lookups are scoped by owner: A's id under B's namespace is a miss.
	if _, err := repo.Get(ctx, "owner-b", subA.ID); err == nil {
		t.Error("expected owner B lookup of owner A's subscription to fail")
	}
	if _, err := repo.Get(ctx, "owner-a", subB.ID); err == nil {
		t.Error("expected owner A lookup of owner B's subscription to fail")
	}

	// Active-subscription matching never crosses owners.
	subsA, err := repo.ListActive(ctx, "owner-a", domain.EntityDeal, domain.EventUpdated)
	if err != nil {
		t.Fatalf("list active owner A: %v", err)
	}
	if len(subsA) != 1 || subsA[0].ID != subA.ID {
		t.Fatalf("owner A active subs = %v, want only %s", subsA, subA.ID)
	}

	// Storage keys are per owner.
	for _, key := range []string{"hookq:subs:owner-a", "hookq:subs:owner-b"} {
		n, err := rdb.HLen(ctx, key).Result()
		if err != nil {
			t.Fatalf("HLEN %s: %v", key, err)
		}
		if n != 1 {
			t.Errorf("HLEN %s = %d, want 1", key, n)
		}
	}

	// Delivery logs are per owner as well.
	entry := domain.DeliveryLogEntry{
		SubscriptionID: subA.ID,
		OwnerID:        "owner-a",
		Status:         domain.DeliverySuccess,
	}
	if _, err := logs.Append(ctx, entry); err != nil {
		t.Fatalf("append owner A log entry: %v", err)
	}

	entriesB, err := logs.ListRecent(ctx, "owner-b", 10)
	if err != nil {
		t.Fatalf("list owner B deliveries: %v", err)
	}
	if len(entriesB) != 0 {
		t.Errorf("owner B deliveries = %d entries, want 0", len(entriesB))
	}
	entriesA, err := logs.ListRecent(ctx, "owner-a", 10)
	if err != nil {
		t.Fatalf("list owner A deliveries: %v", err)
	}
	if len(entriesA) != 1 {
		t.Errorf("owner A deliveries = %d entries, want 1", len(entriesA))
	}

	// Deleting owner A's subscription leaves owner B untouched.
	if err := repo.Delete(ctx, "owner-a", subA.ID); err != nil {
		t.Fatalf("delete owner A subscription: %v", err)
	}
	if _, err := repo.Get(ctx, "owner-b", subB.ID); err != nil {
		t.Errorf("owner B subscription gone after owner A delete: %v", err)
	}
}
