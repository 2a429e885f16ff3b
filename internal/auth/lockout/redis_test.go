package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore_LocksAfterThreshold(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisStore(client, 5, 15*time.Minute)
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	for i := 0; i < 4; i++ {
		until, err := store.RecordFailure(ctx, key)
		if err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		if !until.IsZero() {
			t.Fatalf("attempt %d should not lock", i+1)
		}
	}
	until, err := store.RecordFailure(ctx, key)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if until.IsZero() {
		t.Fatal("fifth attempt should lock")
	}

	locked, wait, err := store.CheckLocked(ctx, key)
	if err != nil {
		t.Fatalf("CheckLocked: %v", err)
	}
	if !locked {
		t.Fatal("expected key to be locked")
	}
	if wait <= 0 || wait > 15*time.Minute {
		t.Errorf("wait = %v, want within (0, 15m]", wait)
	}
}

func TestRedisStore_LockExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, 1, 15*time.Minute)
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	if until, _ := store.RecordFailure(ctx, key); until.IsZero() {
		t.Fatal("expected lock")
	}
	mr.FastForward(16 * time.Minute)

	locked, _, err := store.CheckLocked(ctx, key)
	if err != nil {
		t.Fatalf("CheckLocked: %v", err)
	}
	if locked {
		t.Error("lockout should have expired")
	}
	// Fresh count starts over after expiry.
	store2 := NewRedisStore(client, 2, 15*time.Minute)
	if until, _ := store2.RecordFailure(ctx, key); !until.IsZero() {
		t.Error("first attempt after expiry should not lock")
	}
}

func TestRedisStore_ClearResetsState(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisStore(client, 2, 15*time.Minute)
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	store.RecordFailure(ctx, key)
	if err := store.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	until, _ := store.RecordFailure(ctx, key)
	if !until.IsZero() {
		t.Error("first attempt after Clear should not lock")
	}
}

func TestRedisStore_FailureWhileLockedKeepsDeadline(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, 1, 15*time.Minute)
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	if until, _ := store.RecordFailure(ctx, key); until.IsZero() {
		t.Fatal("expected lock")
	}
	mr.FastForward(5 * time.Minute)

	until, err := store.RecordFailure(ctx, key)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if until.IsZero() {
		t.Fatal("expected existing lock to be reported")
	}
	if remaining := time.Until(until); remaining > 11*time.Minute {
		t.Errorf("deadline extended: %v remaining", remaining)
	}
}
