package lockout

import (
	"context"
	"testing"
	"time"
)

func TestKey_NormalizesEmail(t *testing.T) {
	got := Key("  Mario.Rossi@Example.COM ", "10.0.0.1")
	want := "mario.rossi@example.com|10.0.0.1"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestMemoryStore_LocksAfterThreshold(t *testing.T) {
	store := NewMemoryStore(5, 15*time.Minute)
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

func TestMemoryStore_FailureWhileLockedDoesNotExtend(t *testing.T) {
	store := NewMemoryStore(2, 15*time.Minute)
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	store.RecordFailure(ctx, key)
	first, _ := store.RecordFailure(ctx, key)
	if first.IsZero() {
		t.Fatal("second attempt should lock")
	}
	second, _ := store.RecordFailure(ctx, key)
	if !second.Equal(first) {
		t.Errorf("lockout deadline moved from %v to %v", first, second)
	}
}

func TestMemoryStore_ClearResetsState(t *testing.T) {
	store := NewMemoryStore(2, 15*time.Minute)
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

func TestMemoryStore_LockExpires(t *testing.T) {
	store := NewMemoryStore(1, 15*time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	store.RecordFailure(ctx, key)
	locked, _, _ := store.CheckLocked(ctx, key)
	if !locked {
		t.Fatal("expected locked")
	}

	now = now.Add(16 * time.Minute)
	locked, _, _ = store.CheckLocked(ctx, key)
	if locked {
		t.Error("lockout should have expired")
	}
}

func TestMemoryStore_AttemptsExpire(t *testing.T) {
	store := NewMemoryStore(3, 5*time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key("a@b.it", "1.2.3.4")

	store.RecordFailure(ctx, key)
	store.RecordFailure(ctx, key)

	// Attempt memory is at least ten minutes even with a shorter lockout.
	now = now.Add(11 * time.Minute)
	until, _ := store.RecordFailure(ctx, key)
	if !until.IsZero() {
		t.Error("stale attempts should not count toward the threshold")
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(1, 15*time.Minute)
	ctx := context.Background()

	store.RecordFailure(ctx, Key("a@b.it", "1.2.3.4"))
	locked, _, _ := store.CheckLocked(ctx, Key("a@b.it", "5.6.7.8"))
	if locked {
		t.Error("same email from another IP should not be locked")
	}
	locked, _, _ = store.CheckLocked(ctx, Key("other@b.it", "1.2.3.4"))
	if locked {
		t.Error("another email from the same IP should not be locked")
	}
}
