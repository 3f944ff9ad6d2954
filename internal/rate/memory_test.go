package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	l := NewMemoryLimiter("test:", 3, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("Allow #%d: denied, want allowed", i)
		}
		if res.CurrentHits != int64(i) {
			t.Errorf("Allow #%d: CurrentHits = %d, want %d", i, res.CurrentHits, i)
		}
		if res.Remaining != int64(3-i) {
			t.Errorf("Allow #%d: Remaining = %d, want %d", i, res.Remaining, 3-i)
		}
	}

	res, err := l.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow #4: %v", err)
	}
	if res.Allowed {
		t.Fatal("Allow #4: allowed, want denied")
	}
	if res.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", res.Remaining)
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want > 0", res.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter("test:", 1, time.Hour)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "user-a"); !res.Allowed {
		t.Fatal("first hit for user-a should be allowed")
	}
	if res, _ := l.Allow(ctx, "user-a"); res.Allowed {
		t.Fatal("second hit for user-a should be denied")
	}
	if res, _ := l.Allow(ctx, "user-b"); !res.Allowed {
		t.Fatal("first hit for user-b should be allowed")
	}
}

func TestMemoryLimiter_DefaultPrefix(t *testing.T) {
	l := NewMemoryLimiter("", 1, time.Minute)
	if l.Prefix != "rl:" {
		t.Errorf("Prefix = %q, want rl:", l.Prefix)
	}
}
