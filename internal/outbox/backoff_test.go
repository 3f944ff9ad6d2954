package outbox

import (
	"testing"
	"time"
)

func TestRetryDelay_Curve(t *testing.T) {
	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, 1 * time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 16 * time.Minute},
		{6, 32 * time.Minute},
		{7, 64 * time.Minute},
		{8, 64 * time.Minute},  // tope
		{20, 64 * time.Minute}, // tope
	}
	for _, tc := range cases {
		if got := RetryDelay(tc.retryCount); got != tc.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tc.retryCount, got, tc.want)
		}
	}
}

func TestRetryDelay_Monotone(t *testing.T) {
	prev := time.Duration(0)
	for n := 1; n <= 15; n++ {
		d := RetryDelay(n)
		if d < prev {
			t.Fatalf("RetryDelay(%d) = %v < RetryDelay(%d) = %v", n, d, n-1, prev)
		}
		prev = d
	}
}

func TestRetryDelay_Deterministic(t *testing.T) {
	for n := 1; n <= 10; n++ {
		if RetryDelay(n) != RetryDelay(n) {
			t.Fatalf("RetryDelay(%d) no es determinista", n)
		}
	}
}

func TestRetryDelay_ZeroAndNegative(t *testing.T) {
	if got := RetryDelay(0); got != 1*time.Minute {
		t.Errorf("RetryDelay(0) = %v, want 1m", got)
	}
	if got := RetryDelay(-3); got != 1*time.Minute {
		t.Errorf("RetryDelay(-3) = %v, want 1m", got)
	}
}
