package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter replica la ventana fija del RedisLimiter sobre un cache en
// memoria. Útil para desarrollo y testing; no coordina entre procesos.
type MemoryLimiter struct {
	cache  *gocache.Cache
	mu     sync.Mutex
	Prefix string
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MemoryLimiter{
		cache:  gocache.New(window, 2*window),
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	memKey := fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	l.mu.Lock()
	hits, err := l.cache.IncrementInt64(memKey, 1)
	if err != nil {
		hits = 1
		l.cache.Set(memKey, int64(1), l.Window)
	}
	l.mu.Unlock()

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	windowTTL := winStart.Add(l.Window).Sub(now)
	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   windowTTL,
	}
	if !allowed {
		res.RetryAfter = windowTTL
		if res.RetryAfter < 0 {
			res.RetryAfter = time.Duration(math.Ceil(l.Window.Seconds())) * time.Second
		}
	}
	return res, nil
}
