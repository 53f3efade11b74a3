package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	xrate "golang.org/x/time/rate"
)

// MemoryLimiter token bucket por clave: Max requests por Window, con ráfaga
// de Max. Los buckets inactivos expiran a las dos ventanas.
type MemoryLimiter struct {
	Max    int
	Window time.Duration

	mu      sync.Mutex
	buckets *gocache.Cache
	now     func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Max:     max,
		Window:  window,
		buckets: gocache.New(2*window, window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) bucket(key string) *xrate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, v)
		return v.(*xrate.Limiter)
	}
	lim := xrate.NewLimiter(xrate.Every(l.Window/time.Duration(l.Max)), l.Max)
	l.buckets.SetDefault(key, lim)
	return lim
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	lim := l.bucket(key)
	now := l.now()

	res := Result{WindowTTL: l.Window}
	rsv := lim.ReserveN(now, 1)
	if delay := rsv.DelayFrom(now); delay > 0 {
		rsv.CancelAt(now)
		res.RetryAfter = delay
		return res, nil
	}
	res.Allowed = true
	if tokens := lim.TokensAt(now); tokens > 0 {
		res.Remaining = int64(tokens)
	}
	res.CurrentHits = int64(l.Max) - res.Remaining
	return res, nil
}
