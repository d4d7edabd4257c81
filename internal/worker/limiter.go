package worker

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-caller bucket is kept
const limiterIdleTTL = 10 * time.Minute

// Limiter is a token bucket per caller key (client address, API key).
// Buckets of idle callers expire.
type Limiter struct {
	buckets      *gocache.Cache
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a Limiter allowing requestsPerSecond with the given burst
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		buckets:      gocache.New(limiterIdleTTL, limiterIdleTTL),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Allow reports whether key may proceed now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// SetRate overrides the bucket for a single key
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.buckets.SetDefault(key, rate.NewLimiter(rate.Limit(requestsPerSecond), burst))
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			// refresh expiry
			l.buckets.SetDefault(key, lim)
			return lim
		}
	}

	lim := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if err := l.buckets.Add(key, lim, gocache.DefaultExpiration); err != nil {
		// lost the race to another caller with the same key
		if v, ok := l.buckets.Get(key); ok {
			if existing, ok := v.(*rate.Limiter); ok {
				return existing
			}
		}
	}
	return lim
}
