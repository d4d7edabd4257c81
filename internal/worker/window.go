package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/dontsign/internal/model"
)

// ErrRateLimited is returned by a Reject-policy WindowLimiter when the window is full
var ErrRateLimited = errors.New("rate limited")

// Policy decides what Acquire does when the window is full
type Policy int

const (
	// PolicyBlock polls until a slot frees or ctx ends
	PolicyBlock Policy = iota
	// PolicyReject fails immediately with ErrRateLimited
	PolicyReject
)

// ParsePolicy maps a config value ("block" or "reject") to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return PolicyBlock, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyBlock, model.NewError(model.KindConfiguration, fmt.Sprintf("unknown rate limit policy %q", s))
	}
}

// WindowLimiter admits at most Limit acquisitions per key within any
// sliding Window.
type WindowLimiter struct {
	Limit        int
	Window       time.Duration
	Policy       Policy
	PollInterval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	stamps map[string][]time.Time
}

// NewWindowLimiter creates a WindowLimiter with a 1s poll interval
func NewWindowLimiter(limit int, window time.Duration, policy Policy) *WindowLimiter {
	return &WindowLimiter{
		Limit:        limit,
		Window:       window,
		Policy:       policy,
		PollInterval: time.Second,
		now:          time.Now,
		sleep:        sleepCtx,
		stamps:       make(map[string][]time.Time),
	}
}

// NewWindowLimiterFromConfig builds the chunk limiter from the rate_limit section
func NewWindowLimiterFromConfig(cfg model.RateLimitConfig) (*WindowLimiter, error) {
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return NewWindowLimiter(cfg.ChunksPerWindow, time.Duration(cfg.Window)*time.Second, policy), nil
}

// TryAcquire takes a slot for key if one is free
func (w *WindowLimiter) TryAcquire(key string) bool {
	if w.Limit <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	live := w.prune(key, now)
	if len(live) >= w.Limit {
		return false
	}
	w.stamps[key] = append(live, now)
	return true
}

// Acquire takes a slot for key according to the policy
func (w *WindowLimiter) Acquire(ctx context.Context, key string) error {
	for {
		if w.TryAcquire(key) {
			return nil
		}
		if w.Policy == PolicyReject {
			return fmt.Errorf("%d requests per %s exceeded: %w", w.Limit, w.Window, ErrRateLimited)
		}
		if err := w.sleep(ctx, w.PollInterval); err != nil {
			return err
		}
	}
}

// Count returns the acquisitions for key within the current window
func (w *WindowLimiter) Count(key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.prune(key, w.now()))
}

// prune drops timestamps outside the window; callers hold mu
func (w *WindowLimiter) prune(key string, now time.Time) []time.Time {
	stamps := w.stamps[key]
	cutoff := now.Add(-w.Window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	live := stamps[i:]
	if len(live) == 0 {
		delete(w.stamps, key)
		return nil
	}
	w.stamps[key] = live
	return live
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
