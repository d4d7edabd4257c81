package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/model"
)

// BreakerState is the state of a CircuitBreaker
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker
type BreakerConfig struct {
	FailureThreshold int           // Consecutive failures that open the breaker
	Cooldown         time.Duration // First open period
	MaxCooldown      time.Duration // Cap for the doubling open period
}

// DefaultBreakerConfig returns the default breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		MaxCooldown:      5 * time.Minute,
	}
}

// BreakerConfigFromModel converts model.BreakerConfig to a BreakerConfig
func BreakerConfigFromModel(cfg model.BreakerConfig) BreakerConfig {
	def := DefaultBreakerConfig()
	bc := BreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		Cooldown:         time.Duration(cfg.Cooldown) * time.Second,
		MaxCooldown:      time.Duration(cfg.MaxCooldown) * time.Second,
	}
	if bc.FailureThreshold <= 0 {
		bc.FailureThreshold = def.FailureThreshold
	}
	if bc.Cooldown <= 0 {
		bc.Cooldown = def.Cooldown
	}
	if bc.MaxCooldown < bc.Cooldown {
		bc.MaxCooldown = bc.Cooldown
	}
	return bc
}

// CircuitBreaker fails fast after repeated completion failures.
// Open periods double on every re-open up to MaxCooldown and reset once a
// half-open probe succeeds. Only one probe is admitted while half-open.
type CircuitBreaker struct {
	config BreakerConfig
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	state    BreakerState
	failures int
	cooldown time.Duration
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a closed breaker
func NewCircuitBreaker(config BreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		config:   config,
		now:      time.Now,
		logger:   logger,
		cooldown: config.Cooldown,
	}
}

// State returns the current state, moving open to half-open once the cool-down elapsed
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// advance must be called with mu held
func (b *CircuitBreaker) advance() {
	if b.state == StateOpen && !b.now().Before(b.openedAt.Add(b.cooldown)) {
		b.state = StateHalfOpen
		b.probing = false
	}
}

// Allow reserves permission for one call. The returned done func must be
// called with the call's outcome.
func (b *CircuitBreaker) Allow() (done func(err error), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	switch b.state {
	case StateOpen:
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return nil, ErrCircuitOpen
		}
		b.probing = true
		return b.record(true), nil
	default:
		return b.record(false), nil
	}
}

func (b *CircuitBreaker) record(probe bool) func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if probe {
				b.probing = false
			}
			switch {
			case countsAsFailure(err):
				b.onFailure(probe)
			case err != nil:
				// neutral outcome, state unchanged
			case probe || b.state == StateClosed:
				b.onSuccess()
			}
		})
	}
}

// onSuccess must be called with mu held
func (b *CircuitBreaker) onSuccess() {
	if b.state != StateClosed {
		b.logger.Info("circuit breaker closed")
	}
	b.state = StateClosed
	b.failures = 0
	b.cooldown = b.config.Cooldown
}

// onFailure must be called with mu held. Outcomes of calls admitted before
// the breaker opened are ignored.
func (b *CircuitBreaker) onFailure(probe bool) {
	if probe {
		b.cooldown = min(b.cooldown*2, b.config.MaxCooldown)
		b.open()
		return
	}
	if b.state != StateClosed {
		return
	}
	b.failures++
	if b.failures >= b.config.FailureThreshold {
		b.open()
	}
}

func (b *CircuitBreaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.failures = 0
	b.logger.Warn("circuit breaker opened", zap.Duration("cooldown", b.cooldown))
}

// countsAsFailure excludes outcomes that say nothing about service health
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidRequest) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, ErrCircuitOpen)
}

// Wrap returns a CompletionService guarded by the breaker
func (b *CircuitBreaker) Wrap(next CompletionService) CompletionService {
	return &breakerService{breaker: b, next: next}
}

type breakerService struct {
	breaker *CircuitBreaker
	next    CompletionService
}

func (s *breakerService) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	done, err := s.breaker.Allow()
	if err != nil {
		return nil, err
	}
	resp, err := s.next.Complete(ctx, req)
	done(err)
	return resp, err
}
