package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Execute] when the breaker is open
// and its reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// BreakerClosed is the normal state — calls are forwarded.
	BreakerClosed BreakerState = iota

	// BreakerOpen means consecutive failures tripped the breaker; calls are
	// rejected with [ErrCircuitOpen] until the reset timeout elapses.
	BreakerOpen

	// BreakerHalfOpen is the probe state after the reset timeout: one call is
	// let through; success closes the breaker, failure re-opens it.
	BreakerHalfOpen
)

// String returns the human-readable name of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// Name is a label used in log messages (e.g., "tts", "stt").
	Name string

	// MaxFailures is the number of consecutive failures before the breaker
	// opens. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before allowing a
	// probe call. Default: 30s.
	ResetTimeout time.Duration
}

// Breaker is a three-state circuit breaker for one-shot provider calls.
// Safe for concurrent use.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu              sync.Mutex
	state           BreakerState
	consecutiveFail int
	lastFailure     time.Time
	probeInFlight   bool
}

// NewBreaker creates a [Breaker]; zero-value config fields get defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		state:        BreakerClosed,
	}
}

// Execute runs fn if the breaker allows it. While open it returns
// [ErrCircuitOpen] without calling fn; after the reset timeout a single
// probe call is admitted.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailure) < b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.probeInFlight = false
		slog.Info("circuit breaker half-open", "name", b.name)
		fallthrough
	case BreakerHalfOpen:
		if b.probeInFlight {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probeInFlight = true
	}
	inProbe := b.state == BreakerHalfOpen
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if inProbe {
		b.probeInFlight = false
		if err != nil {
			b.state = BreakerOpen
			b.lastFailure = time.Now()
			slog.Warn("circuit breaker re-opened after failed probe", "name", b.name)
		} else {
			b.state = BreakerClosed
			b.consecutiveFail = 0
			slog.Info("circuit breaker closed after successful probe", "name", b.name)
		}
		return err
	}

	if err != nil {
		b.consecutiveFail++
		b.lastFailure = time.Now()
		if b.consecutiveFail >= b.maxFailures {
			b.state = BreakerOpen
			slog.Warn("circuit breaker opened",
				"name", b.name,
				"consecutive_failures", b.consecutiveFail)
		}
	} else {
		b.consecutiveFail = 0
	}
	return err
}

// State returns the current breaker state. An open breaker whose reset
// timeout has elapsed is reported as half-open; the actual transition happens
// on the next Execute call.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}
