package circuitbreaker

import (
	"sync"
	"time"

	"github.com/caremesh/interlink/internal/registry"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Probing recovery with trial traffic
)

// Breaker is the per-service circuit breaker state machine.
//
// In CLOSED state every call is allowed; failures accumulate and successes
// heal the failure count gradually rather than resetting it. Reaching the
// failure threshold opens the breaker. In OPEN state calls are blocked until
// the reset timeout elapses, at which point the next permission check moves
// to HALF_OPEN and admits trial traffic. A configured number of successes in
// HALF_OPEN closes the breaker again; a single failure reopens it.
type Breaker struct {
	mutex sync.Mutex

	state             State
	failures          int
	halfOpenSuccesses int
	lastFailure       time.Time
	nextAttempt       time.Time

	failureThreshold int
	resetTimeout     time.Duration
	successesToClose int

	now func() time.Time
}

// Snapshot is a point-in-time copy of a breaker's state, safe to hand to
// callers outside the executor.
type Snapshot struct {
	State             State     `json:"state"`
	Failures          int       `json:"failures"`
	HalfOpenSuccesses int       `json:"half_open_successes"`
	LastFailureAt     time.Time `json:"last_failure_at,omitzero"`
	NextAttemptAt     time.Time `json:"next_attempt_at,omitzero"`
}

func New(cfg registry.BreakerConfig) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		successesToClose: cfg.SuccessesToClose,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed, along with the state the caller
// observed. The OPEN to HALF_OPEN transition happens here: once the reset
// timeout has elapsed, the next permission check flips the state and admits
// a trial call.
func (b *Breaker) Allow() (bool, State) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		return true, StateClosed
	case StateOpen:
		if !b.now().Before(b.nextAttempt) {
			b.state = StateHalfOpen
			b.halfOpenSuccesses = 0
			return true, StateHalfOpen
		}
		return false, StateOpen
	case StateHalfOpen:
		// Concurrent trial calls are tolerated; each is gated individually.
		return true, StateHalfOpen
	default:
		return true, b.state
	}
}

// RecordSuccess applies the outcome of a successful logical call.
func (b *Breaker) RecordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		// Gradual healing: decrement toward zero, never a full reset.
		if b.failures > 0 {
			b.failures--
		}
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.successesToClose {
			b.state = StateClosed
			b.failures = 0
			b.halfOpenSuccesses = 0
		}
	case StateOpen:
		// A trailing success from a call admitted before the breaker
		// reopened. A concurrent failure already won; ignore it.
	}
}

// RecordFailure applies the outcome of a failed logical call.
func (b *Breaker) RecordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.nextAttempt = b.now().Add(b.resetTimeout)
		}
	case StateHalfOpen:
		// Any failure during the trial window reopens immediately and
		// discards partial success progress.
		b.state = StateOpen
		b.halfOpenSuccesses = 0
		b.nextAttempt = b.now().Add(b.resetTimeout)
	case StateOpen:
		// Trailing failure from an in-flight call; the gate is already shut.
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Snapshot returns a copy of the breaker's internal counters for
// observability endpoints.
func (b *Breaker) Snapshot() Snapshot {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return Snapshot{
		State:             b.state,
		Failures:          b.failures,
		HalfOpenSuccesses: b.halfOpenSuccesses,
		LastFailureAt:     b.lastFailure,
		NextAttemptAt:     b.nextAttempt,
	}
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the state name rather than the raw integer.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
