// Package resilience shields PlanForge from misbehaving tool servers.
// Every remote tool invocation passes through a circuit breaker so a
// server that starts failing stops receiving traffic until it has had
// time to recover.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker is rejecting calls because
// the protected server has failed too many times in a row.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State reports where the breaker currently is in its lifecycle.
type State int

const (
	// StateClosed passes calls through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown window elapses.
	StateOpen
	// StateHalfOpen admits probe calls; one success closes the circuit,
	// one failure reopens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Breaker is a consecutive-failure circuit breaker. It trips open after
// tripAfter failures in a row, rejects calls for the cooldown window, then
// lets probes through until one succeeds.
type Breaker struct {
	mu        sync.Mutex
	state     State
	streak    int // consecutive failures while closed
	tripAfter int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time // injectable for tests
}

// NewBreaker builds a breaker that opens after maxFailures consecutive
// failures and begins probing again once timeout has elapsed.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		tripAfter: maxFailures,
		cooldown:  timeout,
		now:       time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without invoking fn. The outcome of fn feeds the breaker's
// failure accounting.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	b.record(err)
	return err
}

// State returns the breaker's current state, for logging and diagnostics.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.streak = 0
		b.state = StateClosed
		return
	}

	b.streak++
	// A half-open probe failure reopens immediately; the streak threshold
	// only applies while closed.
	if b.state == StateHalfOpen || b.streak >= b.tripAfter {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}
