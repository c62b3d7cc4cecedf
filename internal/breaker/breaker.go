// Package breaker provides per-source circuit breakers that take a
// persistently failing provider out of the fan-out until it recovers.
package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Clish254/sol-dex-pools/internal/types"
)

// ErrOpen is returned by Allow while a source's circuit is open.
var ErrOpen = errors.New("circuit breaker open: source temporarily disabled")

// State represents the current state of a source's circuit
type State int

// Circuit states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, source is skipped
	StateHalfOpen              // Probing whether the source has recovered
)

// String returns the lowercase name of the state
func (s State) String() string {
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

// Breaker tracks failure streaks per source. A run of consecutive
// failures opens the source's circuit; after a cooldown one probe request
// is let through, and a streak of successes closes it again.
type Breaker struct {
	// Consecutive failures that open a circuit
	maxFailures int

	// Duration before a half-open probe is allowed
	cooldown time.Duration

	// Consecutive successes in half-open needed to close
	successThreshold int

	// Event callback for monitoring/alerting
	onTripCallback func(source types.Source, failures int)

	mu      sync.Mutex
	sources map[types.Source]*circuit
}

type circuit struct {
	state        State
	failures     int
	successCount int
	lastTrip     time.Time
}

// New creates a Breaker that opens a source after maxFailures consecutive
// failures and probes it again after the cooldown.
func New(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures:      maxFailures,
		cooldown:         cooldown,
		successThreshold: 2,
		sources:          make(map[types.Source]*circuit),
	}
}

// WithSuccessThreshold sets the number of successful probes needed to close a circuit
func (b *Breaker) WithSuccessThreshold(threshold int) *Breaker {
	b.successThreshold = threshold
	return b
}

// WithTripCallback sets a callback function that is called when a source's circuit trips
func (b *Breaker) WithTripCallback(callback func(source types.Source, failures int)) *Breaker {
	b.onTripCallback = callback
	return b
}

// Allow reports whether the source may be queried. An open circuit past
// its cooldown transitions to half-open and lets the request through as a
// probe.
func (b *Breaker) Allow(src types.Source) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(src)
	if c.state != StateOpen {
		return nil
	}
	if time.Since(c.lastTrip) > b.cooldown {
		c.state = StateHalfOpen
		c.successCount = 0
		logrus.Infof("Circuit half-open for %s: probing recovery", src)
		return nil
	}
	return ErrOpen
}

// RecordSuccess resets the source's failure streak. In half-open state it
// counts toward closing the circuit.
func (b *Breaker) RecordSuccess(src types.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(src)
	c.failures = 0

	if c.state == StateHalfOpen {
		c.successCount++
		if c.successCount >= b.successThreshold {
			c.state = StateClosed
			c.successCount = 0
			logrus.Infof("Circuit closed for %s: source has recovered", src)
		}
	}
}

// RecordFailure extends the source's failure streak, tripping the circuit
// when it reaches the limit. A failed half-open probe re-opens
// immediately.
func (b *Breaker) RecordFailure(src types.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(src)
	c.failures++

	if c.state == StateHalfOpen || (c.state == StateClosed && c.failures >= b.maxFailures) {
		c.state = StateOpen
		c.lastTrip = time.Now()
		logrus.Warnf("Circuit tripped for %s after %d consecutive failures", src, c.failures)
		if b.onTripCallback != nil {
			go b.onTripCallback(src, c.failures)
		}
	}
}

// GetState returns the current state of the source's circuit
func (b *Breaker) GetState(src types.Source) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.circuitFor(src).state
}

// Reset forcibly closes the source's circuit
func (b *Breaker) Reset(src types.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitFor(src)
	c.state = StateClosed
	c.failures = 0
	c.successCount = 0
	logrus.Infof("Circuit for %s manually reset to closed state", src)
}

// States returns a snapshot of every tracked source's circuit state.
func (b *Breaker) States() map[types.Source]State {
	b.mu.Lock()
	defer b.mu.Unlock()

	states := make(map[types.Source]State, len(b.sources))
	for src, c := range b.sources {
		states[src] = c.state
	}
	return states
}

func (b *Breaker) circuitFor(src types.Source) *circuit {
	c, ok := b.sources[src]
	if !ok {
		c = &circuit{state: StateClosed}
		b.sources[src] = c
	}
	return c
}
