// Package timectrl provides the simulator's time coordinate and the telemetry
// cycle driver. All commands and queries in the motion core are stamped with
// TAI unix seconds supplied by a Clock; the core itself never reads a wall
// clock, which keeps every command timeline replayable under test.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is an interface for accessing the current TAI time, in unix seconds.
// This lets the status aggregation and command layers depend on a clock
// abstraction rather than the wall clock, enabling testability.
type Clock interface {
	// Now returns the current TAI time in unix seconds.
	Now() float64
}

// taiOffset is the TAI-UTC offset in seconds. Leap seconds have been frozen
// since 2017, so a constant is adequate for a simulated hardware controller.
const taiOffset = 37.0

// SystemClock derives TAI seconds from the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() float64 {
	return float64(time.Now().UnixNano())/1e9 + taiOffset
}

// ManualClock is a settable Clock for tests and deterministic replays. The
// caller is responsible for keeping it monotonic; moving it backward will
// surface as time-travel failures in the motion core.
type ManualClock struct {
	mu  sync.RWMutex
	tai float64
}

// NewManualClock constructs a manual clock at the given TAI seconds.
func NewManualClock(start float64) *ManualClock {
	return &ManualClock{tai: start}
}

// Now implements Clock.
func (c *ManualClock) Now() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tai
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tai += d
}

// Set moves the clock to the given TAI seconds.
func (c *ManualClock) Set(tai float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tai = tai
}

// CycleLoop drives the fixed-period telemetry cycle and notifies registered
// listeners with the TAI time of each cycle.
type CycleLoop struct {
	clock  Clock
	period time.Duration

	listeners []func(tai float64)
}

// NewCycleLoop constructs a loop that fires once per period.
func NewCycleLoop(clock Clock, period time.Duration) *CycleLoop {
	return &CycleLoop{clock: clock, period: period}
}

// AddListener registers a callback invoked on every cycle. Listeners must be
// registered before Start.
func (l *CycleLoop) AddListener(fn func(tai float64)) {
	l.listeners = append(l.listeners, fn)
}

// Start runs the loop in a separate goroutine until ctx is cancelled. It
// returns a channel that is closed when the loop finishes.
func (l *CycleLoop) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(l.period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tai := l.clock.Now()
				for _, fn := range l.listeners {
					fn(tai)
				}
			}
		}
	}()
	return done
}
