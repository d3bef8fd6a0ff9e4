package testutil

import (
	"sync"
	"time"
)

// Epoch is the first timestamp returned by a new StepClock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// StepClock provides thread-safe, reproducible timestamps for tests.
//
// Each call to Now returns Epoch plus n steps, where n counts previous calls.
// Reset rewinds the clock so the same scenario produces identical
// timestamps on every run.
type StepClock struct {
	mu   sync.Mutex
	step time.Duration
	n    int64
}

// NewStepClock creates a clock that advances by step on every call.
// A zero step returns Epoch forever.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{step: step}
}

// Now returns the next timestamp.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Calls returns how many timestamps have been handed out.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
