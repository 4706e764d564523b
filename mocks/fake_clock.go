package mocks

import (
	"sync"
	"time"
)

// FakeClock is a port.Clock whose After fires immediately and advances Now by
// the requested duration, so poll loops run without real sleeps.
type FakeClock struct {
	mu    sync.Mutex
	now   time.Time
	Waits []time.Duration
	// Block makes After return a channel that never fires.
	Block bool
}

// NewFakeClock returns a FakeClock starting at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Waits = append(f.Waits, d)
	ch := make(chan time.Time, 1)
	if f.Block {
		return ch
	}
	f.now = f.now.Add(d)
	ch <- f.now
	return ch
}

// Advance moves Now forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// WaitCount returns how many times After was called.
func (f *FakeClock) WaitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Waits)
}
