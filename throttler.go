//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"sync"
)

// DefaultMaxConcurrent is the concurrency cap of the throttler backing
// configurations that do not carry their own.
const DefaultMaxConcurrent = 20

// Throttler bounds how many operations run at the same time. Submissions
// beyond the cap park in a FIFO queue; whenever a running operation
// finishes, successfully or not, the freed slot is handed to the head of
// the queue. Construct one per process or subsystem and share it via
// Config.
type Throttler struct {
	mu      sync.Mutex
	max     int
	active  int
	pending []chan struct{}
}

// NewThrottler returns a Throttler running at most maxConcurrent operations
// at once. Values <= 0 fall back to DefaultMaxConcurrent.
func NewThrottler(maxConcurrent int) *Throttler {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Throttler{max: maxConcurrent}
}

// Run executes op once a slot is available, blocking until then, and
// releases the slot when op returns. Parked submissions start in FIFO order
// relative to slots freeing. A parked submission cannot be cancelled, though
// op still receives ctx and may observe its cancellation once started.
func (t *Throttler) Run(ctx context.Context, op func(context.Context) error) error {
	t.acquire()
	defer t.release()
	return op(ctx)
}

func (t *Throttler) acquire() {
	t.mu.Lock()
	if t.active < t.max {
		t.active++
		t.mu.Unlock()
		return
	}
	slot := make(chan struct{})
	t.pending = append(t.pending, slot)
	t.mu.Unlock()
	<-slot
}

// release hands the slot to the next parked submission, leaving active
// unchanged, or decrements active when the queue is empty.
func (t *Throttler) release() {
	t.mu.Lock()
	if len(t.pending) > 0 {
		slot := t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()
		close(slot)
		return
	}
	t.active--
	t.mu.Unlock()
}

// Active returns the number of operations currently running.
func (t *Throttler) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Pending returns the number of submissions parked waiting for a slot.
func (t *Throttler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// MaxConcurrent returns the concurrency cap.
func (t *Throttler) MaxConcurrent() int {
	return t.max
}
