//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"sync"

	"github.com/google/uuid"
)

// Task is the contract shared by every unit of asynchronous work tracked by
// a Loader: observable completion, optional measurable work, and abort. The
// set of implementations is closed (Request, Image, Manual); the interface
// is sealed by an unexported method.
type Task interface {
	// Complete reports whether the task finished its work successfully.
	Complete() bool
	// WorkComputable reports whether TotalWork and CompletedWork carry
	// meaningful values for this task.
	WorkComputable() bool
	// TotalWork returns the total amount of work units, or 0 when the work
	// is not computable.
	TotalWork() int64
	// CompletedWork returns the work units done so far, or 0 when the work
	// is not computable.
	CompletedWork() int64
	// Abort asks the task to stop. It is idempotent and safe to call in any
	// state, including before start and after completion.
	Abort()
	// Done returns a channel that is closed when the task settles.
	Done() <-chan struct{}
	// Err returns nil while the task is running and after it completed
	// successfully, ErrAborted if it was aborted, or the failure otherwise.
	Err() error

	// bind attaches the task to a loader for progress notification, or
	// detaches it when l is nil. The reference is non-owning and never used
	// for lifecycle control.
	bind(l *Loader)
}

// taskState carries the bookkeeping common to every task kind.
type taskState struct {
	id string

	mu         sync.Mutex
	loader     *Loader
	done       chan struct{}
	err        error
	settled    bool
	complete   bool
	aborted    bool
	computable bool
	total      int64
	completed  int64
}

func newTaskState() taskState {
	return taskState{
		id:   uuid.New().String(),
		done: make(chan struct{}),
	}
}

// Complete reports whether the task finished its work successfully.
func (t *taskState) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complete
}

// WorkComputable reports whether the work counters carry meaningful values.
func (t *taskState) WorkComputable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.computable
}

// TotalWork returns the total amount of work units, or 0 when the work is
// not computable.
func (t *taskState) TotalWork() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// CompletedWork returns the work units done so far, or 0 when the work is
// not computable.
func (t *taskState) CompletedWork() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Done returns a channel that is closed when the task settles.
func (t *taskState) Done() <-chan struct{} {
	return t.done
}

// Err returns the terminal error of the task, nil while running or after
// success.
func (t *taskState) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *taskState) bind(l *Loader) {
	t.mu.Lock()
	t.loader = l
	t.mu.Unlock()
}

// notifyLoader pushes a progress recompute to the bound loader, if any. The
// task mutex must not be held by the caller.
func (t *taskState) notifyLoader() {
	t.mu.Lock()
	l := t.loader
	t.mu.Unlock()
	if l != nil {
		l.updateProgress()
	}
}

// markAborted records the abort flag, reporting whether this call was the
// first.
func (t *taskState) markAborted() bool {
	t.mu.Lock()
	was := t.aborted
	t.aborted = true
	t.mu.Unlock()
	return !was
}

// setWork switches the task to measurable work with the given total,
// resetting the completed counter. A negative total marks the work as not
// computable and pins both counters to 0.
func (t *taskState) setWork(total int64) {
	t.mu.Lock()
	t.computable = total >= 0
	if t.computable {
		t.total = total
	} else {
		t.total = 0
	}
	t.completed = 0
	t.mu.Unlock()
	t.notifyLoader()
}

// addWork advances the completed counter by n. No-op when the work is not
// computable or the task already settled.
func (t *taskState) addWork(n int64) {
	t.mu.Lock()
	if !t.computable || t.settled {
		t.mu.Unlock()
		return
	}
	t.completed += n
	t.mu.Unlock()
	t.notifyLoader()
}

// settle records the terminal state of the task, closing the done channel
// and notifying the bound loader. Only the first call has any effect; it
// reports whether it was the one that settled the task.
func (t *taskState) settle(err error) bool {
	t.mu.Lock()
	if t.settled {
		t.mu.Unlock()
		return false
	}
	t.settled = true
	t.err = err
	if err == nil {
		t.complete = true
		if t.computable {
			t.completed = t.total
		}
	}
	close(t.done)
	t.mu.Unlock()
	t.notifyLoader()
	return true
}
