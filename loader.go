//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// Loader aggregates tasks and reports their combined progress as
// completed-task-count over total-task-count. Progress is task-count-based,
// never byte-weighted: a loader with one huge download and one tiny one
// reports 0.5 once either finishes.
type Loader struct {
	id     string
	logger *logiface.Logger[logiface.Event]

	// cbMu serializes progress recompute and dispatch so the callback
	// observes monotone values. Always taken before mu.
	cbMu       sync.Mutex
	onProgress func(progress float64)

	mu      sync.Mutex
	tasks   []Task
	aborted bool
	errored bool
	err     error
	change  chan struct{}
}

// NewLoader returns an empty loader using the default configuration.
func NewLoader() *Loader {
	return NewLoaderWithConfig(GetDefaultConfig())
}

// NewLoaderWithConfig returns an empty loader with an explicit
// configuration.
func NewLoaderWithConfig(config Config) *Loader {
	return &Loader{
		id:     uuid.New().String(),
		logger: config.Logger,
		change: make(chan struct{}),
	}
}

// OnProgress registers fn to receive progress values in [0,1] as tasks
// complete, replacing any previous callback. fn must not settle tasks bound
// to this loader from within the callback.
func (l *Loader) OnProgress(fn func(progress float64)) {
	l.cbMu.Lock()
	l.onProgress = fn
	l.cbMu.Unlock()
}

// AddTask registers t and binds it to this loader, returning t for
// chaining. Registration alone dispatches no progress notification, so
// observed progress stays monotone while the set grows.
func (l *Loader) AddTask(t Task) Task {
	t.bind(l)
	l.mu.Lock()
	l.tasks = append(l.tasks, t)
	l.wakeLocked()
	l.mu.Unlock()
	return t
}

// ResetTasks clears the registered set. Unless the loader is aborted,
// progress recomputes (0 with the set empty) and is dispatched. Tasks are
// not unbound; Cleanup is the unbinding operation.
func (l *Loader) ResetTasks() {
	l.mu.Lock()
	l.tasks = nil
	aborted := l.aborted
	l.wakeLocked()
	l.mu.Unlock()
	if !aborted {
		l.updateProgress()
	}
}

// Abort aborts every registered task exactly once and pins reported
// progress at 1.0. Idempotent. Tasks registered after the abort are not
// aborted retroactively.
func (l *Loader) Abort() {
	l.mu.Lock()
	if l.aborted {
		l.mu.Unlock()
		return
	}
	l.aborted = true
	tasks := slices.Clone(l.tasks)
	l.wakeLocked()
	l.mu.Unlock()

	l.logger.Debug().Str("loader", l.id).Int("tasks", len(tasks)).Log("aborting")
	for _, t := range tasks {
		t.Abort()
	}
	l.updateProgress()
}

// Cleanup detaches every registered task from this loader and empties the
// set. Safe to call after success, failure, or abort, and idempotent. Task
// events after cleanup no longer reach this loader.
func (l *Loader) Cleanup() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.wakeLocked()
	l.mu.Unlock()
	for _, t := range tasks {
		t.bind(nil)
	}
}

// Fail marks the loader errored, which suppresses progress notifications.
// Registered tasks are not aborted and Progress still answers queries.
func (l *Loader) Fail() {
	l.mu.Lock()
	l.errored = true
	l.mu.Unlock()
}

func (l *Loader) fail(err error) {
	l.mu.Lock()
	l.errored = true
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

// Err returns the first task failure observed by Wait, or nil.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Errored reports whether progress notifications are suppressed.
func (l *Loader) Errored() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errored
}

// Aborted reports whether Abort was called.
func (l *Loader) Aborted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aborted
}

// Tasks returns a snapshot of the registered tasks.
func (l *Loader) Tasks() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.tasks)
}

// Progress returns the current progress in [0,1]: 1.0 once aborted, 0.0
// with no tasks registered, completed-task-count over total otherwise.
func (l *Loader) Progress() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progressLocked()
}

func (l *Loader) progressLocked() float64 {
	if l.aborted {
		return 1
	}
	if len(l.tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range l.tasks {
		if t.Complete() {
			completed++
		}
	}
	return float64(completed) / float64(len(l.tasks))
}

// updateProgress recomputes and dispatches progress. Bound tasks invoke it
// whenever their completion or work counters change. When the loader is
// errored the callback is skipped; waiters are still woken.
func (l *Loader) updateProgress() {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	fn := l.onProgress
	l.mu.Lock()
	p := l.progressLocked()
	errored := l.errored
	l.wakeLocked()
	l.mu.Unlock()
	if errored || fn == nil {
		return
	}
	fn(p)
}

// wakeLocked signals a state change to waiters. Callers hold mu.
func (l *Loader) wakeLocked() {
	close(l.change)
	l.change = make(chan struct{})
}

// Wait blocks until every registered task settles, the loader is aborted,
// or ctx is done. It returns ErrAborted for an aborted loader. The first
// task failure observed is recorded, marks the loader errored, and is
// returned, leaving sibling tasks running. A nil return means every
// registered task completed; a final progress notification is dispatched
// before Wait returns.
func (l *Loader) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.aborted {
			l.mu.Unlock()
			return ErrAborted
		}
		tasks := slices.Clone(l.tasks)
		change := l.change
		l.mu.Unlock()

		settled := true
		for _, t := range tasks {
			select {
			case <-t.Done():
				if err := t.Err(); err != nil {
					l.fail(err)
					l.logger.Debug().Str("loader", l.id).Err(err).Log("task failed")
					return err
				}
			default:
				settled = false
			}
		}
		if settled {
			if len(tasks) > 0 {
				l.updateProgress()
			}
			return nil
		}

		select {
		case <-change:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
