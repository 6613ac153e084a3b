//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

// Manual is a task whose completion is signaled by the caller. Use it for
// work that does not map onto Request or Image, like synchronous
// precomputation or externally observed completion. It has no measurable
// progress.
type Manual struct {
	taskState
}

// NewManual returns an incomplete manual task.
func NewManual() *Manual {
	return &Manual{taskState: newTaskState()}
}

// MarkComplete settles the task as complete and notifies the bound loader.
// It is idempotent. Completion is allowed even after Abort: aborting a
// manual task only records the flag.
func (m *Manual) MarkComplete() {
	m.settle(nil)
}

// Fail settles the task with err.
func (m *Manual) Fail(err error) {
	m.settle(err)
}

// Abort records the abort flag. It does not affect completion.
func (m *Manual) Abort() {
	m.markAborted()
}

// Watch adapts an operation already in flight into a task that completes by
// itself: the first value received from op settles the task. A nil value or
// a closed channel completes it, an error fails it. No retries are
// initiated; the caller remains responsible for eventually settling op.
func Watch(op <-chan error) *Manual {
	m := NewManual()
	go func() {
		if err := <-op; err != nil {
			m.Fail(err)
		} else {
			m.MarkComplete()
		}
	}()
	return m
}
