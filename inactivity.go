//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"os"
	"time"
)

// inactivity cancels a fetch attempt's context when no data arrives for a
// full timeout window. The context is cancelled with cause
// os.ErrDeadlineExceeded so callers can tell a stall from an abort.
type inactivity struct {
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
}

// guardInactivity derives a context that self-cancels unless Kick is called
// at least once per timeout window. A timeout of 0 disables the guard.
func guardInactivity(parent context.Context, timeout time.Duration) (context.Context, *inactivity) {
	ctx, cancel := context.WithCancelCause(parent)
	g := &inactivity{cancel: cancel, timeout: timeout}
	if timeout > 0 {
		g.timer = time.AfterFunc(timeout, func() {
			cancel(os.ErrDeadlineExceeded)
		})
	}
	return ctx, g
}

// Kick resets the inactivity window. Call it whenever data arrives.
func (g *inactivity) Kick() {
	if g.timer != nil {
		g.timer.Reset(g.timeout)
	}
}

// Stop disarms the guard and releases the derived context.
func (g *inactivity) Stop() {
	if g.timer != nil {
		g.timer.Stop()
	}
	g.cancel(nil)
}
