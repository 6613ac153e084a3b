//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInactivityFires(t *testing.T) {
	ctx, guard := guardInactivity(context.Background(), 20*time.Millisecond)
	defer guard.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("guard did not fire")
	}
	require.ErrorIs(t, context.Cause(ctx), os.ErrDeadlineExceeded)
}

func TestInactivityKick(t *testing.T) {
	ctx, guard := guardInactivity(context.Background(), 500*time.Millisecond)
	defer guard.Stop()

	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		guard.Kick()
	}
	// 150ms elapsed with the window reset on every kick.
	require.NoError(t, ctx.Err())

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("guard did not fire after kicks stopped")
	}
}

func TestInactivityStop(t *testing.T) {
	ctx, guard := guardInactivity(context.Background(), 10*time.Second)
	guard.Stop()

	// Stop releases the derived context without marking a stall.
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not release the context")
	}
	require.NotErrorIs(t, context.Cause(ctx), os.ErrDeadlineExceeded)
}

func TestInactivityDisabled(t *testing.T) {
	ctx, guard := guardInactivity(context.Background(), 0)
	defer guard.Stop()

	guard.Kick()
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, ctx.Err())
}
