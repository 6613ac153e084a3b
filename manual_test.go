//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualMarkComplete(t *testing.T) {
	m := NewManual()
	require.False(t, m.Complete())
	require.False(t, m.WorkComputable())

	m.MarkComplete()
	require.True(t, m.Complete())
	require.NoError(t, m.Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel still open")
	}

	// Idempotent.
	m.MarkComplete()
	require.True(t, m.Complete())
}

func TestManualFail(t *testing.T) {
	m := NewManual()
	errNope := errors.New("nope")
	m.Fail(errNope)
	require.False(t, m.Complete())
	require.ErrorIs(t, m.Err(), errNope)

	// The first settle wins.
	m.MarkComplete()
	require.False(t, m.Complete())
	require.ErrorIs(t, m.Err(), errNope)
}

func TestManualAbortThenComplete(t *testing.T) {
	m := NewManual()
	m.Abort()

	// Abort only records the flag; the task is still running and may
	// complete.
	select {
	case <-m.Done():
		t.Fatal("abort settled a manual task")
	default:
	}
	require.NoError(t, m.Err())

	m.MarkComplete()
	require.True(t, m.Complete())
	require.NoError(t, m.Err())
}

func TestWatch(t *testing.T) {
	op := make(chan error, 1)
	m := Watch(op)
	op <- nil
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("watch did not settle")
	}
	require.True(t, m.Complete())
}

func TestWatchError(t *testing.T) {
	op := make(chan error, 1)
	errNope := errors.New("nope")
	m := Watch(op)
	op <- errNope
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("watch did not settle")
	}
	require.False(t, m.Complete())
	require.ErrorIs(t, m.Err(), errNope)
}

func TestWatchClosedChannel(t *testing.T) {
	op := make(chan error)
	close(op)
	m := Watch(op)
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("watch did not settle")
	}
	require.True(t, m.Complete())
}
