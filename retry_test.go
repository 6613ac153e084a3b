//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// immediateBackoff records the attempt indexes it was asked to delay for and
// keeps the test fast.
func immediateBackoff(calls *[]int) Backoff {
	return func(attempt int) time.Duration {
		*calls = append(*calls, attempt)
		return time.Microsecond
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var backoffCalls []int
	r := &Retry{MaxAttempts: 4, Backoff: immediateBackoff(&backoffCalls)}

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 4 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 4, attempts)
	require.Equal(t, []int{0, 1, 2}, backoffCalls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var backoffCalls []int
	r := &Retry{MaxAttempts: 4, Backoff: immediateBackoff(&backoffCalls)}

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return fmt.Errorf("failure %d", attempts)
	})
	require.EqualError(t, err, "failure 4")
	require.Equal(t, 4, attempts)
	require.Equal(t, []int{0, 1, 2}, backoffCalls)
}

func TestRetryDefaultMaxAttempts(t *testing.T) {
	var backoffCalls []int
	r := &Retry{Backoff: immediateBackoff(&backoffCalls)}

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("nope")
	})
	require.Error(t, err)
	require.Equal(t, DefaultMaxAttempts, attempts)
}

func TestRetryAbortBeforeStart(t *testing.T) {
	r := &Retry{}
	r.Abort()

	err := r.Do(context.Background(), func(context.Context) error {
		t.Fatal("operation dispatched after abort")
		return nil
	})
	require.ErrorIs(t, err, ErrAborted)
}

func TestRetryAbortAfterFailure(t *testing.T) {
	var backoffCalls []int
	r := &Retry{Backoff: immediateBackoff(&backoffCalls)}

	errTransfer := errors.New("transfer cut short")
	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		r.Abort()
		return errTransfer
	})
	require.ErrorIs(t, err, errTransfer)
	require.Equal(t, 1, attempts)
	require.Empty(t, backoffCalls)
	require.True(t, r.Aborted())
}

func TestRetryAbortDuringBackoff(t *testing.T) {
	r := &Retry{}
	r.Backoff = func(int) time.Duration {
		r.Abort()
		return time.Microsecond
	}

	attempts := 0
	err := r.Do(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, ErrAborted)
	require.Equal(t, 1, attempts)
}

func TestRetryContextCancelDuringBackoff(t *testing.T) {
	r := &Retry{Backoff: func(int) time.Duration { return time.Minute }}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func(context.Context) error {
			attempts++
			return errors.New("transient")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestExponentialBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	floor := 10 * time.Millisecond
	backoff := ExponentialBackoff(base, floor)

	const samples = 200
	for attempt := 0; attempt < 4; attempt++ {
		ceiling := time.Duration(int64(1)<<uint(attempt))*base + floor
		var sum time.Duration
		for i := 0; i < samples; i++ {
			d := backoff(attempt)
			require.GreaterOrEqual(t, d, floor)
			require.LessOrEqual(t, d, ceiling)
			sum += d
		}
		// The mean sits near half the ceiling, so it roughly doubles per
		// attempt. A loose bound keeps the test stable.
		require.Greater(t, sum/samples, floor)
	}
}

func TestAttempt(t *testing.T) {
	var backoffCalls []int
	r := &Retry{Backoff: immediateBackoff(&backoffCalls)}

	attempts := 0
	v, err := Attempt(context.Background(), r, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "partial", errors.New("transient")
		}
		return "payload", nil
	})
	require.NoError(t, err)
	require.Equal(t, "payload", v)

	r2 := &Retry{MaxAttempts: 1}
	v2, err := Attempt(context.Background(), r2, func(context.Context) (string, error) {
		return "partial", errors.New("nope")
	})
	require.Error(t, err)
	require.Zero(t, v2)
}
