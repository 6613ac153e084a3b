//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultMaxAttempts is the total number of times an operation is tried
// before its error is surfaced to the caller.
const DefaultMaxAttempts = 4

const (
	defaultBackoffBase  = 500 * time.Millisecond
	defaultBackoffFloor = 50 * time.Millisecond
)

// Backoff computes the delay before retrying a failed operation. The attempt
// index is 0-based: the sleep after the first failure is Backoff(0).
type Backoff func(attempt int) time.Duration

// ExponentialBackoff returns a jittered exponential backoff policy: the
// delay for attempt i is 2^i * base scaled by a uniform random factor in
// [0,1), plus floor.
func ExponentialBackoff(base, floor time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(int64(1)<<uint(attempt)) * float64(base) * rand.Float64())
		return d + floor
	}
}

// DefaultBackoff is the policy used when Retry.Backoff is nil: exponential
// with a 500ms base and a 50ms floor.
var DefaultBackoff = ExponentialBackoff(defaultBackoffBase, defaultBackoffFloor)

// Retry runs a fallible operation up to MaxAttempts times, sleeping between
// attempts according to the Backoff policy. A Retry wraps a single logical
// operation and is not meant to be reused. The zero value is usable.
type Retry struct {
	// MaxAttempts is the total number of attempts. Values <= 0 fall back to
	// DefaultMaxAttempts.
	MaxAttempts int
	// Backoff computes the sleep between attempts, DefaultBackoff when nil.
	Backoff Backoff
	// Description identifies the operation in logs.
	Description string
	// Logger, when set, receives a warning for every scheduled retry.
	Logger *logiface.Logger[logiface.Event]
	// Metrics, when set, counts scheduled retries.
	Metrics *Metrics

	aborted atomic.Bool
}

// Abort stops the retry loop: the next failure, or the next attempt
// decision, propagates immediately instead of scheduling another attempt.
// An operation already in flight is not interrupted.
func (r *Retry) Abort() {
	r.aborted.Store(true)
}

// Aborted reports whether Abort was called.
func (r *Retry) Aborted() bool {
	return r.aborted.Load()
}

// Do runs op until it succeeds, fails MaxAttempts times, is aborted, or ctx
// is cancelled during a backoff sleep. After exhaustion the last attempt's
// error is returned as-is. An abort observed after a failure propagates that
// failure with no further attempts; an abort observed before an attempt is
// dispatched returns ErrAborted without invoking op.
func (r *Retry) Do(ctx context.Context, op func(context.Context) error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := r.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}
	for attempt := 0; ; attempt++ {
		if r.Aborted() {
			return ErrAborted
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		if r.Aborted() || errors.Is(err, ErrAborted) {
			return err
		}
		if attempt+1 >= maxAttempts {
			return err
		}
		delay := backoff(attempt)
		r.Logger.Warning().
			Str("op", r.Description).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Log("retrying")
		r.Metrics.retryScheduled()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Attempt runs op under r, returning its value on success. It is the
// value-producing form of Retry.Do.
func Attempt[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
