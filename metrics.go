//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments fetch tasks on a caller-supplied Prometheus registry.
// Every recording method is safe on a nil receiver; an unset Config.Metrics
// disables instrumentation.
type Metrics struct {
	reg           prometheus.Registerer
	fetches       *prometheus.CounterVec
	fetchBytes    prometheus.Counter
	retries       prometheus.Counter
	fetchDuration prometheus.Histogram
}

// NewMetrics registers the loader collectors with reg and returns the
// recording handle.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reg: reg,
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loader_fetches_total",
				Help: "Total number of fetch tasks settled, by outcome.",
			},
			[]string{"outcome"},
		),
		fetchBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loader_fetch_bytes_total",
				Help: "Total number of payload bytes received.",
			},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "loader_retries_total",
				Help: "Total number of retry attempts scheduled.",
			},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loader_fetch_duration_seconds",
				Help:    "Fetch task duration in seconds, including retries and throttling.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.fetches, m.fetchBytes, m.retries, m.fetchDuration)
	return m
}

// ObserveThrottler exports t's instantaneous counters as gauges on the
// registry the Metrics were created with.
func (m *Metrics) ObserveThrottler(t *Throttler) {
	if m == nil {
		return
	}
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "loader_throttle_active",
				Help: "Operations currently running under the throttler.",
			},
			func() float64 { return float64(t.Active()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "loader_throttle_pending",
				Help: "Submissions parked waiting for a throttler slot.",
			},
			func() float64 { return float64(t.Pending()) },
		),
	)
}

func (m *Metrics) fetchDone(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) addFetchBytes(n int) {
	if m == nil {
		return
	}
	m.fetchBytes.Add(float64(n))
}

func (m *Metrics) retryScheduled() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// outcomeOf maps a task's terminal error to a metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAborted):
		return "aborted"
	default:
		return "error"
	}
}
