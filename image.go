//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Image fetches and decodes a picture as a trackable task. Decoding exposes
// no measurable progress: WorkComputable is always false.
type Image struct {
	taskState
	src    string
	config Config

	retry   *Retry
	started bool

	img    image.Image
	format string
}

// NewImage returns an image task for src using the default configuration.
// The fetch does not begin until Start is called.
func NewImage(src string) *Image {
	return NewImageWithConfig(src, GetDefaultConfig())
}

// NewImageWithConfig returns an image task for src with an explicit
// configuration.
func NewImageWithConfig(src string, config Config) *Image {
	return &Image{
		taskState: newTaskState(),
		src:       src,
		config:    config,
	}
}

// Src returns the source locator the task decodes.
func (m *Image) Src() string {
	return m.src
}

// Start launches the fetch and decode. Only the first call has any effect.
func (m *Image) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.settled {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.retry = m.config.newRetry("decode image " + m.src)
	retry := m.retry
	m.mu.Unlock()

	go m.run(ctx, retry)
}

// Abort stops the retry loop. An attempt already dispatched is not
// interrupted; if it succeeds the task still completes. Aborting a task
// that never started settles it immediately.
func (m *Image) Abort() {
	if !m.markAborted() {
		return
	}
	m.mu.Lock()
	retry := m.retry
	started := m.started
	m.mu.Unlock()

	if retry != nil {
		retry.Abort()
	}
	if !started {
		m.settle(ErrAborted)
	}
}

func (m *Image) run(ctx context.Context, retry *Retry) {
	start := time.Now()
	log := m.config.Logger
	log.Debug().Str("task", m.id).Str("src", m.src).Log("image loading")
	err := retry.Do(ctx, func(ctx context.Context) error {
		return m.config.throttler().Run(ctx, m.fetchAndDecode)
	})
	m.config.Metrics.fetchDone(outcomeOf(err), time.Since(start))
	if err != nil {
		log.Debug().Str("task", m.id).Str("src", m.src).Err(err).Log("image failed")
	} else {
		log.Debug().Str("task", m.id).Str("src", m.src).
			Str("format", m.Format()).Dur("elapsed", time.Since(start)).
			Log("image loaded")
	}
	m.settle(err)
}

// fetchAndDecode performs a single attempt.
func (m *Image) fetchAndDecode(ctx context.Context) error {
	m.mu.Lock()
	aborted := m.aborted
	m.mu.Unlock()
	if aborted {
		return ErrAborted
	}

	res, err := fetchOnce(ctx, m.config, m.src, nil, func(n int) {
		m.config.Metrics.addFetchBytes(n)
	})
	if err != nil {
		return err
	}
	img, format, err := image.Decode(bytes.NewReader(res.body))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", m.src, err)
	}
	m.mu.Lock()
	m.img = img
	m.format = format
	m.mu.Unlock()
	return nil
}

// Decoded returns the decoded picture once the task completed.
func (m *Image) Decoded() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.img
}

// Format returns the decoded format name ("png", "jpeg", "gif").
func (m *Image) Format() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}
