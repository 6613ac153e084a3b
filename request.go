//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Request fetches a URL as a trackable task. The fetch is retried with
// backoff and routed through the configured throttler; progress is measured
// in bytes whenever the transport reports a length. URLs without a scheme
// and file:// URLs are read from the local filesystem.
type Request struct {
	taskState
	url    string
	config Config

	retry   *Retry
	cancel  context.CancelCauseFunc
	started bool

	body        []byte
	contentType string
	status      int
}

// NewRequest returns a request task for url using the default configuration.
// The fetch does not begin until Start is called.
func NewRequest(url string) *Request {
	return NewRequestWithConfig(url, GetDefaultConfig())
}

// NewRequestWithConfig returns a request task for url with an explicit
// configuration.
func NewRequestWithConfig(url string, config Config) *Request {
	return &Request{
		taskState: newTaskState(),
		url:       url,
		config:    config,
	}
}

// URL returns the source locator the task fetches.
func (r *Request) URL() string {
	return r.url
}

// Start launches the fetch. Only the first call has any effect. The task
// settles when the fetch completes, permanently fails, or is aborted.
func (r *Request) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.settled {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.retry = r.config.newRetry("download " + r.url)
	retry := r.retry
	r.mu.Unlock()

	go r.run(ctx, retry)
}

// Abort stops the task: the retry loop is stopped and the in-flight
// transfer, if any, is cancelled. Aborting a task that never started settles
// it immediately.
func (r *Request) Abort() {
	if !r.markAborted() {
		return
	}
	r.mu.Lock()
	retry := r.retry
	cancel := r.cancel
	started := r.started
	r.mu.Unlock()

	if retry != nil {
		retry.Abort()
	}
	if cancel != nil {
		cancel(ErrAborted)
	}
	if !started {
		r.settle(ErrAborted)
	}
}

func (r *Request) run(ctx context.Context, retry *Retry) {
	start := time.Now()
	log := r.config.Logger
	log.Debug().Str("task", r.id).Str("url", r.url).Log("download starting")
	err := retry.Do(ctx, func(ctx context.Context) error {
		return r.config.throttler().Run(ctx, r.fetch)
	})
	r.config.Metrics.fetchDone(outcomeOf(err), time.Since(start))
	if err != nil {
		log.Debug().Str("task", r.id).Str("url", r.url).Err(err).Log("download failed")
	} else {
		log.Debug().Str("task", r.id).Str("url", r.url).
			Int("bytes", len(r.Bytes())).Dur("elapsed", time.Since(start)).
			Log("download completed")
	}
	r.settle(err)
}

// fetch performs a single download attempt.
func (r *Request) fetch(ctx context.Context) error {
	r.mu.Lock()
	if r.aborted {
		r.mu.Unlock()
		return ErrAborted
	}
	ctx, cancel := context.WithCancelCause(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
		cancel(nil)
	}()

	res, err := fetchOnce(ctx, r.config, r.url,
		func(total int64) { r.setWork(total) },
		func(n int) {
			r.config.Metrics.addFetchBytes(n)
			r.addWork(int64(n))
		})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.body = res.body
	r.contentType = res.contentType
	r.status = res.status
	r.mu.Unlock()
	return nil
}

// Bytes returns the fetched payload. It is meaningful once Done is closed
// and the task completed without error.
func (r *Request) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body
}

// Text returns the fetched payload as a string.
func (r *Request) Text() string {
	return string(r.Bytes())
}

// Decode unmarshals the fetched payload as JSON into v.
func (r *Request) Decode(v any) error {
	return json.Unmarshal(r.Bytes(), v)
}

// Blob returns the fetched payload tagged with its content type.
func (r *Request) Blob() *Blob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Blob{Type: r.contentType, Data: r.body}
}

// ContentType returns the response Content-Type header, or the type guessed
// from the extension for local reads.
func (r *Request) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentType
}

// StatusCode returns the response status code, or 0 for local reads.
func (r *Request) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// fetchResult is the outcome of one completed fetch attempt.
type fetchResult struct {
	body        []byte
	contentType string
	status      int
}

// fetchOnce retrieves src honoring config's client, extra headers, status
// acceptance, and inactivity guard. onLength is invoked with the reported
// content length (-1 when unknown) before the body is read; onChunk after
// every received chunk. Either may be nil.
func fetchOnce(ctx context.Context, config Config, src string, onLength func(total int64), onChunk func(n int)) (*fetchResult, error) {
	if path, ok := localPath(src); ok {
		return fetchLocal(ctx, path, onLength, onChunk)
	}

	ctx, guard := guardInactivity(ctx, config.InactivityTimeout)
	defer guard.Stop()

	req, err := http.NewRequestWithContext(ctx, "GET", src, nil)
	if err != nil {
		return nil, fmt.Errorf("setting up HTTP request: %w", err)
	}
	for k, v := range config.ExtraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := config.client().Do(req)
	if err != nil {
		return nil, attemptError(ctx, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK && !config.IgnoreHTTPErrors {
		return nil, &StatusError{URL: src, StatusCode: resp.StatusCode}
	}
	if onLength != nil {
		onLength(resp.ContentLength)
	}
	body, err := drain(resp.Body, guard, onChunk)
	if err != nil {
		return nil, attemptError(ctx, err)
	}
	return &fetchResult{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		status:      resp.StatusCode,
	}, nil
}

// fetchLocal reads a filesystem path, reporting progress against the stat
// size. Local access has no HTTP status; the result carries status 0.
func fetchLocal(ctx context.Context, path string, onLength func(total int64), onChunk func(n int)) (*fetchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	if onLength != nil {
		onLength(size)
	}
	body, err := drain(f, nil, onChunk)
	if err != nil {
		return nil, attemptError(ctx, err)
	}
	return &fetchResult{
		body:        body,
		contentType: mime.TypeByExtension(filepath.Ext(path)),
		status:      0,
	}, nil
}

// drain reads in to completion in 4 KiB chunks, kicking the inactivity
// guard and reporting each chunk to onChunk.
func drain(in io.Reader, guard *inactivity, onChunk func(n int)) ([]byte, error) {
	var out bytes.Buffer
	buff := [4096]byte{}
	for {
		n, err := in.Read(buff[:])
		if n > 0 {
			out.Write(buff[:n])
			if guard != nil {
				guard.Kick()
			}
			if onChunk != nil {
				onChunk(n)
			}
		}
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// localPath reports whether rawURL addresses the local filesystem, returning
// the path to read. Scheme-less URLs and file:// URLs are local.
func localPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		return strings.TrimPrefix(rawURL, "file://"), true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return rawURL, true
	}
	if len(u.Scheme) == 1 {
		// a single-letter scheme is a windows drive, not a protocol
		return rawURL, true
	}
	return "", false
}

// attemptError surfaces the cancellation cause when err was produced by the
// attempt context going away: ErrAborted for aborts, a stall error for
// inactivity. Other errors pass through unchanged.
func attemptError(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrAborted) {
		return ErrAborted
	}
	if errors.Is(cause, os.ErrDeadlineExceeded) {
		return fmt.Errorf("no data received: %w", cause)
	}
	return err
}
