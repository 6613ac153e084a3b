//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Blob is a payload tagged with its content type.
type Blob struct {
	Type string
	Data []byte
}

// AssetManager fetches named resources, resolving relative sources under a
// configurable base path so assets may live on an alternate origin.
type AssetManager struct {
	basePath string
	config   Config
}

// NewAssetManager returns an asset manager resolving relative sources under
// basePath, using the default configuration. An empty basePath leaves
// sources untouched.
func NewAssetManager(basePath string) *AssetManager {
	return NewAssetManagerWithConfig(basePath, GetDefaultConfig())
}

// NewAssetManagerWithConfig returns an asset manager with an explicit
// configuration.
func NewAssetManagerWithConfig(basePath string, config Config) *AssetManager {
	return &AssetManager{basePath: basePath, config: config}
}

// BasePath returns the configured base path.
func (a *AssetManager) BasePath() string {
	return a.basePath
}

// resolve joins src under the base path unless src is already absolute or
// rooted.
func (a *AssetManager) resolve(src string) string {
	if a.basePath == "" {
		return src
	}
	if u, err := url.Parse(src); err == nil && u.IsAbs() {
		return src
	}
	if strings.HasPrefix(src, "/") {
		return src
	}
	if joined, err := url.JoinPath(a.basePath, src); err == nil {
		return joined
	}
	return strings.TrimSuffix(a.basePath, "/") + "/" + src
}

// fetch runs one Request to completion, aborting it if ctx is cancelled.
func (a *AssetManager) fetch(ctx context.Context, src string) (*Request, error) {
	req := NewRequestWithConfig(a.resolve(src), a.config)
	req.Start(ctx)
	select {
	case <-req.Done():
	case <-ctx.Done():
		req.Abort()
		<-req.Done()
	}
	if err := req.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// LoadFont fetches a font resource, returning its bytes tagged with the
// reported content type.
func (a *AssetManager) LoadFont(ctx context.Context, src string) (*Blob, error) {
	req, err := a.fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading font %s: %w", src, err)
	}
	return req.Blob(), nil
}

// LoadBinaryResource fetches an arbitrary resource as raw bytes.
func (a *AssetManager) LoadBinaryResource(ctx context.Context, src string) ([]byte, error) {
	req, err := a.fetch(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading resource %s: %w", src, err)
	}
	return req.Bytes(), nil
}

// LoadAll fetches every src concurrently under a single Loader, reporting
// aggregate progress to onProgress (may be nil), and returns the payloads
// keyed by source. On the first failure or on ctx cancellation the whole
// group is aborted and the error returned.
func (a *AssetManager) LoadAll(ctx context.Context, srcs []string, onProgress func(progress float64)) (map[string][]byte, error) {
	l := NewLoaderWithConfig(a.config)
	if onProgress != nil {
		l.OnProgress(onProgress)
	}
	defer l.Cleanup()

	requests := make([]*Request, 0, len(srcs))
	for _, src := range srcs {
		req := NewRequestWithConfig(a.resolve(src), a.config)
		l.AddTask(req)
		requests = append(requests, req)
	}
	for _, req := range requests {
		req.Start(ctx)
	}
	if err := l.Wait(ctx); err != nil {
		l.Abort()
		return nil, err
	}

	result := make(map[string][]byte, len(srcs))
	for i, req := range requests {
		result[srcs[i]] = req.Bytes()
	}
	return result, nil
}
