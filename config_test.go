//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	defer SetDefaultConfig(Config{})

	custom := Config{
		IgnoreHTTPErrors:  true,
		MaxAttempts:       7,
		InactivityTimeout: 3 * time.Second,
		ExtraHeaders:      map[string]string{"X-Custom": "yes"},
	}
	SetDefaultConfig(custom)

	got := GetDefaultConfig()
	require.True(t, got.IgnoreHTTPErrors)
	require.Equal(t, 7, got.MaxAttempts)
	require.Equal(t, 3*time.Second, got.InactivityTimeout)
	require.Equal(t, "yes", got.ExtraHeaders["X-Custom"])

	req := NewRequest("https://example.com/a")
	require.True(t, req.config.IgnoreHTTPErrors)
	require.Equal(t, 7, req.config.MaxAttempts)
}

func TestConfigClientDefault(t *testing.T) {
	require.Same(t, http.DefaultClient, Config{}.client())

	custom := &http.Client{Timeout: time.Second}
	require.Same(t, custom, Config{HTTPClient: custom}.client())
}

func TestConfigThrottlerDefault(t *testing.T) {
	shared := Config{}.throttler()
	require.NotNil(t, shared)
	require.Equal(t, DefaultMaxConcurrent, shared.MaxConcurrent())
	require.Same(t, shared, Config{}.throttler())

	custom := NewThrottler(2)
	require.Same(t, custom, Config{Throttler: custom}.throttler())
}

func TestConfigNewRetry(t *testing.T) {
	c := Config{MaxAttempts: 5, Backoff: fastBackoff}
	r := c.newRetry("fetch something")
	require.Equal(t, 5, r.MaxAttempts)
	require.NotNil(t, r.Backoff)
	require.Equal(t, "fetch something", r.Description)
}
