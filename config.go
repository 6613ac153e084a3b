//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"net/http"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Config contains the configuration shared by Request and Image tasks and by
// the Loader. The zero value is fully usable.
type Config struct {
	// HTTPClient used to perform fetches. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// ExtraHeaders to add to every outbound request.
	ExtraHeaders map[string]string
	// IgnoreHTTPErrors accepts any response status code instead of
	// requiring 200.
	IgnoreHTTPErrors bool
	// MaxAttempts bounds how many times a fetch is tried before its error
	// surfaces. Values <= 0 fall back to DefaultMaxAttempts.
	MaxAttempts int
	// Backoff computes the delay between attempts, DefaultBackoff when nil.
	Backoff Backoff
	// Throttler bounds task concurrency. When nil a package-wide instance
	// capped at DefaultMaxConcurrent is used.
	Throttler *Throttler
	// InactivityTimeout fails an attempt when no data is received for the
	// whole window. 0 disables the guard.
	InactivityTimeout time.Duration
	// Logger receives structured task lifecycle events. A nil logger is
	// silent.
	Logger *logiface.Logger[logiface.Event]
	// Metrics, when set, records fetch outcomes, bytes, and retries.
	Metrics *Metrics
}

var sharedThrottler = NewThrottler(DefaultMaxConcurrent)

func (c Config) client() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c Config) throttler() *Throttler {
	if c.Throttler == nil {
		return sharedThrottler
	}
	return c.Throttler
}

func (c Config) newRetry(description string) *Retry {
	return &Retry{
		MaxAttempts: c.MaxAttempts,
		Backoff:     c.Backoff,
		Description: description,
		Logger:      c.Logger,
		Metrics:     c.Metrics,
	}
}

var defaultConfig Config
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration used by NewRequest, NewImage,
// NewLoader, and NewAssetManager.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration. The default
// configuration can be changed using the SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	return defaultConfig
}
