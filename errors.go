//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package loader

import (
	"errors"
	"fmt"
)

// ErrAborted is the terminal error of tasks, retries, and loaders that were
// aborted before their work completed.
var ErrAborted = errors.New("loader: aborted")

// StatusError is returned by a fetch when the server replies with a status
// code the task is not configured to accept.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}
