//
// Copyright 2026 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package loader provides an asynchronous resource loader with
// aggregate progress tracking and retry support.
package loader
