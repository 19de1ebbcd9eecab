// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for shields.
//
// ReadResponse bounds all response body reads at MaxResponseSize to
// prevent unbounded memory allocation from a misbehaving or hostile
// homeserver. Badge requests name an arbitrary, caller-supplied host,
// so every upstream response is untrusted input.
package netutil

import "io"

// MaxResponseSize is the bound on response body reads: 16 MB. Room state
// for very large public rooms runs to a few megabytes; the limit is
// generous enough to never interfere with legitimate responses while
// keeping a pathological one from exhausting memory.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
