// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject a Fake with deterministic time control.
//
// The badge result cache expires entries by wall-clock age. Functions
// that call time.Now should accept a Clock (or live on a struct with a
// Clock field) so that expiry can be tested without sleeping.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the system clock.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
