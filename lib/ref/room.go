// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// RoomID is a validated Matrix room ID (e.g., "!abc123:example.org").
//
// Badge URLs carry the opaque local part ("!abc123") and the server name
// as separate path segments; NewRoomID composes them into the full room
// ID the client-server API expects. Room IDs always start with '!' and
// contain a ':' separating the local part from the server name.
//
// RoomID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RoomID struct {
	id string
}

// NewRoomID composes a room ID from a room local part (including the
// leading '!') and a server name. This is how badge requests name rooms:
// the two parts arrive as separate URL segments.
func NewRoomID(localpart string, server ServerName) (RoomID, error) {
	if server.IsZero() {
		return RoomID{}, fmt.Errorf("room ID needs a server name")
	}
	return ParseRoomID(localpart + ":" + server.String())
}

// ParseRoomID validates and wraps a raw Matrix room ID string.
// Returns an error if the string is empty, doesn't start with '!',
// carries whitespace or URL separators in its local part, or is
// missing a valid ':server' suffix.
func ParseRoomID(raw string) (RoomID, error) {
	if raw == "" {
		return RoomID{}, fmt.Errorf("empty room ID")
	}
	if raw[0] != '!' {
		return RoomID{}, fmt.Errorf("room ID must start with '!': %q", raw)
	}

	colonIndex := strings.IndexByte(raw[1:], ':')
	if colonIndex < 0 {
		return RoomID{}, fmt.Errorf("room ID missing ':server' suffix: %q", raw)
	}
	if colonIndex == 0 {
		return RoomID{}, fmt.Errorf("room ID has empty local part: %q", raw)
	}

	localpart := raw[1 : 1+colonIndex]
	for i := 0; i < len(localpart); i++ {
		c := localpart[i]
		if c <= ' ' || c == '/' || c == '?' || c == '#' || c == '@' {
			return RoomID{}, fmt.Errorf("room ID %q: invalid character in local part", raw)
		}
	}

	if _, err := ParseServerName(raw[1+colonIndex+1:]); err != nil {
		return RoomID{}, fmt.Errorf("room ID %q: %w", raw, err)
	}

	return RoomID{id: raw}, nil
}

// String returns the full room ID string (e.g., "!abc123:example.org").
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is the zero value (uninitialized).
func (r RoomID) IsZero() bool { return r.id == "" }
