// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"context"
	"fmt"

	"github.com/babolivier/shields/lib/ref"
)

// MemberCount answers "how many members have joined this room right
// now" for a room named by its local part (with the '!' sigil) and
// nominal homeserver.
//
// The sequence is strictly ordered: resolve the effective client-API
// host, provision an ephemeral access token on it, fetch the room
// state, count. No step begins before the previous one has produced
// its value — the token is only requested once the host is fixed, and
// the state query only carries a freshly issued token. Beyond the two
// single-shot recoveries inside ResolveHost (discarded probe failure)
// and RegisterGuest (non-guest fallback), no step is retried, and
// errors from registration and the state fetch propagate to the caller
// unchanged: presenting failure is the caller's job.
//
// The room ID keeps the nominal host as its server-name part even when
// discovery picked a different host for the API endpoint — SRV
// delegation moves the endpoint, not the room's origin name.
func (c *Client) MemberCount(ctx context.Context, host ref.ServerName, roomLocalpart string) (int, error) {
	roomID, err := ref.NewRoomID(roomLocalpart, host)
	if err != nil {
		return 0, fmt.Errorf("matrix: invalid room: %w", err)
	}

	effectiveHost, err := c.ResolveHost(ctx, host)
	if err != nil {
		return 0, err
	}

	accessToken, err := c.RegisterGuest(ctx, effectiveHost)
	if err != nil {
		return 0, err
	}

	events, err := c.RoomState(ctx, effectiveHost, roomID, accessToken)
	if err != nil {
		return 0, err
	}

	return CountJoinedMembers(events), nil
}
