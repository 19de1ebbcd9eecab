// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/babolivier/shields/lib/ref"
)

// RoomState fetches the full current state of a room, authenticated
// with accessToken. The token travels as the access_token query
// parameter: the r0 guest-read path requires it there rather than in an
// Authorization header.
//
// Host-side failures stay distinguishable through the returned
// *MatrixError: 400/M_UNRECOGNIZED (the host rejected the request
// shape), M_UNKNOWN_TOKEN (the token was rejected or expired), and
// 403 (the room is not world readable, or invalid on that host).
//
// The response must be a JSON array of state events each carrying type,
// sender, and state_key; anything else is a *SchemaError.
func (c *Client) RoomState(ctx context.Context, host ref.ServerName, roomID ref.RoomID, accessToken string) ([]StateEvent, error) {
	path := "/_matrix/client/r0/rooms/" + url.PathEscape(roomID.String()) + "/state"
	query := url.Values{"access_token": []string{accessToken}}

	body, err := c.doRequest(ctx, host, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("matrix: room state for %s failed: %w", roomID, err)
	}

	var events []StateEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &SchemaError{Endpoint: "/rooms/{roomId}/state", Reason: err.Error()}
	}

	for index, event := range events {
		if event.Type == "" {
			return nil, &SchemaError{
				Endpoint: "/rooms/{roomId}/state",
				Reason:   fmt.Sprintf("event %d missing type", index),
			}
		}
		if event.Sender == "" {
			return nil, &SchemaError{
				Endpoint: "/rooms/{roomId}/state",
				Reason:   fmt.Sprintf("event %d missing sender", index),
			}
		}
		if event.StateKey == nil {
			return nil, &SchemaError{
				Endpoint: "/rooms/{roomId}/state",
				Reason:   fmt.Sprintf("event %d missing state_key", index),
			}
		}
	}

	return events, nil
}
