// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

// StateEvent is one entry of a room's state, as returned by the
// /rooms/{roomId}/state endpoint. Only the fields the member count
// consumes are decoded; everything else in the event is ignored.
type StateEvent struct {
	// Type is the event type (e.g., "m.room.member").
	Type string `json:"type"`

	// Sender is the fully-qualified user ID that sent the event.
	Sender string `json:"sender"`

	// StateKey is the subject the event keys on. For membership events
	// this is the member's user ID. A pointer distinguishes an absent
	// state_key (not a state event — a schema violation here) from the
	// legitimate empty string used by singleton state events.
	StateKey *string `json:"state_key"`

	// Content carries the membership status for m.room.member events.
	Content StateEventContent `json:"content"`
}

// StateEventContent is the decoded subset of a state event's content.
type StateEventContent struct {
	// Membership is "join", "leave", "invite", "ban", or "knock" on
	// m.room.member events; empty on everything else.
	Membership string `json:"membership,omitempty"`
}

// registerRequest is the body for POST /register. The dummy auth stage
// with an empty password is the anonymous provisioning flow: no
// credentials are supplied and none are kept beyond the response token.
type registerRequest struct {
	Password string       `json:"password"`
	Auth     registerAuth `json:"auth"`
}

type registerAuth struct {
	Type string `json:"type"`
}

// authResponse is returned by /register.
type authResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
