// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrix implements the member-count pipeline against the
// Matrix client-server API, for arbitrary caller-named homeservers and
// without pre-registered credentials.
//
// [Client.MemberCount] runs the full pipeline: [Client.ResolveHost]
// finds the host actually serving the client API (SRV discovery with a
// /versions reachability probe, falling back to the nominal host),
// [Client.RegisterGuest] provisions an ephemeral access token (guest
// registration with a single non-guest fallback when guests are
// disabled), [Client.RoomState] fetches the room's state snapshot
// authenticated by that token, and [CountJoinedMembers] reduces the
// state to the number of currently joined members.
//
// One invocation makes at most four blocking network calls, strictly in
// sequence, with no retries beyond the two documented single-shot
// fallbacks. Concurrent invocations share only the HTTP transport; each
// owns its token for the duration of the call and nothing persists it.
//
// All API errors surface as [*MatrixError] with the standard Matrix
// error code and HTTP status, so callers can tell permanent denial
// (guest access off, room not world readable) from transient auth
// problems. Responses that don't match the consumed shape surface as
// [*SchemaError]. The package performs no user-facing messaging of its
// own; callers decide how failures render.
package matrix
