// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

// memberEventType is the state event type carrying room membership.
const memberEventType = "m.room.member"

// membershipJoin is the membership value of a currently joined member.
const membershipJoin = "join"

// CountJoinedMembers derives the joined-member count from a room's
// state. Pure: no I/O, no failure mode; a nil or empty event list
// counts zero.
//
// A state event counts as a joined member when all three hold:
//
//   - it is an m.room.member event,
//   - sender equals state_key — the membership change is self-asserted,
//     which excludes one member acting on another (bans, kicks,
//     invites issued by someone else), and
//   - the membership content is "join".
//
// Membership state events are keyed by their subject (state_key), so a
// self-sent join is exactly "this user is currently in the room".
func CountJoinedMembers(events []StateEvent) int {
	count := 0
	for _, event := range events {
		if event.Type != memberEventType {
			continue
		}
		if event.StateKey == nil || event.Sender != *event.StateKey {
			continue
		}
		if event.Content.Membership != membershipJoin {
			continue
		}
		count++
	}
	return count
}
