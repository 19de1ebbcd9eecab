// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references for
// Matrix identifiers: server names and room IDs.
//
// Badge requests arrive with the room localpart and the homeserver name
// as separate untrusted path segments. Both are validated at the HTTP
// boundary and carried through the pipeline as typed values, so the
// pipeline never builds a request URL from raw strings.
//
// All constructors validate their inputs and return errors for invalid
// names. Once constructed, a ref is immutable.
package ref
