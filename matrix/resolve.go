// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/babolivier/shields/lib/ref"
)

// SRV service and protocol labels for Matrix federation delegation
// (the lookup resolves _matrix._tcp.<host>).
const (
	srvService = "matrix"
	srvProto   = "tcp"
)

// ResolveHost resolves the host that actually serves the client API for
// a nominal homeserver name, via SRV discovery with a reachability
// probe. At most two outbound calls (one lookup, one probe), no retries.
//
// The outcome tiers:
//
//   - No SRV record for the host: discovery absence is the normal case
//     for most homeservers. Keep the nominal host, skip the probe.
//   - Lookup failed for any other reason: resolver infrastructure is
//     broken, which is not a per-host condition — propagate the error.
//   - Record found and the candidate answers the client-API /versions
//     probe: adopt the candidate.
//   - Record found but the probe fails: the SRV target may serve only
//     server-to-server federation traffic, not the client API. Discard
//     the candidate and keep the nominal host. Every probe error is
//     treated this way; there is no reliable signal separating "no
//     client API here" from a transient fault on the candidate.
func (c *Client) ResolveHost(ctx context.Context, host ref.ServerName) (ref.ServerName, error) {
	_, records, err := c.resolver.LookupSRV(ctx, srvService, srvProto, host.String())
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return host, nil
		}
		return ref.ServerName{}, fmt.Errorf("matrix: SRV lookup for %s failed: %w", host, err)
	}
	if len(records) == 0 {
		return host, nil
	}

	// Only the first record's target is consumed; priority, weight and
	// port stay with the federation use of these records.
	candidate, err := ref.ParseServerName(strings.TrimSuffix(records[0].Target, "."))
	if err != nil {
		c.logger.Debug("discarding unparseable SRV target",
			"host", host,
			"target", records[0].Target,
		)
		return host, nil
	}

	if _, err := c.ServerVersions(ctx, candidate); err != nil {
		c.logger.Debug("discovered host failed client-API probe",
			"host", host,
			"candidate", candidate,
			"error", err,
		)
		return host, nil
	}

	return candidate, nil
}
