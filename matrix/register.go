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

const registerPath = "/_matrix/client/r0/register"

// RegisterGuest provisions an ephemeral access token on a homeserver,
// anonymously: a dummy-auth registration with an empty password,
// requested as a guest account.
//
// Hosts that disable guest accounts answer 403. For those, exactly one
// fallback is attempted: the same dummy-auth registration without the
// guest flag, which succeeds on hosts with open registration. Any other
// error from the guest attempt — and any error at all from the
// fallback — propagates unchanged. The two-branch structure is
// deliberate; there is no retry loop to grow unbounded.
//
// The returned token is scoped to the caller: it is never stored on the
// Client and never reused across badge requests.
func (c *Client) RegisterGuest(ctx context.Context, host ref.ServerName) (string, error) {
	token, err := c.register(ctx, host, true)
	if err == nil {
		return token, nil
	}
	if !IsForbidden(err) {
		return "", err
	}

	c.logger.Debug("guest registration forbidden, retrying as non-guest", "host", host)
	return c.register(ctx, host, false)
}

func (c *Client) register(ctx context.Context, host ref.ServerName, guest bool) (string, error) {
	var query url.Values
	if guest {
		query = url.Values{"kind": []string{"guest"}}
	}

	body, err := c.doRequest(ctx, host, http.MethodPost, registerPath, query, registerRequest{
		Password: "",
		Auth:     registerAuth{Type: "m.login.dummy"},
	})
	if err != nil {
		return "", fmt.Errorf("matrix: registration on %s failed: %w", host, err)
	}

	var response authResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &SchemaError{Endpoint: registerPath, Reason: err.Error()}
	}
	if response.AccessToken == "" {
		return "", &SchemaError{Endpoint: registerPath, Reason: "missing access_token"}
	}
	return response.AccessToken, nil
}
