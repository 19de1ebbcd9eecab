// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/babolivier/shields/lib/netutil"
	"github.com/babolivier/shields/lib/ref"
)

// SRVResolver is the service-discovery dependency of host resolution.
// *net.Resolver satisfies it; tests substitute a fake.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (cname string, records []*net.SRV, err error)
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HTTPClient is used for all client-API requests. If nil, a client
	// with a 20-second timeout is used. The pipeline performs no
	// transport-level retries; any retry or proxy policy belongs on
	// this client.
	HTTPClient *http.Client

	// ProbeTimeout bounds the /versions reachability probe issued
	// against SRV-discovered hosts. Defaults to 5 seconds. A separate,
	// shorter bound than the general request timeout: an unresponsive
	// discovered host should fall back to the nominal one quickly.
	ProbeTimeout time.Duration

	// Resolver performs SRV lookups. If nil, net.DefaultResolver is used.
	Resolver SRVResolver

	// Scheme is the URL scheme for homeserver requests, "https" by
	// default. Tests set "http" to target local fixture servers.
	Scheme string

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks the Matrix client-server API to arbitrary, caller-named
// homeservers. Unlike a conventional Matrix client it is not bound to
// one homeserver URL: every badge request names its own host, so every
// method takes the target host explicitly.
//
// A Client holds no credentials. The access token obtained for one
// badge request lives only in that request's call chain.
type Client struct {
	httpClient   *http.Client
	probeTimeout time.Duration
	resolver     SRVResolver
	scheme       string
	logger       *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	probeTimeout := config.ProbeTimeout
	if probeTimeout == 0 {
		probeTimeout = 5 * time.Second
	}

	resolver := config.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	scheme := config.Scheme
	if scheme == "" {
		scheme = "https"
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:   httpClient,
		probeTimeout: probeTimeout,
		resolver:     resolver,
		scheme:       scheme,
		logger:       logger,
	}
}

// ServerVersions returns the Matrix protocol versions supported by the
// homeserver. This is an unauthenticated endpoint — host resolution
// uses it as a reachability probe to check that a discovered host
// actually serves the client API.
func (c *Client) ServerVersions(ctx context.Context, host ref.ServerName) (*ServerVersionsResponse, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	body, err := c.doRequest(probeCtx, host, http.MethodGet, "/_matrix/client/versions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("matrix: server versions for %s failed: %w", host, err)
	}

	var response ServerVersionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &SchemaError{Endpoint: "/versions", Reason: err.Error()}
	}
	return &response, nil
}

// doRequest performs an HTTP request against a homeserver and returns
// the response body. On 2xx, returns the body. On 4xx/5xx, returns a
// *MatrixError. query may be nil for endpoints without query parameters.
//
// Request URLs are built by string concatenation from the validated
// host and pre-escaped path, avoiding double-encoding of path segments
// that contain URL-encoded characters (room IDs).
func (c *Client) doRequest(ctx context.Context, host ref.ServerName, method, path string, query url.Values, requestBody any) ([]byte, error) {
	requestURL := c.scheme + "://" + host.String() + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("matrix: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("matrix: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("matrix: request to %s %s on %s failed: %w", method, path, host, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("matrix: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All Matrix error responses use the same JSON shape. Arbitrary
	// hosts also answer with reverse-proxy error pages and plain 404s;
	// those are still typed by status code, so that e.g. a proxied 403
	// on registration takes the non-guest fallback branch.
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal(responseBody, &matrixErr); jsonErr != nil || matrixErr.Code == "" {
		matrixErr = MatrixError{Code: ErrCodeUnknown, Message: bodySnippet(responseBody)}
	}
	matrixErr.StatusCode = response.StatusCode

	return responseBody, &matrixErr
}

// bodySnippet truncates a non-Matrix error body for use in an error
// message.
func bodySnippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
