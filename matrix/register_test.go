// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// registerFixture records each /register call's guest flag and auth
// type, answering with the configured responder.
type registerFixture struct {
	calls   []bool // guest flag per call, in order
	respond func(call int, writer http.ResponseWriter)
}

func (f *registerFixture) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/r0/register" {
			t.Errorf("unexpected path: %s", request.URL.Path)
			writer.WriteHeader(http.StatusNotFound)
			return
		}

		var body struct {
			Password string `json:"password"`
			Auth     struct {
				Type string `json:"type"`
			} `json:"auth"`
		}
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode register body: %v", err)
		}
		if body.Password != "" {
			t.Errorf("expected empty password, got %q", body.Password)
		}
		if body.Auth.Type != "m.login.dummy" {
			t.Errorf("unexpected auth type: %s", body.Auth.Type)
		}

		f.calls = append(f.calls, request.URL.Query().Get("kind") == "guest")
		f.respond(len(f.calls), writer)
	})
}

func writeAuthResponse(writer http.ResponseWriter, token string) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(map[string]any{
		"user_id":      "@guest123:example.org",
		"access_token": token,
	})
}

func writeMatrixError(writer http.ResponseWriter, status int, code, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(MatrixError{Code: code, Message: message})
}

func TestRegisterGuest(t *testing.T) {
	t.Run("guest success issues a single request", func(t *testing.T) {
		fixture := &registerFixture{respond: func(_ int, writer http.ResponseWriter) {
			writeAuthResponse(writer, "syt_guest_token")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		token, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if err != nil {
			t.Fatalf("RegisterGuest failed: %v", err)
		}
		if token != "syt_guest_token" {
			t.Errorf("unexpected token: %s", token)
		}
		if len(fixture.calls) != 1 || !fixture.calls[0] {
			t.Errorf("expected exactly one guest request, got %v", fixture.calls)
		}
	})

	t.Run("forbidden guest falls back to non-guest once", func(t *testing.T) {
		fixture := &registerFixture{respond: func(call int, writer http.ResponseWriter) {
			if call == 1 {
				writeMatrixError(writer, http.StatusForbidden, ErrCodeForbidden, "Guest access is disabled")
				return
			}
			writeAuthResponse(writer, "syt_fallback_token")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		token, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if err != nil {
			t.Fatalf("RegisterGuest failed: %v", err)
		}
		if token != "syt_fallback_token" {
			t.Errorf("unexpected token: %s", token)
		}
		if len(fixture.calls) != 2 || !fixture.calls[0] || fixture.calls[1] {
			t.Errorf("expected guest then non-guest, got %v", fixture.calls)
		}
	})

	t.Run("proxied 403 without error body still falls back", func(t *testing.T) {
		// A reverse proxy in front of the homeserver answers the guest
		// attempt with its own HTML error page.
		fixture := &registerFixture{respond: func(call int, writer http.ResponseWriter) {
			if call == 1 {
				writer.Header().Set("Content-Type", "text/html")
				writer.WriteHeader(http.StatusForbidden)
				writer.Write([]byte("<html>403 Forbidden</html>"))
				return
			}
			writeAuthResponse(writer, "syt_fallback_token")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		token, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if err != nil {
			t.Fatalf("RegisterGuest failed: %v", err)
		}
		if token != "syt_fallback_token" {
			t.Errorf("unexpected token: %s", token)
		}
		if len(fixture.calls) != 2 {
			t.Errorf("expected guest then non-guest, got %v", fixture.calls)
		}
	})

	t.Run("fallback failure propagates without further retry", func(t *testing.T) {
		fixture := &registerFixture{respond: func(call int, writer http.ResponseWriter) {
			if call == 1 {
				writeMatrixError(writer, http.StatusForbidden, ErrCodeForbidden, "Guest access is disabled")
				return
			}
			writeMatrixError(writer, http.StatusForbidden, ErrCodeForbidden, "Registration is disabled")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		_, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if !IsForbidden(err) {
			t.Fatalf("expected forbidden error, got: %v", err)
		}
		if len(fixture.calls) != 2 {
			t.Errorf("expected exactly 2 requests, got %d", len(fixture.calls))
		}
	})

	t.Run("rate limit is not retried", func(t *testing.T) {
		fixture := &registerFixture{respond: func(_ int, writer http.ResponseWriter) {
			writeMatrixError(writer, http.StatusTooManyRequests, ErrCodeLimitExceeded, "Too many requests")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		_, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if !IsRateLimited(err) {
			t.Fatalf("expected rate-limited error, got: %v", err)
		}
		if len(fixture.calls) != 1 {
			t.Errorf("expected exactly 1 request, got %d", len(fixture.calls))
		}
	})

	t.Run("401 is not retried", func(t *testing.T) {
		fixture := &registerFixture{respond: func(_ int, writer http.ResponseWriter) {
			writeMatrixError(writer, http.StatusUnauthorized, ErrCodeUnknown, "Auth flow incomplete")
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		_, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		if err == nil {
			t.Fatal("expected error")
		}
		if len(fixture.calls) != 1 {
			t.Errorf("expected exactly 1 request, got %d", len(fixture.calls))
		}
	})

	t.Run("missing access token is a schema error", func(t *testing.T) {
		fixture := &registerFixture{respond: func(_ int, writer http.ResponseWriter) {
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(map[string]any{"user_id": "@guest:example.org"})
		}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		client := testClient(t, nil)
		_, err := client.RegisterGuest(context.Background(), serverHost(t, server))
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("expected schema error, got: %v", err)
		}
	})
}
