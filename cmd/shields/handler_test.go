// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/babolivier/shields/lib/cache"
	"github.com/babolivier/shields/lib/clock"
	"github.com/babolivier/shields/lib/metrics"
	"github.com/babolivier/shields/lib/ref"
)

// fakeCounter is a canned memberCounter that records its calls.
type fakeCounter struct {
	count int
	err   error
	calls int

	lastHost ref.ServerName
	lastRoom string
}

func (f *fakeCounter) MemberCount(_ context.Context, host ref.ServerName, roomLocalpart string) (int, error) {
	f.calls++
	f.lastHost = host
	f.lastRoom = roomLocalpart
	return f.count, f.err
}

func testServer(t *testing.T, counter memberCounter, ttl time.Duration) *server {
	t.Helper()
	return newServer(
		counter,
		cache.New[int](ttl, clock.Real()),
		ttl,
		metrics.New(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestBadgeRoutes(t *testing.T) {
	t.Run("default route serves SVG", func(t *testing.T) {
		counter := &fakeCounter{count: 3}
		s := testServer(t, counter, 30*time.Second)

		response := get(t, s.handler(), "/matrix/!abc123/example.org")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if contentType := response.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "image/svg+xml") {
			t.Errorf("unexpected content type: %s", contentType)
		}
		if !strings.Contains(response.Body.String(), ">3 users<") {
			t.Errorf("badge missing count: %s", response.Body.String())
		}
		if counter.lastRoom != "!abc123" {
			t.Errorf("unexpected room: %s", counter.lastRoom)
		}
		if counter.lastHost.String() != "example.org" {
			t.Errorf("unexpected host: %s", counter.lastHost)
		}
	})

	t.Run("badge.svg route serves SVG", func(t *testing.T) {
		s := testServer(t, &fakeCounter{count: 1}, 30*time.Second)

		response := get(t, s.handler(), "/matrix/!abc123/example.org/badge.svg")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if !strings.Contains(response.Body.String(), ">1 user<") {
			t.Errorf("badge missing singular count: %s", response.Body.String())
		}
	})

	t.Run("count.json route serves the badge as JSON", func(t *testing.T) {
		s := testServer(t, &fakeCounter{count: 7}, 30*time.Second)

		response := get(t, s.handler(), "/matrix/!abc123/example.org/count.json")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if contentType := response.Header().Get("Content-Type"); contentType != "application/json" {
			t.Errorf("unexpected content type: %s", contentType)
		}

		var decoded map[string]string
		if err := json.Unmarshal(response.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("body does not decode: %v", err)
		}
		if decoded["value"] != "7 users" || decoded["color"] != "brightgreen" || decoded["label"] != "matrix" {
			t.Errorf("unexpected badge: %v", decoded)
		}
	})

	t.Run("pipeline failure renders the error badge with 200", func(t *testing.T) {
		s := testServer(t, &fakeCounter{err: fmt.Errorf("homeserver down")}, 30*time.Second)

		response := get(t, s.handler(), "/matrix/!abc123/example.org")
		if response.Code != http.StatusOK {
			t.Fatalf("error badge should still be a 200, got %d", response.Code)
		}
		if !strings.Contains(response.Body.String(), ">inaccessible<") {
			t.Errorf("expected inaccessible badge: %s", response.Body.String())
		}
	})

	t.Run("unparseable host renders the error badge with 200", func(t *testing.T) {
		counter := &fakeCounter{count: 3}
		s := testServer(t, counter, 30*time.Second)

		response := get(t, s.handler(), "/matrix/!abc123/exa%20mple.org")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if !strings.Contains(response.Body.String(), ">inaccessible<") {
			t.Errorf("expected inaccessible badge: %s", response.Body.String())
		}
		if counter.calls != 0 {
			t.Error("bad host should not reach the pipeline")
		}
	})

	t.Run("cache hit skips the pipeline", func(t *testing.T) {
		counter := &fakeCounter{count: 5}
		s := testServer(t, counter, 30*time.Second)
		handler := s.handler()

		get(t, handler, "/matrix/!abc123/example.org")
		get(t, handler, "/matrix/!abc123/example.org")
		if counter.calls != 1 {
			t.Errorf("expected 1 pipeline run, got %d", counter.calls)
		}

		// A different room is a different key.
		get(t, handler, "/matrix/!other/example.org")
		if counter.calls != 2 {
			t.Errorf("expected 2 pipeline runs, got %d", counter.calls)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		counter := &fakeCounter{err: fmt.Errorf("homeserver down")}
		s := testServer(t, counter, 30*time.Second)
		handler := s.handler()

		get(t, handler, "/matrix/!abc123/example.org")
		get(t, handler, "/matrix/!abc123/example.org")
		if counter.calls != 2 {
			t.Errorf("expected both requests to retry the pipeline, got %d calls", counter.calls)
		}
	})

	t.Run("cache headers follow the TTL", func(t *testing.T) {
		s := testServer(t, &fakeCounter{count: 1}, 30*time.Second)
		response := get(t, s.handler(), "/matrix/!abc123/example.org")
		if control := response.Header().Get("Cache-Control"); control != "public, max-age=30" {
			t.Errorf("unexpected Cache-Control: %s", control)
		}

		uncached := testServer(t, &fakeCounter{count: 1}, 0)
		response = get(t, uncached.handler(), "/matrix/!abc123/example.org")
		if control := response.Header().Get("Cache-Control"); control != "no-cache" {
			t.Errorf("unexpected Cache-Control without TTL: %s", control)
		}
	})
}

func TestOperationalRoutes(t *testing.T) {
	s := testServer(t, &fakeCounter{count: 1}, 30*time.Second)
	handler := s.handler()

	t.Run("healthz", func(t *testing.T) {
		response := get(t, handler, "/healthz")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if response.Body.String() != "ok\n" {
			t.Errorf("unexpected body: %q", response.Body.String())
		}
	})

	t.Run("metrics", func(t *testing.T) {
		// Serve a badge first so the counters exist.
		get(t, handler, "/matrix/!abc123/example.org")

		response := get(t, handler, "/metrics")
		if response.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", response.Code)
		}
		if !strings.Contains(response.Body.String(), "shields_badge_requests_total") {
			t.Error("metrics output missing badge request counter")
		}
	})
}
