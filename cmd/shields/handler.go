// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/babolivier/shields/badge"
	"github.com/babolivier/shields/lib/cache"
	"github.com/babolivier/shields/lib/metrics"
	"github.com/babolivier/shields/lib/ref"
)

// memberCounter resolves a room's joined-member count. Satisfied by
// *matrix.Client.
type memberCounter interface {
	MemberCount(ctx context.Context, host ref.ServerName, roomLocalpart string) (int, error)
}

// server routes badge requests: parse the room and host out of the URL,
// answer from cache or run the member-count pipeline, render the result
// as SVG or JSON. Failures of any kind render as the "inaccessible"
// badge with a 200 status, so that the image keeps displaying in
// READMEs instead of breaking.
type server struct {
	counter  memberCounter
	cache    *cache.Cache[int]
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func newServer(counter memberCounter, badgeCache *cache.Cache[int], cacheTTL time.Duration, m *metrics.Metrics, logger *slog.Logger) *server {
	return &server{
		counter:  counter,
		cache:    badgeCache,
		cacheTTL: cacheTTL,
		metrics:  m,
		logger:   logger,
	}
}

// handler builds the route table.
func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /matrix/{room}/{host}", s.handleBadgeSVG)
	mux.HandleFunc("GET /matrix/{room}/{host}/badge.svg", s.handleBadgeSVG)
	mux.HandleFunc("GET /matrix/{room}/{host}/count.json", s.handleBadgeJSON)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// resolveBadge produces the badge for a room/host pair, consulting the
// cache first. The error return is only for request-shape problems
// (unparseable host); pipeline failures are folded into the badge.
func (s *server) resolveBadge(ctx context.Context, rawRoom, rawHost string) (badge.Badge, error) {
	host, err := ref.ParseServerName(rawHost)
	if err != nil {
		return badge.Badge{}, fmt.Errorf("bad host: %w", err)
	}

	key := rawHost + "/" + rawRoom
	if count, ok := s.cache.Get(key); ok {
		s.metrics.CacheResults.WithLabelValues("hit").Inc()
		s.metrics.BadgeRequests.WithLabelValues("ok").Inc()
		return badge.ForMemberCount(count), nil
	}
	s.metrics.CacheResults.WithLabelValues("miss").Inc()

	started := time.Now()
	count, err := s.counter.MemberCount(ctx, host, rawRoom)
	if err != nil {
		s.logger.Warn("member count failed",
			"host", rawHost, "room", rawRoom, "error", err)
		s.metrics.BadgeRequests.WithLabelValues("error").Inc()
		return badge.ForError(), nil
	}
	s.metrics.PipelineDuration.Observe(time.Since(started).Seconds())

	s.cache.Put(key, count)
	s.metrics.BadgeRequests.WithLabelValues("ok").Inc()
	return badge.ForMemberCount(count), nil
}

func (s *server) handleBadgeSVG(writer http.ResponseWriter, request *http.Request) {
	b, err := s.resolveBadge(request.Context(), request.PathValue("room"), request.PathValue("host"))
	if err != nil {
		s.metrics.BadgeRequests.WithLabelValues("bad_request").Inc()
		b = badge.ForError()
	}

	rendered, err := b.SVG()
	if err != nil {
		s.logger.Error("badge rendering failed", "error", err)
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "image/svg+xml;charset=utf-8")
	s.setCacheHeaders(writer)
	writer.Write(rendered)
}

func (s *server) handleBadgeJSON(writer http.ResponseWriter, request *http.Request) {
	b, err := s.resolveBadge(request.Context(), request.PathValue("room"), request.PathValue("host"))
	if err != nil {
		s.metrics.BadgeRequests.WithLabelValues("bad_request").Inc()
		b = badge.ForError()
	}

	encoded, err := b.JSON()
	if err != nil {
		s.logger.Error("badge encoding failed", "error", err)
		http.Error(writer, "internal error", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	s.setCacheHeaders(writer)
	writer.Write(encoded)
}

func (s *server) handleHealth(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "text/plain")
	writer.Write([]byte("ok\n"))
}

// setCacheHeaders aligns HTTP caching with the in-process cache, so
// that badge CDNs and browsers revalidate on the same cadence the
// service refreshes counts.
func (s *server) setCacheHeaders(writer http.ResponseWriter) {
	if s.cacheTTL <= 0 {
		writer.Header().Set("Cache-Control", "no-cache")
		return
	}
	writer.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.cacheTTL.Seconds())))
}
