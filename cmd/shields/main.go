// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Command shields serves Matrix room member-count badges.
//
// A badge names a room by local part and homeserver in the URL:
//
//	GET /matrix/{room}/{host}              flat SVG badge
//	GET /matrix/{room}/{host}/badge.svg    same, explicit
//	GET /matrix/{room}/{host}/count.json   machine-readable form
//
// plus /healthz and /metrics for operations. Configuration comes from
// a YAML file named by --config or SHIELDS_CONFIG, with working
// defaults when neither is set.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/babolivier/shields/lib/cache"
	"github.com/babolivier/shields/lib/clock"
	"github.com/babolivier/shields/lib/config"
	"github.com/babolivier/shields/lib/metrics"
	"github.com/babolivier/shields/lib/process"
	"github.com/babolivier/shields/lib/service"
	"github.com/babolivier/shields/lib/version"
	"github.com/babolivier/shields/matrix"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to the YAML config file (overrides SHIELDS_CONFIG)")
	listen := pflag.String("listen", "", "TCP listen address (overrides the config file)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return nil
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger.Info("shields starting", "version", version.Info(), "listen", cfg.Server.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := matrix.NewClient(matrix.ClientConfig{
		HTTPClient:   &http.Client{Timeout: cfg.Matrix.RequestTimeout.Std()},
		ProbeTimeout: cfg.Matrix.ProbeTimeout.Std(),
		Logger:       logger.With("component", "matrix"),
	})

	badgeCache := cache.New[int](cfg.Cache.TTL.Std(), clock.Real())
	m := metrics.New()

	srv := newServer(client, badgeCache, cfg.Cache.TTL.Std(), m, logger)

	// Worst case on a cache miss: probe, guest registration, fallback
	// registration, state fetch, plus slack to write the badge.
	writeTimeout := cfg.Matrix.ProbeTimeout.Std() + 3*cfg.Matrix.RequestTimeout.Std() + 5*time.Second

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.Server.Listen,
		Handler:         srv.handler(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		WriteTimeout:    writeTimeout,
		Logger:          logger,
	})

	return httpServer.Serve(ctx)
}
