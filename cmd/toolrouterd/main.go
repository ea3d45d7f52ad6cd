// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command toolrouterd starts the hybrid function-call router as an HTTP
// service.
//
// Usage:
//
//	go run ./cmd/toolrouterd
//	go run ./cmd/toolrouterd -port 9090
//
// Example request:
//
//	curl -X POST http://localhost:8080/v1/resolve \
//	  -H "Content-Type: application/json" \
//	  -d '{"messages":[{"role":"user","content":"set an alarm for 7 30"}]}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/switchchat/toolrouter/internal/httpapi"
	"github.com/switchchat/toolrouter/internal/modelclient"
	"github.com/switchchat/toolrouter/internal/resolver"
	"github.com/switchchat/toolrouter/internal/resultcache"
	"github.com/switchchat/toolrouter/internal/routerconfig"
	"github.com/switchchat/toolrouter/internal/telemetry"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	cacheDir := flag.String("cache-dir", "", "Directory for the BadgerDB result cache (empty disables caching)")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdownTracing, err := telemetry.SetupTracing(os.Stderr, "toolrouterd")
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("failed to shut down tracing", "error", err)
		}
	}()

	cfg, err := routerconfig.Default()
	if err != nil {
		slog.Error("failed to load router config", "error", err)
		os.Exit(1)
	}

	handle := modelclient.NewHandle(func(ctx context.Context) (modelclient.Model, error) {
		return nil, fmt.Errorf("toolrouterd: no on-device model backend wired in this build")
	})
	defer func() {
		if err := handle.Close(context.Background()); err != nil {
			slog.Warn("failed to close model handle", "error", err)
		}
	}()

	router, err := resolver.New(handle, nil, cfg)
	if err != nil {
		slog.Error("failed to construct resolver", "error", err)
		os.Exit(1)
	}

	var cache *resultcache.Store
	if *cacheDir != "" {
		cache, err = resultcache.Open(*cacheDir, slog.Default())
		if err != nil {
			slog.Warn("result cache unavailable, continuing without it",
				"path", *cacheDir, "error", err)
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					slog.Warn("failed to close result cache", "error", err)
				}
			}()
			slog.Info("result cache opened", "path", *cacheDir)
		}
	}

	handlers := httpapi.NewHandlers(router, cache)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("toolrouterd"))
	if *debug {
		engine.Use(gin.Logger())
	}

	v1 := engine.Group("/v1")
	httpapi.RegisterRoutes(v1, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("shutting down toolrouterd")
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("starting toolrouterd", "address", addr)
	if err := engine.Run(addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
