// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry centralizes the resolver's structured logging, tracing,
// and metrics so internal/resolver stays focused on the pipeline itself.
// The diagnostic hooks the reference implementation wrote to stdout via
// _diag(...) become slog events here, per §9's design note on replacing a
// global print with a structured logger abstraction.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Tracer is the resolver's span source: one span per resolve() call and one
// child span per local-resolver run, which records the winning attempt as
// an attribute rather than opening a span per attempt, following
// escalatingRouterTracer's usage in the teacher's routing package. Tracer
// is obtained from the global otel package at init time, before any
// provider is registered — that's fine:
// otel's global tracer delegates to whatever provider SetupTracing later
// installs, so every span created against Tracer starts working the moment
// an entrypoint calls SetupTracing.
var Tracer = otel.Tracer("toolrouter.resolver")

// SetupTracing wires a real go.opentelemetry.io/otel/sdk/trace
// TracerProvider, exporting spans as JSON to w via stdouttrace, and installs
// it as the global provider. Until an entrypoint calls this, Tracer is a
// no-op and every span it creates is silently discarded. The returned
// shutdown func flushes pending spans and releases the exporter; callers
// should defer it.
func SetupTracing(w io.Writer, serviceName string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("telemetry: constructing stdouttrace exporter: %w", err)
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

var (
	// AttemptTotal counts each local-resolver attempt by attempt number
	// and outcome ("calls"/"empty").
	AttemptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolrouter",
		Subsystem: "resolver",
		Name:      "attempt_total",
		Help:      "Local resolver attempts by attempt number and outcome",
	}, []string{"attempt", "outcome"})

	// SchemaOverrideTotal counts how often Attempt 1's schema-override
	// rule fired.
	SchemaOverrideTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "toolrouter",
		Subsystem: "resolver",
		Name:      "schema_override_total",
		Help:      "Times the model's tool choice was discarded in favor of the schema's pick",
	})

	// SchemaImproveTotal counts how often a model call's arguments were
	// replaced by a higher-overlap schema-extracted alternative.
	SchemaImproveTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "toolrouter",
		Subsystem: "resolver",
		Name:      "schema_improve_total",
		Help:      "Times a schema-extracted argument set replaced the model's",
	})

	// CloudFallbackTotal counts invocations of the cloud adapter.
	CloudFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "toolrouter",
		Subsystem: "resolver",
		Name:      "cloud_fallback_total",
		Help:      "Requests that fell through to the cloud adapter",
	})

	// ResolveLatency observes end-to-end resolve() wall time.
	ResolveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toolrouter",
		Subsystem: "resolver",
		Name:      "resolve_latency_seconds",
		Help:      "End-to-end resolve() latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})
)

// Logger is the package-wide structured logger, taken from slog.Default()
// when the package is initialized.
var Logger = slog.Default()
