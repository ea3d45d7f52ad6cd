// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/cloudclient"
	"github.com/switchchat/toolrouter/internal/extract"
	"github.com/switchchat/toolrouter/internal/modelclient"
	"github.com/switchchat/toolrouter/internal/routerconfig"
	"github.com/switchchat/toolrouter/internal/schema"
	"github.com/switchchat/toolrouter/internal/telemetry"
)

// conjunctionSplitPattern is carried over verbatim from the reference
// implementation, bare comma and all: it over-segments on any comma, not
// just comma-before-"and", so "buy milk, eggs, and bread" yields three
// clauses instead of one. Left as-is per spec.md §9.
var conjunctionSplitPattern = regexp.MustCompile(`\s+and\s+|,\s*and\s+|,\s+`)

// Router is the hybrid function-call router of §4.I: it drives the local
// resolver against the full utterance, recovers multi-intent utterances by
// splitting on conjunctions when that fails, and only then falls back to
// the cloud. Cloud may be nil — a deployment that has no fallback adapter
// simply gets ErrCloudUnavailable when local resolution fails.
type Router struct {
	Handle *modelclient.Handle
	Cloud  cloudclient.Generator
	Config *routerconfig.Config
}

// New constructs a Router. cfg may be nil, in which case routerconfig.Default
// is used.
func New(handle *modelclient.Handle, cloud cloudclient.Generator, cfg *routerconfig.Config) (*Router, error) {
	if cfg == nil {
		var err error
		cfg, err = routerconfig.Default()
		if err != nil {
			return nil, err
		}
	}
	return &Router{Handle: handle, Cloud: cloud, Config: cfg}, nil
}

// Resolve runs the full hybrid pipeline for one utterance against tools (the
// caller is expected to have already run catalog.Merge over whatever
// built-in/partner tools it wants included).
func (r *Router) Resolve(ctx context.Context, turns []calltypes.Turn, tools []calltypes.Tool) (calltypes.Result, error) {
	if len(tools) == 0 {
		return calltypes.Result{}, ErrCatalogInconsistent
	}

	start := time.Now()
	defer func() {
		telemetry.ResolveLatency.Observe(time.Since(start).Seconds())
	}()

	requestID := uuid.NewString()
	ctx, span := telemetry.Tracer.Start(ctx, "resolver.resolve",
		trace.WithAttributes(
			attribute.Int("tool_count", len(tools)),
			attribute.String("request_id", requestID),
		))
	defer span.End()

	logger := telemetry.Logger.With(slog.String("request_id", requestID))

	userText := calltypes.QueryText(turns)

	direct, directOK := localResolve(ctx, r.Handle, userText, tools, nil, r.Config)

	clauses := splitConjunctions(userText, r.Config.ConjunctionSplitMinPartLen)
	expected := 1
	if len(clauses) > expected {
		expected = len(clauses)
	}

	if len(clauses) > 1 && len(direct.Calls) < expected {
		if merged, ok := r.recoverMultiIntent(ctx, userText, clauses, tools, direct); ok {
			span.SetAttributes(attribute.String("path", "conjunction_split"))
			logger.Info("resolved via conjunction split", slog.Int("call_count", len(merged.Calls)))
			return r.finish(merged.Calls, merged.Confidence, start, calltypes.SourceOnDevice), nil
		}
	}

	if directOK {
		span.SetAttributes(attribute.String("path", "direct"))
		logger.Info("resolved directly", slog.Int("call_count", len(direct.Calls)))
		return r.finish(direct.Calls, direct.Confidence, start, calltypes.SourceOnDevice), nil
	}

	if r.Cloud == nil {
		span.SetStatus(codes.Error, "local resolution failed, no cloud fallback configured")
		return calltypes.Result{}, ErrCloudUnavailable
	}

	telemetry.CloudFallbackTotal.Inc()
	span.SetAttributes(attribute.String("path", "cloud_fallback"))
	logger.Warn("local resolution exhausted, falling back to cloud")
	resp, err := r.Cloud.Generate(ctx, turns, tools)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return calltypes.Result{}, err
	}
	if len(resp.FunctionCalls) == 0 {
		span.SetStatus(codes.Error, ErrNoValidCalls.Error())
		return calltypes.Result{}, ErrNoValidCalls
	}

	toolMap := schema.NewToolMap(tools)
	calls := schema.Deduplicate(schema.FilterValid(resp.FunctionCalls, toolMap))
	if len(calls) == 0 {
		return calltypes.Result{}, ErrNoValidCalls
	}

	return calltypes.Result{
		FunctionCalls: postProcess(calls, r.Config),
		TotalTimeMs:   time.Since(start).Milliseconds() + resp.TotalTimeMs,
		Confidence:    0,
		Source:        calltypes.SourceCloud,
	}, nil
}

func (r *Router) finish(calls []calltypes.Call, confidence float64, start time.Time, source calltypes.Source) calltypes.Result {
	return calltypes.Result{
		FunctionCalls:   calls,
		TotalTimeMs:     time.Since(start).Milliseconds(),
		Confidence:      confidence,
		Source:          source,
		LocalConfidence: confidence,
	}
}

// recoverMultiIntent implements the §4.I multi-intent recovery: clauses is
// the already-split utterance (len > 1, and direct.Calls fell short of
// len(clauses)). Every clause is re-resolved with the whole utterance's
// proper nouns as extraNouns — the context pool — so that a pronoun in one
// clause ("send him a message") can resolve against a name introduced in a
// sibling clause ("Remind Tom to buy milk"). The split result is merged
// with the direct attempt's calls (any tool the split missed is kept from
// direct) and adopted only if it strictly grows the call count.
func (r *Router) recoverMultiIntent(ctx context.Context, userText string, clauses []string, tools []calltypes.Tool, direct localOutcome) (localOutcome, bool) {
	contextPool := extract.ProperNouns(userText, nil, nil)

	results := make([]localOutcome, len(clauses))
	oks := make([]bool, len(clauses))

	g, gctx := errgroup.WithContext(ctx)
	for i, clause := range clauses {
		i, clause := i, clause
		g.Go(func() error {
			outcome, ok := localResolve(gctx, r.Handle, clause, tools, contextPool, r.Config)
			results[i] = outcome
			oks[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	var splitCalls []calltypes.Call
	var confidenceSum float64
	var confidenceCount int
	for i, ok := range oks {
		if !ok {
			continue
		}
		splitCalls = append(splitCalls, results[i].Calls...)
		confidenceSum += results[i].Confidence
		confidenceCount++
	}

	toolMap := schema.NewToolMap(tools)
	splitCalls = schema.Deduplicate(schema.FilterValid(splitCalls, toolMap))

	merged := mergeCalls(splitCalls, direct.Calls)
	merged = schema.Deduplicate(schema.FilterValid(merged, toolMap))

	if len(merged) <= len(direct.Calls) {
		return localOutcome{}, false
	}

	confidence := direct.Confidence
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}
	return localOutcome{Calls: merged, Confidence: confidence}, true
}

// mergeCalls starts from the split sub-calls and appends each original call
// whose tool name isn't already represented among them, per §4.I step 3.
func mergeCalls(splitCalls, originalCalls []calltypes.Call) []calltypes.Call {
	represented := map[string]bool{}
	for _, c := range splitCalls {
		represented[c.Name] = true
	}
	merged := append([]calltypes.Call{}, splitCalls...)
	for _, c := range originalCalls {
		if !represented[c.Name] {
			merged = append(merged, c)
			represented[c.Name] = true
		}
	}
	return merged
}

// splitConjunctions splits text on conjunctionSplitPattern, strips
// surrounding whitespace from each part (per main.py:959's bare .strip()),
// and keeps only parts strictly longer than minLen.
func splitConjunctions(text string, minLen int) []string {
	rawParts := conjunctionSplitPattern.Split(text, -1)
	out := make([]string, 0, len(rawParts))
	for _, p := range rawParts {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) > minLen {
			out = append(out, trimmed)
		}
	}
	return out
}
