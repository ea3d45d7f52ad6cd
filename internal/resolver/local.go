// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver implements the local resolver (§4.H) and the hybrid
// router wrapping it (§4.I): the pipeline that turns one utterance into a
// list of calltypes.Call, trying progressively cheaper strategies before
// ever reaching for the cloud.
package resolver

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/extract"
	"github.com/switchchat/toolrouter/internal/matcher"
	"github.com/switchchat/toolrouter/internal/modelclient"
	"github.com/switchchat/toolrouter/internal/repair"
	"github.com/switchchat/toolrouter/internal/routerconfig"
	"github.com/switchchat/toolrouter/internal/schema"
	"github.com/switchchat/toolrouter/internal/scoring"
	"github.com/switchchat/toolrouter/internal/telemetry"
)

// localOutcome carries everything one local-resolver call produces, so the
// hybrid router can merge or discard it without re-deriving confidence or
// timing.
type localOutcome struct {
	Calls      []calltypes.Call
	Confidence float64
	ElapsedMs  int64
	Attempt    int
}

// attempt1SystemPrompt is sent only on Attempt 1's free-choice inference
// (main.py:709-712); Attempt 2's single-tool, temperature-0 inference never
// includes it.
const attempt1SystemPrompt = "You are a helpful assistant that can use tools. When the user asks for multiple things, call all the relevant tools. Extract arguments from the user's request exactly as written."

// localResolve runs §4.H's three attempts in order, returning on the first
// one that yields at least one valid call. extraNouns supplements the
// proper-noun pool extract.FromSchema draws from — the hybrid router
// populates it with nouns recovered from sibling clauses of a
// conjunction-split utterance.
func localResolve(ctx context.Context, handle *modelclient.Handle, userText string, tools []calltypes.Tool, extraNouns []string, cfg *routerconfig.Config) (localOutcome, bool) {
	ctx, span := telemetry.Tracer.Start(ctx, "resolver.local_resolve",
		trace.WithAttributes(attribute.Int("tool_count", len(tools))))
	defer span.End()

	start := time.Now()
	toolMap := schema.NewToolMap(tools)

	outcome, prevResponse, ok := attemptFreeChoice(ctx, handle, userText, tools, toolMap, extraNouns, cfg, start)
	if ok {
		span.SetAttributes(attribute.Int("winning_attempt", 1))
		return outcome, true
	}

	// §4.H Attempt 2 target ladder: schema's best tool; failing that,
	// identify_tool_from_text against Attempt 1's raw response text; failing
	// that, the catalog's sole tool if there is exactly one.
	target := matcher.FindBestToolWithCutoff(userText, tools, cfg.ToolRelevanceCutoff)
	reliable := target != nil
	if target == nil {
		target = matcher.IdentifyToolFromText(prevResponse, tools)
	}
	if target == nil && len(tools) == 1 {
		target = &tools[0]
	}

	if target != nil {
		if outcome, ok := attemptSingleTool(ctx, handle, userText, *target, extraNouns, cfg, start); ok {
			span.SetAttributes(attribute.Int("winning_attempt", 2))
			return outcome, true
		}
	}

	if outcome, ok := attemptSchemaOnly(userText, tools, target, reliable, extraNouns, cfg, start); ok {
		span.SetAttributes(attribute.Int("winning_attempt", 3))
		return outcome, true
	}

	span.SetStatus(codes.Error, "no local attempt produced a valid call")
	return localOutcome{}, false
}

// attemptFreeChoice is Attempt 1: the model picks from the full catalog.
// Its tool choice is checked against the schema-override rule, and its
// arguments against the schema-improve rule, before the result is accepted.
// It also returns the model's raw natural-language response text (even on
// failure), since Attempt 2's target ladder falls back to running
// identify_tool_from_text against it when schema matching finds nothing.
func attemptFreeChoice(ctx context.Context, handle *modelclient.Handle, userText string, tools []calltypes.Tool, toolMap schema.ToolMap, extraNouns []string, cfg *routerconfig.Config, start time.Time) (localOutcome, string, bool) {
	calls, confidence, response, ok := runModelAttempt(ctx, handle, userText, tools, toolMap, modelclient.DefaultOptions(), attempt1SystemPrompt)
	recordAttempt(1, ok)
	if !ok {
		return localOutcome{}, response, false
	}

	primary := calls[0]
	queryWords := matcher.QueryWords(userText)
	if modelTool, known := toolMap[primary.Name]; known {
		modelRelevance := matcher.ToolRelevance(modelTool, queryWords)
		if schemaTool := matcher.FindBestToolWithCutoff(userText, tools, cfg.ToolRelevanceCutoff); schemaTool != nil && schemaTool.Name != primary.Name {
			schemaRelevance := matcher.ToolRelevance(*schemaTool, queryWords)
			if modelRelevance < cfg.SchemaOverrideModelRelevanceMax && schemaRelevance > cfg.SchemaOverrideSchemaRelevanceMin {
				// The model picked a tool the schema considers irrelevant while
				// a different tool scores well: discard C1 outright and let
				// Attempt 2/3 recover against the schema's pick, rather than
				// substituting an inline replacement for the rejected tool.
				telemetry.SchemaOverrideTotal.Inc()
				return localOutcome{}, response, false
			}
		}
	}

	// Schema-improve arbitration runs over every call the model returned, not
	// just the first — a multi-tool-call response can have any of its calls
	// replaced independently by a higher-overlap schema-extracted one.
	for i, call := range calls {
		tool, known := toolMap[call.Name]
		if !known {
			continue
		}
		alt, ok := extract.FromSchema(userText, tool, extraNouns)
		if !ok {
			continue
		}
		current := scoring.Overlap([]calltypes.Call{call}, userText, extraNouns)
		improved := scoring.Overlap([]calltypes.Call{alt}, userText, extraNouns)
		if improved > current {
			telemetry.SchemaImproveTotal.Inc()
			calls[i] = alt
		}
	}

	return localOutcome{
		Calls:      postProcess(calls, cfg),
		Confidence: confidence,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Attempt:    1,
	}, response, true
}

// attemptSingleTool is Attempt 2: the model is asked again with exactly one
// tool forced, the one schema matching judged most relevant.
func attemptSingleTool(ctx context.Context, handle *modelclient.Handle, userText string, target calltypes.Tool, extraNouns []string, cfg *routerconfig.Config, start time.Time) (localOutcome, bool) {
	toolMap := schema.NewToolMap([]calltypes.Tool{target})
	zeroTemp := 0.0
	opts := modelclient.DefaultOptions()
	opts.Temperature = &zeroTemp
	calls, confidence, _, ok := runModelAttempt(ctx, handle, userText, []calltypes.Tool{target}, toolMap, opts, "")
	recordAttempt(2, ok)
	if !ok {
		return localOutcome{}, false
	}
	return localOutcome{
		Calls:      postProcess(calls, cfg),
		Confidence: confidence,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Attempt:    2,
	}, true
}

// attemptSchemaOnly is Attempt 3: no model call at all, pure
// extract.FromSchema. If target is non-nil and reliable (it came from
// matcher.FindBestToolWithCutoff, not the identify_tool_from_text or
// single-tool fallbacks), its extraction is returned outright. Otherwise
// the schema extractor runs over every tool in the catalog, the
// highest-overlap-scoring extraction (> 0) is picked as best_all, and
// whichever of target's extraction / best_all scores higher wins — either
// alone wins when the other is absent, per §4.H Attempt 3.
func attemptSchemaOnly(userText string, tools []calltypes.Tool, target *calltypes.Tool, reliable bool, extraNouns []string, cfg *routerconfig.Config, start time.Time) (localOutcome, bool) {
	var targetCall *calltypes.Call
	if target != nil {
		if call, ok := extract.FromSchema(userText, *target, extraNouns); ok {
			targetCall = &call
		}
	}

	if reliable && targetCall != nil {
		recordAttempt(3, true)
		return localOutcome{
			Calls:      postProcess([]calltypes.Call{*targetCall}, cfg),
			Confidence: 0.5,
			ElapsedMs:  time.Since(start).Milliseconds(),
			Attempt:    3,
		}, true
	}

	var bestAll *calltypes.Call
	bestScore := 0
	for i := range tools {
		call, ok := extract.FromSchema(userText, tools[i], extraNouns)
		if !ok {
			continue
		}
		score := scoring.Overlap([]calltypes.Call{call}, userText, extraNouns)
		if score > bestScore {
			bestScore = score
			c := call
			bestAll = &c
		}
	}

	winner := pickHigherScoring(targetCall, bestAll, userText, extraNouns)
	if winner == nil {
		recordAttempt(3, false)
		return localOutcome{}, false
	}
	recordAttempt(3, true)
	return localOutcome{
		Calls:      postProcess([]calltypes.Call{*winner}, cfg),
		Confidence: 0.5,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Attempt:    3,
	}, true
}

// pickHigherScoring returns whichever of a, b has the higher overlap score
// against userText; either alone wins when the other is nil.
func pickHigherScoring(a, b *calltypes.Call, userText string, extraNouns []string) *calltypes.Call {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	scoreA := scoring.Overlap([]calltypes.Call{*a}, userText, extraNouns)
	scoreB := scoring.Overlap([]calltypes.Call{*b}, userText, extraNouns)
	if scoreB > scoreA {
		return b
	}
	return a
}

// runModelAttempt drives one Complete call against handle and runs the
// repair → coerce → filter → dedupe pipeline of §4.A–§4.B/invariant 3 on
// its output. opts lets the caller override the fixed §6 defaults (Attempt
// 2 forces temperature 0 for its single-tool retry). systemPrompt, when
// non-empty, is sent as a leading system message — Attempt 1's quoted
// prompt; Attempt 2 passes "" to omit it. The raw natural-language response
// text is returned alongside the calls whenever the model's output could be
// parsed at all, even if no valid call survived.
func runModelAttempt(ctx context.Context, handle *modelclient.Handle, userText string, tools []calltypes.Tool, toolMap schema.ToolMap, opts modelclient.Options, systemPrompt string) ([]calltypes.Call, float64, string, bool) {
	model, unlock, err := handle.Acquire(ctx)
	if err != nil {
		telemetry.Logger.Error("model handle unavailable", "error", err)
		return nil, 0, "", false
	}
	defer unlock()

	// §5: the handle is not re-entrant — reset before every inference so
	// a prior attempt's context cannot bleed into this one.
	if err := model.Reset(ctx); err != nil {
		telemetry.Logger.Warn("model reset failed", "error", err)
		return nil, 0, "", false
	}

	var messages []modelclient.Message
	if systemPrompt != "" {
		messages = append(messages, modelclient.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, modelclient.Message{Role: "user", Content: userText})
	raw, err := model.Complete(ctx, messages, toModelToolDefs(tools), opts)
	if err != nil {
		telemetry.Logger.Warn("model completion failed", "error", err)
		return nil, 0, "", false
	}

	parsed, ok := repair.Parse(raw)
	if !ok {
		return nil, 0, "", false
	}

	calls := schema.Coerce(parsed.FunctionCalls, toolMap)
	calls = schema.FilterValid(calls, toolMap)
	calls = schema.Deduplicate(calls)
	if len(calls) == 0 {
		return nil, parsed.Confidence, parsed.Response, false
	}
	return calls, parsed.Confidence, parsed.Response, true
}

func recordAttempt(attempt int, found bool) {
	outcome := "empty"
	if found {
		outcome = "calls"
	}
	telemetry.AttemptTotal.WithLabelValues(strconv.Itoa(attempt), outcome).Inc()
}

func toModelToolDefs(tools []calltypes.Tool) []modelclient.ToolDef {
	out := make([]modelclient.ToolDef, len(tools))
	for i, t := range tools {
		props := make(map[string]modelclient.ToolParamDef, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			props[name] = modelclient.ToolParamDef{Type: string(p.Type), Description: p.Description}
		}
		out[i] = modelclient.ToolDef{
			Type: "function",
			Function: modelclient.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters: modelclient.ToolParameters{
					Type:       "object",
					Properties: props,
					Required:   t.Parameters.Required,
				},
			},
		}
	}
	return out
}
