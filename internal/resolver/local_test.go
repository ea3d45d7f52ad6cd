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
	"testing"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/modelclient"
)

// mockModel is a scripted modelclient.Model: each Complete call returns the
// next response in the queue (or the last one, if the queue is exhausted),
// and every call is recorded for assertions about reset/temperature behavior.
type mockModel struct {
	responses  []string
	calls      int
	resetCalls int
	lastOpts   modelclient.Options
}

func (m *mockModel) Complete(ctx context.Context, messages []modelclient.Message, tools []modelclient.ToolDef, opts modelclient.Options) (string, error) {
	m.lastOpts = opts
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return m.responses[idx], nil
}

func (m *mockModel) Reset(ctx context.Context) error {
	m.resetCalls++
	return nil
}

func handleWith(model *mockModel) *modelclient.Handle {
	return modelclient.NewHandle(func(ctx context.Context) (modelclient.Model, error) {
		return model, nil
	})
}

func alarmToolLocal() calltypes.Tool {
	return calltypes.Tool{
		Name:        "set_alarm",
		Description: "Set an alarm for a specific time",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"hour":   {Type: calltypes.ParamTypeInteger},
				"minute": {Type: calltypes.ParamTypeInteger},
			},
			Required: []string{"hour", "minute"},
		},
	}
}

func weatherToolLocal() calltypes.Tool {
	return calltypes.Tool{
		Name:        "get_weather",
		Description: "Get current weather for a location",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"location": {Type: calltypes.ParamTypeString},
			},
			Required: []string{"location"},
		},
	}
}

// S2: Attempt 1 succeeds outright when the model returns a well-formed,
// schema-matching call.
func TestLocalResolveAttempt1Succeeds(t *testing.T) {
	model := &mockModel{responses: []string{`{"function_calls": [{"name": "set_alarm", "arguments": {"hour": 7, "minute": 30}}], "confidence": 0.9}`}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	outcome, ok := localResolve(context.Background(), handle, "Set an alarm for 7:30 AM", []calltypes.Tool{alarmToolLocal()}, nil, cfg)
	if !ok {
		t.Fatal("expected attempt 1 to succeed")
	}
	if outcome.Attempt != 1 {
		t.Errorf("expected winning attempt 1, got %d", outcome.Attempt)
	}
	if model.resetCalls != 1 {
		t.Errorf("expected model.Reset to be called once before the single inference, got %d", model.resetCalls)
	}
}

// Attempt 1's garbage output forces a fall-through to Attempt 2, which must
// run with temperature forced to 0.
func TestLocalResolveAttempt2ForcesZeroTemperature(t *testing.T) {
	model := &mockModel{responses: []string{
		`not even close to json`,
		`{"function_calls": [{"name": "set_alarm", "arguments": {"hour": 7, "minute": 30}}], "confidence": 0.9}`,
	}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	outcome, ok := localResolve(context.Background(), handle, "Set an alarm for 7:30 AM", []calltypes.Tool{alarmToolLocal()}, nil, cfg)
	if !ok {
		t.Fatal("expected attempt 2 to succeed")
	}
	if outcome.Attempt != 2 {
		t.Errorf("expected winning attempt 2, got %d", outcome.Attempt)
	}
	if model.lastOpts.Temperature == nil || *model.lastOpts.Temperature != 0 {
		t.Errorf("expected attempt 2 to force temperature=0, got %+v", model.lastOpts.Temperature)
	}
	if model.resetCalls != 2 {
		t.Errorf("expected model.Reset before each of the two inferences, got %d", model.resetCalls)
	}
}

// When both model attempts fail entirely, Attempt 3 falls back to pure
// schema extraction and never touches the model again.
func TestLocalResolveAttempt3SchemaOnlyFallback(t *testing.T) {
	model := &mockModel{responses: []string{
		`garbage`,
		`garbage`,
	}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	outcome, ok := localResolve(context.Background(), handle, "What is the weather in Boston?", []calltypes.Tool{weatherToolLocal()}, nil, cfg)
	if !ok {
		t.Fatal("expected attempt 3 (schema-only) to succeed")
	}
	if outcome.Attempt != 3 {
		t.Errorf("expected winning attempt 3, got %d", outcome.Attempt)
	}
	if outcome.Confidence != 0.5 {
		t.Errorf("expected fixed attempt-3 confidence 0.5, got %v", outcome.Confidence)
	}
}

// Invariant 8 / §4.H Attempt 3: when both model attempts are empty and no
// tool clears the relevance cutoff (every word of this utterance except
// "boston" is a stop word, so no tool is "reliable"), the schema extractor
// runs across every tool and the highest-overlap-scoring extraction wins,
// even though the catalog holds an unrelated tool too.
func TestLocalResolveAttempt3PicksHighestOverlapAcrossTools(t *testing.T) {
	model := &mockModel{responses: []string{`garbage`, `garbage`}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	tools := []calltypes.Tool{weatherToolLocal(), alarmToolLocal()}
	outcome, ok := localResolve(context.Background(), handle, "How is it in Boston?", tools, nil, cfg)
	if !ok {
		t.Fatal("expected attempt 3 to recover a call across the catalog")
	}
	if outcome.Attempt != 3 {
		t.Errorf("expected winning attempt 3, got %d", outcome.Attempt)
	}
	if len(outcome.Calls) != 1 || outcome.Calls[0].Name != "get_weather" {
		t.Fatalf("expected get_weather to win on overlap score, got %+v", outcome.Calls)
	}
}

// S5: when Attempt 1's model picks a tool the schema considers irrelevant
// (m_rel below the override's model-relevance ceiling) while a different
// tool in the catalog scores well above the schema-relevance floor, the
// override must discard Attempt 1's call entirely and let Attempt 2 recover
// against the schema's pick — never substitute an inline replacement for
// the rejected tool.
func TestLocalResolveSchemaOverrideDiscardsAndFallsThrough(t *testing.T) {
	model := &mockModel{responses: []string{
		`{"function_calls": [{"name": "get_weather", "arguments": {"location": "Boston"}}], "confidence": 0.9}`,
		`{"function_calls": [{"name": "set_alarm", "arguments": {"hour": 7, "minute": 30}}], "confidence": 0.9}`,
	}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	tools := []calltypes.Tool{weatherToolLocal(), alarmToolLocal()}
	outcome, ok := localResolve(context.Background(), handle, "Set an alarm for 7:30 AM", tools, nil, cfg)
	if !ok {
		t.Fatal("expected attempt 2 to recover after the schema override discarded attempt 1")
	}
	if outcome.Attempt != 2 {
		t.Errorf("expected winning attempt 2, got %d", outcome.Attempt)
	}
	if len(outcome.Calls) != 1 || outcome.Calls[0].Name != "set_alarm" {
		t.Fatalf("expected set_alarm, got %+v", outcome.Calls)
	}
}

// When every attempt fails, localResolve reports failure so the hybrid
// router knows to fall back to the cloud.
func TestLocalResolveAllAttemptsFail(t *testing.T) {
	model := &mockModel{responses: []string{`garbage`, `garbage`}}
	handle := handleWith(model)
	cfg := mustConfig(t)

	// "channel" is a blacklisted param (§4.F) — phase 4 will never fill it
	// from leftover text, so schema-only extraction cannot produce a valid
	// call unless the utterance carries a #channel or @handle token, and
	// this one has none.
	tool := calltypes.Tool{
		Name: "totally_unrelated_tool",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{"channel": {Type: calltypes.ParamTypeString}},
			Required:   []string{"channel"},
		},
	}
	_, ok := localResolve(context.Background(), handle, "zzz qqq blorp", []calltypes.Tool{tool}, nil, cfg)
	if ok {
		t.Fatal("expected all attempts to fail when the only required param is blacklisted from remainder-fill")
	}
}
