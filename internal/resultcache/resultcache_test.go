// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resultcache

import (
	"context"
	"testing"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

func TestNilStoreIsAlwaysMiss(t *testing.T) {
	var s *Store
	result, hit, err := s.Get(context.Background(), "corpus", "utterance")
	if err != nil {
		t.Fatalf("expected nil *Store Get to never error, got %v", err)
	}
	if hit {
		t.Error("expected nil *Store Get to always miss")
	}
	if len(result.FunctionCalls) != 0 || result.Source != "" {
		t.Errorf("expected zero-value Result on miss, got %+v", result)
	}
	if err := s.Put(context.Background(), "corpus", "utterance", calltypes.Result{}); err != nil {
		t.Errorf("expected nil *Store Put to silently succeed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("expected nil *Store Close to silently succeed, got %v", err)
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()

	result := calltypes.Result{
		FunctionCalls: []calltypes.Call{{
			Name:      "get_weather",
			Arguments: map[string]calltypes.Value{"location": calltypes.StringValue("Boston")},
		}},
		Confidence: 0.9,
		Source:     calltypes.SourceOnDevice,
	}

	corpusHash := "abc123"
	utterance := "What's the weather in Boston?"

	if err := store.Put(context.Background(), corpusHash, utterance, result); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, hit, err := store.Get(context.Background(), corpusHash, utterance)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit after Put")
	}
	if len(got.FunctionCalls) != 1 || got.FunctionCalls[0].Name != "get_weather" {
		t.Errorf("expected round-tripped call, got %+v", got.FunctionCalls)
	}
	if got.FunctionCalls[0].Arguments["location"].S != "Boston" {
		t.Errorf("expected round-tripped argument value, got %+v", got.FunctionCalls[0].Arguments["location"])
	}
	if got.Confidence != 0.9 {
		t.Errorf("expected round-tripped confidence, got %v", got.Confidence)
	}
}

func TestGetMissOnUnknownKey(t *testing.T) {
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer store.Close()

	_, hit, err := store.Get(context.Background(), "nope", "never put")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if hit {
		t.Error("expected a miss for a key that was never put")
	}
}

func TestCorpusHashStableUnderReordering(t *testing.T) {
	tools := []calltypes.Tool{
		{Name: "get_weather", Parameters: calltypes.Parameters{Properties: map[string]calltypes.ParamSchema{"location": {Type: calltypes.ParamTypeString}}}},
		{Name: "set_alarm", Parameters: calltypes.Parameters{Properties: map[string]calltypes.ParamSchema{"hour": {Type: calltypes.ParamTypeInteger}}}},
	}
	reordered := []calltypes.Tool{tools[1], tools[0]}

	if CorpusHash(tools) != CorpusHash(reordered) {
		t.Error("expected CorpusHash to be stable under catalog reordering")
	}
}

func TestCorpusHashDiffersOnToolSetChange(t *testing.T) {
	a := []calltypes.Tool{{Name: "get_weather"}}
	b := []calltypes.Tool{{Name: "get_weather"}, {Name: "set_alarm"}}
	if CorpusHash(a) == CorpusHash(b) {
		t.Error("expected different tool sets to hash differently")
	}
}
