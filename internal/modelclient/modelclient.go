// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package modelclient abstracts the on-device model the resolver drives.
// It generalizes the reference implementation's module-level cactus model
// global (lazily initialized on first use, torn down at process exit) into
// an explicit, mutex-guarded handle any number of resolver calls can share
// safely, following the provider lifecycle shape in
// services/trace/agent/providers/interfaces.go.
//
// Thread Safety:
//
//	Handle itself serializes access to the underlying model via an
//	internal mutex, matching §5's "the resolver itself holds no locks —
//	callers running the resolver from multiple tasks must serialise
//	access to the handle."
package modelclient

import (
	"context"
	"sync"
)

// Options carries the inference parameters §6 fixes for every model call:
// forced tool use, a token ceiling, stop sequences, and the knobs the
// resolver varies per attempt (Temperature).
type Options struct {
	ForceTools          bool
	MaxTokens           int
	StopSequences       []string
	Temperature         *float64
	ToolRAGTopK         int
	ConfidenceThreshold float64
}

// DefaultOptions returns the fixed inference options from §6, before any
// per-attempt override.
func DefaultOptions() Options {
	return Options{
		ForceTools:          true,
		MaxTokens:           512,
		StopSequences:       []string{"<|im_end|>", "<end_of_turn>"},
		ToolRAGTopK:         0,
		ConfidenceThreshold: 0.0,
	}
}

// Model is the minimal on-device inference contract: complete a tool-aware
// chat turn, and reset so prior context cannot bleed into the next call.
// Implementations are not required to be safe for concurrent use — Handle
// is what provides that guarantee to callers.
type Model interface {
	// Complete drives one inference call and returns the model's raw JSON
	// response string, before any repair.
	Complete(ctx context.Context, messages []Message, tools []ToolDef, opts Options) (string, error)

	// Reset clears any per-conversation state the model holds, so the
	// next Complete call starts clean.
	Reset(ctx context.Context) error
}

// Message is a provider-agnostic chat turn, mirroring calltypes.Turn but
// kept independent so this package never needs to import the resolver's
// own data model.
type Message struct {
	Role    string
	Content string
}

// ToolDef is the wire-format tool definition passed to Complete — the
// model-facing equivalent of calltypes.Tool, expressed as the
// {type:"function", function:{...}} envelope the on-device model expects.
type ToolDef struct {
	Type     string
	Function ToolFunction
}

type ToolFunction struct {
	Name        string
	Description string
	Parameters  ToolParameters
}

type ToolParameters struct {
	Type       string
	Properties map[string]ToolParamDef
	Required   []string
}

type ToolParamDef struct {
	Type        string
	Description string
}

// Factory constructs a Model on first use. Splitting construction from the
// Handle lets tests inject a mock oracle without the Handle package
// needing to know about any concrete model backend.
type Factory func(ctx context.Context) (Model, error)

// Handle is the process-wide, lazily initialized model owner described in
// §5. It is the Go analogue of the reference implementation's
// _get_cactus_model/_cleanup_cactus_model globals, generalized from a bare
// package-level variable into a struct so tests can construct an isolated
// instance instead of sharing hidden global state.
type Handle struct {
	factory Factory

	once  sync.Once
	initErr error
	model Model

	mu sync.Mutex
}

// NewHandle returns a Handle that will call factory exactly once, on the
// first Acquire, to construct the underlying Model.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Acquire returns the underlying model, initializing it on first call.
// The returned unlock function must be called exactly once when the
// caller is done; it releases the handle's mutex, not the model's memory.
func (h *Handle) Acquire(ctx context.Context) (Model, func(), error) {
	h.once.Do(func() {
		h.model, h.initErr = h.factory(ctx)
	})
	if h.initErr != nil {
		return nil, func() {}, h.initErr
	}
	h.mu.Lock()
	return h.model, h.mu.Unlock, nil
}

// Close releases the model, if one was ever initialized. Entrypoints
// should defer this once at startup (cmd/toolrouter, cmd/toolrouterd),
// matching the reference implementation's atexit.register(_cleanup_...).
type closer interface {
	Close(ctx context.Context) error
}

func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return nil
	}
	if c, ok := h.model.(closer); ok {
		return c.Close(ctx)
	}
	return nil
}
