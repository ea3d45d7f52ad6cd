// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

// ToolExecutor runs a resolved Call against whatever backs a tool name —
// the Notion/Slack/system integrations themselves, per §1's "only their
// schemas matter here". No implementation lives in this module; a caller
// wires one in if it wants resolved calls actually executed.
type ToolExecutor interface {
	Execute(ctx context.Context, call calltypes.Call) (result any, err error)
}

// ExecutorRegistry dispatches a Call to the ToolExecutor registered for its
// tool name, or ErrNoExecutor if none was registered.
type ExecutorRegistry struct {
	executors map[string]ToolExecutor
}

// NewExecutorRegistry returns an empty registry ready for Register calls.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: map[string]ToolExecutor{}}
}

// Register associates a tool name with the executor that should run it.
func (r *ExecutorRegistry) Register(toolName string, executor ToolExecutor) {
	r.executors[toolName] = executor
}

// Execute dispatches call to its registered executor.
func (r *ExecutorRegistry) Execute(ctx context.Context, call calltypes.Call) (any, error) {
	executor, ok := r.executors[call.Name]
	if !ok {
		return nil, ErrNoExecutor
	}
	return executor.Execute(ctx, call)
}
