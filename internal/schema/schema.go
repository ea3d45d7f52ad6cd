// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema type-casts raw call arguments against a tool catalog and
// filters/deduplicates the result. It never aborts on a bad value — a cast
// failure just leaves the value as-is, and a call that still doesn't
// satisfy its tool's required parameters is dropped rather than erroring.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/repair"
)

// ToolMap indexes a catalog by name for O(1) lookup during coercion and
// filtering.
type ToolMap map[string]calltypes.Tool

// NewToolMap builds a ToolMap from a catalog slice.
func NewToolMap(tools []calltypes.Tool) ToolMap {
	m := make(ToolMap, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return m
}

// Coerce casts each raw call's argument values to match its tool's declared
// parameter types, per §4.B. Calls naming a tool absent from the map are
// passed through unchanged — filtering, not coercion, is where they get
// dropped. A value nested as {key: value} under its own parameter name is
// unwrapped first, matching the model's occasional tendency to nest.
func Coerce(raw []repair.RawCall, tools ToolMap) []calltypes.Call {
	out := make([]calltypes.Call, 0, len(raw))
	for _, rc := range raw {
		tool, ok := tools[rc.Name]
		if !ok {
			out = append(out, calltypes.Call{Name: rc.Name, Arguments: coerceUnknown(rc.Arguments)})
			continue
		}
		args := make(map[string]calltypes.Value, len(rc.Arguments))
		for key, value := range rc.Arguments {
			propSchema, known := tool.Parameters.Properties[key]
			if !known {
				continue
			}
			if nested, isMap := value.(map[string]any); isMap {
				if inner, exists := nested[key]; exists {
					value = inner
				}
			}
			args[key] = coerceValue(value, propSchema.Type)
		}
		out = append(out, calltypes.Call{Name: rc.Name, Arguments: args})
	}
	return out
}

// coerceUnknown passes arguments through as best-guess Values when the tool
// name doesn't resolve — such a call is filtered out downstream anyway, but
// it still needs a Call shape to flow through the pipeline uniformly.
func coerceUnknown(raw map[string]any) map[string]calltypes.Value {
	out := make(map[string]calltypes.Value, len(raw))
	for k, v := range raw {
		out[k] = guessValue(v)
	}
	return out
}

func guessValue(v any) calltypes.Value {
	switch t := v.(type) {
	case bool:
		return calltypes.BoolValue(t)
	case string:
		return calltypes.StringValue(t)
	case float64:
		return calltypes.FloatValue(t)
	case int:
		return calltypes.IntValue(int64(t))
	default:
		return calltypes.NullValue
	}
}

// coerceValue casts v per the parameter's declared type. A cast failure
// leaves the original value untouched (best-effort guess via guessValue),
// matching the reference implementation's bare "except: pass".
func coerceValue(v any, want calltypes.ParamType) calltypes.Value {
	switch want {
	case calltypes.ParamTypeInteger:
		if n, ok := toInt(v); ok {
			if n < 0 {
				n = -n
			}
			return calltypes.IntValue(n)
		}
	case calltypes.ParamTypeNumber:
		if f, ok := toFloat(v); ok {
			return calltypes.FloatValue(f)
		}
	case calltypes.ParamTypeBoolean:
		if b, ok := v.(bool); ok {
			return calltypes.BoolValue(b)
		}
		s := fmt.Sprintf("%v", v)
		lower := strings.ToLower(s)
		return calltypes.BoolValue(lower == "true" || lower == "1" || lower == "yes")
	case calltypes.ParamTypeString:
		if s, ok := v.(string); ok {
			return calltypes.StringValue(s)
		}
		return calltypes.StringValue(fmt.Sprintf("%v", v))
	}
	return guessValue(v)
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// FilterValid keeps only calls whose name resolves in the catalog and whose
// tool's required parameters are all present and valid under
// calltypes.Value.IsValid — §4.B's filter stage and invariants 1 and 2.
func FilterValid(calls []calltypes.Call, tools ToolMap) []calltypes.Call {
	out := make([]calltypes.Call, 0, len(calls))
	for _, c := range calls {
		tool, ok := tools[c.Name]
		if !ok {
			continue
		}
		valid := true
		for _, req := range tool.Parameters.Required {
			v, present := c.Arguments[req]
			if !present || !v.IsValid() {
				valid = false
				break
			}
		}
		if valid {
			out = append(out, c)
		}
	}
	return out
}

// Deduplicate keeps the first occurrence of each call under its
// (name, canonical-JSON(arguments)) key — invariant 3.
func Deduplicate(calls []calltypes.Call) []calltypes.Call {
	seen := make(map[string]bool, len(calls))
	out := make([]calltypes.Call, 0, len(calls))
	for _, c := range calls {
		key := c.CanonicalKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
