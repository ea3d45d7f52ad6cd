// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package calltypes defines the provider-agnostic data model shared by every
// stage of the local tool-call resolver: the tool catalog, chat turns, the
// arguments a call carries, and the result handed back to the caller.
//
// Thread Safety:
//
//	All types in this package are treated as immutable after construction.
//	None of them are safe to mutate concurrently; construct a fresh value
//	per request instead of sharing one across goroutines.
package calltypes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParamType enumerates the JSON-Schema primitive types a tool parameter may
// declare.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeInteger ParamType = "integer"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeObject  ParamType = "object"
	ParamTypeArray   ParamType = "array"
)

// ParamSchema describes a single tool parameter in JSON-Schema terms.
type ParamSchema struct {
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// Parameters is the object schema attached to a Tool: a property map plus
// the ordered list of parameter names that must be present on every call.
//
// Description:
//
//	Required is kept as a slice, not a set, so the declared order of the
//	required names survives. Properties is a map, which has no order, so
//	PropertyOrder carries the declaration order separately — §4.F's integer
//	phase assigns values in that order. UnmarshalJSON populates it by
//	walking the "properties" object's keys token by token instead of
//	handing off to the default map decoder.
type Parameters struct {
	Properties    map[string]ParamSchema `json:"properties"`
	PropertyOrder []string               `json:"-"`
	Required      []string               `json:"required,omitempty"`
}

// UnmarshalJSON decodes Parameters the way encoding/json would by default,
// except that it also records the "properties" object's key order into
// PropertyOrder — information the default map-keyed decode discards.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var aux struct {
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Required = aux.Required
	p.Properties = map[string]ParamSchema{}
	p.PropertyOrder = nil
	if len(aux.Properties) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(aux.Properties))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("calltypes: decoding properties: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("calltypes: properties must be a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("calltypes: decoding property key: %w", err)
		}
		key, _ := keyTok.(string)
		var schema ParamSchema
		if err := dec.Decode(&schema); err != nil {
			return fmt.Errorf("calltypes: decoding property %q: %w", key, err)
		}
		p.Properties[key] = schema
		p.PropertyOrder = append(p.PropertyOrder, key)
	}
	return nil
}

// Tool is an immutable record describing one callable operation: a
// snake-case name, a free-text description, and its parameter schema.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// RequiredOrdered returns the tool's required parameter names in the order
// they were declared. Safe to call on a zero-value Tool.
func (t Tool) RequiredOrdered() []string {
	return t.Parameters.Required
}

// PropertyOrder returns the tool's parameter names in schema-declaration
// order, as recorded by Parameters.UnmarshalJSON. A Tool built as a Go
// literal rather than decoded from JSON never populates that order, so this
// falls back to a sorted name list for that case only — deterministic, but
// not declaration order, since a literal has none to recover.
func (t Tool) PropertyOrder() []string {
	if len(t.Parameters.PropertyOrder) == len(t.Parameters.Properties) {
		return t.Parameters.PropertyOrder
	}
	names := make([]string, 0, len(t.Parameters.Properties))
	for name := range t.Parameters.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Turn is one message in an utterance. Only turns with Role == "user"
// contribute to the query text the resolver operates on.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryText concatenates the content of every user turn with single-space
// joins, preserving original casing. Non-user turns (system, assistant,
// tool) are ignored — they exist for model context, not extraction.
func QueryText(turns []Turn) string {
	var parts []string
	for _, t := range turns {
		if t.Role == "user" && t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return strings.Join(parts, " ")
}

// Value is a tagged sum type for a coerced argument value: at most one of
// the typed fields is meaningful, selected by Kind. This stands in for the
// dynamically-typed scalar the reference implementation passes around,
// per the design note on dynamic typing → tagged variants.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	F    float64
	S    string
}

// ValueKind discriminates which field of Value holds the live value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// NullValue is the canonical null Value, used by callers building arguments
// without constructing a zero Value by hand.
var NullValue = Value{Kind: KindNull}

func BoolValue(v bool) Value   { return Value{Kind: KindBool, B: v} }
func IntValue(v int64) Value   { return Value{Kind: KindInt, I: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, F: v} }
func StringValue(v string) Value { return Value{Kind: KindString, S: v} }

// IsValid implements the §4.B predicate valid(v) = v is not null and not
// (v is ""). Zero and false are valid; an empty string is not.
func (v Value) IsValid() bool {
	if v.Kind == KindNull {
		return false
	}
	if v.Kind == KindString && v.S == "" {
		return false
	}
	return true
}

// Raw returns the value as a plain Go value suitable for json.Marshal or
// for canonical-JSON key construction.
func (v Value) Raw() any {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return v.S
	default:
		return nil
	}
}

// MarshalJSON renders the tagged Value as the plain JSON scalar it
// represents, so Call.Arguments serializes the way the wire format and the
// model both expect — there is no {"kind":...} wrapper on the wire.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// Call is {name, arguments}, where arguments maps parameter name to a
// coerced scalar Value.
type Call struct {
	Name      string           `json:"name"`
	Arguments map[string]Value `json:"arguments"`
}

// CanonicalKey returns the (name, canonical-JSON(arguments)) identity used
// throughout §4.B/§4.I deduplication: argument keys are sorted so that
// insertion order never affects equality.
func (c Call) CanonicalKey() string {
	if len(c.Arguments) == 0 {
		return c.Name + "|{}"
	}
	keys := make([]string, 0, len(c.Arguments))
	for k := range c.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('|')
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		raw, _ := json.Marshal(c.Arguments[k].Raw())
		fmt.Fprintf(&b, "%q:%s", k, raw)
	}
	b.WriteByte('}')
	return b.String()
}

// Source identifies whether a Result came from the on-device model or the
// cloud fallback.
type Source string

const (
	SourceOnDevice Source = "on-device"
	SourceCloud    Source = "cloud (fallback)"
)

// Result is the resolution outcome handed back to the caller: built once
// per request and never mutated after return.
type Result struct {
	FunctionCalls    []Call  `json:"function_calls"`
	TotalTimeMs      int64   `json:"total_time_ms"`
	Confidence       float64 `json:"confidence,omitempty"`
	Source           Source  `json:"source"`
	LocalConfidence  float64 `json:"local_confidence,omitempty"`
}
