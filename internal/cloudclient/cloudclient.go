// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cloudclient abstracts the cloud fallback the hybrid router calls
// when every local strategy fails. The router treats it as an opaque
// callable per §1/§6; this package only defines that contract plus the
// secret-redaction every outbound adapter should apply before logging.
package cloudclient

import (
	"context"
	"regexp"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

// Response is what cloud_generate returns per §6: a call list, the
// provider's free-text response (if any), and its own elapsed time —
// added to the caller's cumulative total_time_ms, not replacing it.
type Response struct {
	FunctionCalls []calltypes.Call
	ResponseText  string
	TotalTimeMs   int64
}

// Generator is the cloud fallback contract. Implementations are
// responsible for translating calltypes.Tool into whatever schema format
// their provider expects (the reference implementation does this for
// Gemini's types.Schema); the resolver package never sees that
// translation.
type Generator interface {
	Generate(ctx context.Context, turns []calltypes.Turn, tools []calltypes.Tool) (Response, error)
}

// redactionPattern pairs a compiled regex with a replacement label, the
// same shape services/llm/redaction.go uses, so any request/response body
// this adapter logs never leaks a credential.
type redactionPattern struct {
	pattern     *regexp.Regexp
	replacement string
}

// redactionPatterns is deliberately ordered most-specific-first: the
// Anthropic key pattern must precede the OpenAI one because both begin
// with "sk-", and a Gemini key is matched before the generic bearer/query
// patterns that would otherwise swallow part of it.
var redactionPatterns = []redactionPattern{
	{regexp.MustCompile(`sk-ant-api03-[A-Za-z0-9_-]{20,}`), "[REDACTED:anthropic_key]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "[REDACTED:openai_key]"},
	{regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`), "[REDACTED:gemini_key]"},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`), "[REDACTED:bearer_token]"},
	{regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`), "key=[REDACTED]"},
}

// SafeLogString redacts known secret patterns from s before it reaches a
// log line. Pattern-based only — it cannot catch a secret in a format it
// doesn't recognize.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.pattern.ReplaceAllString(s, p.replacement)
	}
	return s
}
