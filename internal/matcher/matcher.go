// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package matcher ranks tools against a query by schema word overlap. It
// has no statistical model behind it — relevance is a similarity count
// normalized by schema size, deliberately simple so the same query against
// the same catalog always scores identically.
package matcher

import (
	"strings"

	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/textutil"
)

// relevanceCutoff is the minimum score find_best_tool will accept before
// returning a winner; below it, no tool is considered relevant enough.
const relevanceCutoff = 0.05

// Synonyms is the fixed query-word expansion map from §4.D: a query word
// found here also counts as a match against its mapped schema word.
var Synonyms = map[string]string{
	"text":  "message",
	"mail":  "message",
	"wake":  "alarm",
	"tune":  "music",
	"track": "music",
	"song":  "music",
}

// SchemaWords builds the schema-derived word set for a tool: snake-case
// splits of its name, tokens of its description, parameter-name splits,
// and tokens of every parameter description — minus stop words.
func SchemaWords(tool calltypes.Tool) map[string]bool {
	words := map[string]bool{}
	for _, w := range textutil.SplitWords(tool.Name) {
		words[w] = true
	}
	for _, w := range textutil.Tokenize(tool.Description) {
		words[w] = true
	}
	for pname, pschema := range tool.Parameters.Properties {
		for _, w := range textutil.SplitWords(pname) {
			words[w] = true
		}
		for _, w := range textutil.Tokenize(pschema.Description) {
			words[w] = true
		}
	}
	for w := range textutil.StopWords {
		delete(words, w)
	}
	return words
}

// ToolRelevance scores a tool against a set of query words, in [0,1].
// queryWords is first expanded with Synonyms, then each expanded word is
// checked for a textutil.Similar partner among the tool's schema words;
// the score is matches / max(|schema words|, 1).
func ToolRelevance(tool calltypes.Tool, queryWords map[string]bool) float64 {
	toolWords := SchemaWords(tool)

	expanded := map[string]bool{}
	for w := range queryWords {
		if textutil.StopWords[w] {
			continue
		}
		expanded[w] = true
		if syn, ok := Synonyms[w]; ok {
			expanded[syn] = true
		}
	}

	matches := 0
	for qw := range expanded {
		for tw := range toolWords {
			if textutil.Similar(qw, tw) {
				matches++
				break
			}
		}
	}

	denom := len(toolWords)
	if denom == 0 {
		denom = 1
	}
	return float64(matches) / float64(denom)
}

// QueryWords tokenizes text into the set ToolRelevance expects.
func QueryWords(text string) map[string]bool {
	words := map[string]bool{}
	for _, w := range textutil.Tokenize(text) {
		words[w] = true
	}
	return words
}

// FindBestTool returns the tool with the highest relevance to text, or nil
// if the best score does not exceed the default relevanceCutoff. Tools are
// walked in slice order; the first tool to reach a new maximum wins ties.
func FindBestTool(text string, tools []calltypes.Tool) *calltypes.Tool {
	return FindBestToolWithCutoff(text, tools, relevanceCutoff)
}

// FindBestToolWithCutoff is FindBestTool with a caller-supplied cutoff, so
// routerconfig.Config.ToolRelevanceCutoff can override the §4.D default of
// 0.05 without duplicating the scoring loop.
func FindBestToolWithCutoff(text string, tools []calltypes.Tool, cutoff float64) *calltypes.Tool {
	queryWords := QueryWords(text)
	var best *calltypes.Tool
	bestScore := 0.0
	for i := range tools {
		score := ToolRelevance(tools[i], queryWords)
		if score > bestScore {
			bestScore = score
			best = &tools[i]
		}
	}
	if bestScore > cutoff {
		return best
	}
	return nil
}

// IdentifyToolFromText counts, for each tool, how many of its name segments
// appear as a case-insensitive substring of text, and returns the tool with
// the highest count (ties broken by catalog order). Returns nil if every
// tool scores zero.
func IdentifyToolFromText(text string, tools []calltypes.Tool) *calltypes.Tool {
	lower := strings.ToLower(text)
	var best *calltypes.Tool
	bestCount := 0
	for i := range tools {
		parts := textutil.SplitWords(tools[i].Name)
		count := 0
		for _, p := range parts {
			if strings.Contains(lower, p) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = &tools[i]
		}
	}
	return best
}
