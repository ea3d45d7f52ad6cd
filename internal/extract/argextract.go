// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"strconv"
	"strings"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

// blacklistParams names string parameters phase 4 must never fill with
// leftover text, because they require an ID or a specific token rather
// than free text.
var blacklistParams = map[string]bool{
	"channel": true, "id": true, "url": true, "uri": true, "email": true,
	"phone": true, "uuid": true, "database_id": true, "block_id": true,
	"page_id": true,
}

// timeKeywords, locationKeywords, etc. classify a string parameter by
// matching against (description + " " + name), lowercased. Categories are
// tried in this fixed order; the first hit wins.
var (
	timeKeywords     = []string{"time", "when", "schedule"}
	locationKeywords = []string{"location", "city", "place"}
	nameKeywords     = []string{"name", "person", "contact", "recipient"}
	personKeywords   = []string{"person", "contact", "recipient"}
	contentKeywords  = []string{"content", "message", "text", "query"}
	titleKeywords    = []string{"title", "subject", "topic"}
	handleKeywords   = []string{"channel", "mention", "recipient"}
)

// FromSchema runs the four-phase argument extractor of §4.F against a
// single tool and returns the resulting Call, or false if any required
// parameter ends up missing or invalid. extraNouns supplements the
// locally-extracted proper-noun pool (cross-clause context propagation for
// the hybrid router's conjunction-split recovery).
func FromSchema(userText string, tool calltypes.Tool, extraNouns []string) (calltypes.Call, bool) {
	stripSet, schemaWords := BuildStripSet(tool)
	words := strings.Fields(userText)
	lowerText := strings.ToLower(userText)
	args := map[string]calltypes.Value{}

	// Phase 1: integers, assigned in schema-declaration order.
	numbers := collectIntegers(words)
	intParams := orderedParamsOfType(tool, calltypes.ParamTypeInteger)
	for i, pname := range intParams {
		if i < len(numbers) {
			n := numbers[i]
			if n < 0 {
				n = -n
			}
			args[pname] = calltypes.IntValue(int64(n))
		} else {
			args[pname] = calltypes.IntValue(0)
		}
	}

	// Phase 2: proper nouns, local and pooled with extraNouns.
	localNouns := ProperNouns(userText, stripSet, schemaWords)
	allNouns := append([]string{}, localNouns...)
	existing := lowerSet(allNouns)
	for _, en := range extraNouns {
		if !existing[strings.ToLower(en)] {
			allNouns = append(allNouns, en)
			existing[strings.ToLower(en)] = true
		}
	}
	pnUsed := map[string]bool{}

	// Phase 3: string parameters by description category.
	strParams := orderedParamsOfType(tool, calltypes.ParamTypeString)
	contentMarkerPos := len(userText)

	for _, pname := range strParams {
		pschema := tool.Parameters.Properties[pname]
		desc := strings.ToLower(pschema.Description + " " + pname)

		if hasAny(desc, timeKeywords) {
			if v, ok := extractTime(userText, lowerText); ok {
				args[pname] = calltypes.StringValue(v)
				continue
			}
		}

		if hasAny(desc, locationKeywords) {
			if v, ok := extractLocation(userText, lowerText); ok {
				args[pname] = calltypes.StringValue(v)
				continue
			}
		}

		if hasAny(desc, nameKeywords) {
			isPerson := hasAny(desc, personKeywords)
			pool := localNouns
			if isPerson {
				pool = allNouns
			}
			found := false
			for _, pn := range pool {
				if !pnUsed[pn] {
					args[pname] = calltypes.StringValue(pn)
					pnUsed[pn] = true
					found = true
					break
				}
			}
			if found {
				continue
			}
		}

		if hasAny(desc, contentKeywords) {
			if v, idx, ok := extractContent(userText, lowerText); ok {
				if idx < contentMarkerPos {
					contentMarkerPos = idx
				}
				args[pname] = calltypes.StringValue(v)
				continue
			}
		}

		if hasAny(desc, titleKeywords) {
			if v, ok := extractTitle(userText, lowerText); ok {
				args[pname] = calltypes.StringValue(v)
				continue
			}
		}

		if hasAny(desc, handleKeywords) {
			if v, ok := extractHandle(words); ok {
				args[pname] = calltypes.StringValue(v)
				continue
			}
		}
	}

	// Phase 4: remaining text, restricted to the prefix before the content
	// marker, fills the first still-unfilled non-blacklisted string param.
	remaining := extractRemaining(userText[:contentMarkerPos], stripSet, schemaWords, pnUsed)
	for _, pname := range strParams {
		if _, already := args[pname]; already {
			continue
		}
		if remaining == "" {
			break
		}
		if blacklistParams[strings.ToLower(pname)] {
			continue
		}
		args[pname] = calltypes.StringValue(remaining)
		remaining = ""
	}

	for _, req := range tool.Parameters.Required {
		v, ok := args[req]
		if !ok || !v.IsValid() {
			return calltypes.Call{}, false
		}
	}
	return calltypes.Call{Name: tool.Name, Arguments: args}, true
}

func orderedParamsOfType(tool calltypes.Tool, want calltypes.ParamType) []string {
	var out []string
	for _, pname := range tool.PropertyOrder() {
		if tool.Parameters.Properties[pname].Type == want {
			out = append(out, pname)
		}
	}
	return out
}

func hasAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func lowerSet(words []string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[strings.ToLower(w)] = true
	}
	return out
}

const trimCutsetNoQuotes = ".,!?;:"

// collectIntegers gathers bare digit tokens, then colon-separated digit
// pairs (contributing both parts, in order) — so "7:30" yields [7, 30].
func collectIntegers(words []string) []int {
	var numbers []int
	for _, w := range words {
		cleaned := strings.Trim(w, trimCutsetNoQuotes)
		if cleaned != "" && isAllDigits(cleaned) {
			if n, err := strconv.Atoi(cleaned); err == nil {
				numbers = append(numbers, n)
			}
		}
	}
	for _, w := range words {
		cleaned := strings.Trim(w, trimCutsetNoQuotes)
		if strings.Contains(cleaned, ":") {
			parts := strings.Split(cleaned, ":")
			if len(parts) == 2 && isAllDigits(parts[0]) && isAllDigits(parts[1]) {
				a, errA := strconv.Atoi(parts[0])
				b, errB := strconv.Atoi(parts[1])
				if errA == nil && errB == nil {
					numbers = append(numbers, a, b)
				}
			}
		}
	}
	return numbers
}

func extractTime(userText, lowerText string) (string, bool) {
	idx := strings.Index(lowerText, " at ")
	if idx < 0 {
		return "", false
	}
	after := userText[idx+len(" at "):]
	var parts []string
	for _, tw := range strings.Fields(after) {
		cleaned := strings.Trim(tw, trimCutsetNoQuotes)
		if cleaned != "" && (isDigitStart(cleaned) || strings.EqualFold(cleaned, "AM") || strings.EqualFold(cleaned, "PM")) {
			parts = append(parts, cleaned)
		} else if len(parts) > 0 {
			break
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

func isDigitStart(s string) bool {
	return s[0] >= '0' && s[0] <= '9'
}

func extractLocation(userText, lowerText string) (string, bool) {
	for _, prep := range []string{" in ", " at "} {
		idx := strings.Index(lowerText, prep)
		if idx < 0 {
			continue
		}
		after := strings.TrimSpace(userText[idx+len(prep):])
		for _, endMarker := range []string{" and ", ", ", " saying "} {
			if endIdx := strings.Index(strings.ToLower(after), endMarker); endIdx >= 0 {
				after = after[:endIdx]
			}
		}
		cleaned := strings.Trim(after, trimCutsetNoQuotes)
		if cleaned != "" {
			return cleaned, true
		}
	}
	return "", false
}

func extractContent(userText, lowerText string) (string, int, bool) {
	for _, marker := range []string{" saying ", " that says "} {
		idx := strings.Index(lowerText, marker)
		if idx < 0 {
			continue
		}
		after := strings.TrimSpace(userText[idx+len(marker):])
		for _, endMarker := range []string{" and ", ", and "} {
			if endIdx := strings.Index(strings.ToLower(after), endMarker); endIdx >= 0 {
				after = after[:endIdx]
			}
		}
		cleaned := strings.Trim(after, trimCutsetNoQuotes)
		if cleaned != "" {
			return cleaned, idx, true
		}
	}
	return "", 0, false
}

func extractTitle(userText, lowerText string) (string, bool) {
	for _, marker := range []string{" about ", " to ", " called "} {
		idx := strings.Index(lowerText, marker)
		if idx < 0 {
			continue
		}
		after := strings.TrimSpace(userText[idx+len(marker):])
		for _, endMarker := range []string{" at ", " and ", ", "} {
			if endIdx := strings.Index(strings.ToLower(after), endMarker); endIdx >= 0 {
				after = after[:endIdx]
			}
		}
		for _, article := range []string{"the ", "a ", "an "} {
			if strings.HasPrefix(strings.ToLower(after), article) {
				after = after[len(article):]
			}
		}
		cleaned := strings.Trim(after, trimCutsetNoQuotes)
		if cleaned != "" {
			return cleaned, true
		}
	}
	return "", false
}

func extractHandle(words []string) (string, bool) {
	for _, w := range words {
		cleaned := strings.Trim(w, trimCutsetNoQuotes)
		if strings.HasPrefix(cleaned, "#") || strings.HasPrefix(cleaned, "@") {
			return cleaned, true
		}
	}
	return "", false
}

// extractRemaining walks tokens left-to-right keeping a last-kept flag: a
// token in the strip set is still kept if the previous token was kept,
// bridging adjacent descriptors like "classical music".
func extractRemaining(textPrefix string, stripSet, schemaWords map[string]bool, pnUsedOriginal map[string]bool) string {
	pnLower := map[string]bool{}
	for pn := range pnUsedOriginal {
		pnLower[strings.ToLower(pn)] = true
	}

	var kept []string
	lastKept := false
	for _, w := range strings.Fields(textPrefix) {
		cleaned := strings.ToLower(strings.Trim(w, trimCutsetNoQuotes+`'"()[]{}`))

		isDigit := isAllDigits(cleaned)
		isPN := pnLower[cleaned]
		isAMPM := strings.EqualFold(cleaned, "AM") || strings.EqualFold(cleaned, "PM")

		keep := false
		if cleaned != "" && !isDigit && !isPN && !isAMPM {
			if !ShouldStrip(cleaned, stripSet, schemaWords) {
				keep = true
			} else if lastKept {
				keep = true
			}
		}

		if keep {
			raw := strings.Trim(w, trimCutsetNoQuotes)
			if strings.Contains(raw, ":") && allColonPartsDigits(raw) {
				// colon-embedded digit pairs are dropped
			} else {
				kept = append(kept, raw)
			}
			lastKept = true
		} else {
			lastKept = false
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func allColonPartsDigits(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if !isAllDigits(p) {
			return false
		}
	}
	return true
}
