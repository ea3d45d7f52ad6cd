// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring implements the overlap scorer (§4.G): the arbitration
// signal used to choose between the model's guess and the schema
// extractor's guess for the same tool, and between schema-extracted
// candidates across tools.
package scoring

import (
	"strconv"
	"strings"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

// Overlap scores how well calls' argument values align with userText.
// extraNouns (the hybrid router's cross-clause context pool) counts as a
// match source alongside the literal utterance text.
func Overlap(calls []calltypes.Call, userText string, extraNouns []string) int {
	textLower := strings.ToLower(userText)
	nounsLower := map[string]bool{}
	for _, n := range extraNouns {
		nounsLower[strings.ToLower(n)] = true
	}

	score := 0
	for _, call := range calls {
		toolNameWords := map[string]bool{}
		for _, part := range strings.Split(call.Name, "_") {
			toolNameWords[strings.ToLower(part)] = true
		}

		for _, v := range call.Arguments {
			switch v.Kind {
			case calltypes.KindInt:
				if v.I == 0 {
					continue
				}
				if strings.Contains(textLower, strconv.FormatInt(v.I, 10)) {
					score += 2
				} else {
					score -= 1
				}
			case calltypes.KindString:
				if len(v.S) <= 1 {
					continue
				}
				valLower := strings.ToLower(v.S)
				switch {
				case strings.Contains(textLower, valLower):
					if toolNameWords[valLower] {
						continue
					}
					score += 3
				case nounsLower[valLower]:
					score += 3
				default:
					hits := 0
					for _, w := range strings.Fields(valLower) {
						if len(w) < 2 {
							continue
						}
						if toolNameWords[w] {
							continue
						}
						if strings.Contains(textLower, w) || nounsLower[w] {
							hits++
						}
					}
					if hits > 0 {
						score += hits
					} else {
						score -= 1
					}
				}
			}
		}
	}
	return score
}
