// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract implements the proper-noun extractor (§4.E) and the
// schema-driven argument extractor (§4.F): the two stages that turn raw
// utterance text into typed call arguments without any model involvement.
package extract

import (
	"strings"
)

const trimCutset = ".,!?;:'\"()[]{}"

// ProperNouns extracts capitalised words from the original-cased text,
// preserving encounter order. Index 0 is always skipped (sentence-initial
// capitalisation isn't a noun signal). A word is rejected if, once
// stripped of surrounding punctuation, it is empty, purely digits, or
// equals AM/PM case-insensitively. If both stripSet and schemaWords are
// non-nil, a word is also rejected when ShouldStrip accepts its lowercase
// form.
func ProperNouns(text string, stripSet, schemaWords map[string]bool) []string {
	words := strings.Fields(text)
	var nouns []string
	for i, w := range words {
		if i == 0 {
			continue
		}
		cleaned := strings.Trim(w, trimCutset)
		if cleaned == "" || !isUpperInitial(cleaned) {
			continue
		}
		if isAllDigits(cleaned) || strings.EqualFold(cleaned, "AM") || strings.EqualFold(cleaned, "PM") {
			continue
		}
		if stripSet != nil && schemaWords != nil && ShouldStrip(strings.ToLower(cleaned), stripSet, schemaWords) {
			continue
		}
		nouns = append(nouns, cleaned)
	}
	return nouns
}

func isUpperInitial(s string) bool {
	r := rune(s[0])
	return r >= 'A' && r <= 'Z'
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
