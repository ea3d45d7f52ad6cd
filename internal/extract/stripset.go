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
	"github.com/switchchat/toolrouter/internal/calltypes"
	"github.com/switchchat/toolrouter/internal/textutil"
)

// BuildStripSet returns the per-tool strip set (stop words ∪ schema words)
// and the schema words alone, per §3's "strip set / schema words"
// definition. Both sets are lowercase. Unlike matcher.SchemaWords (which
// subtracts stop words for relevance scoring), schemaWords here keeps them
// — the strip set already folds stop words in separately, and the
// prefix-similarity check in ShouldStrip wants the unfiltered schema
// vocabulary.
func BuildStripSet(tool calltypes.Tool) (stripSet, schemaWords map[string]bool) {
	schemaWords = map[string]bool{}
	for _, w := range textutil.SplitWords(tool.Name) {
		schemaWords[w] = true
	}
	for _, w := range textutil.Tokenize(tool.Description) {
		schemaWords[w] = true
	}
	for _, pschema := range tool.Parameters.Properties {
		for _, w := range textutil.Tokenize(pschema.Description) {
			schemaWords[w] = true
		}
	}

	stripSet = make(map[string]bool, len(schemaWords)+len(textutil.StopWords))
	for w := range textutil.StopWords {
		stripSet[w] = true
	}
	for w := range schemaWords {
		stripSet[w] = true
	}
	return stripSet, schemaWords
}

// ShouldStrip reports whether wordLower should be excluded from extracted
// argument text: either it's an exact member of stripSet, or (for words of
// length ≥ 3) it's textutil.Similar to some schema word.
func ShouldStrip(wordLower string, stripSet, schemaWords map[string]bool) bool {
	if stripSet[wordLower] {
		return true
	}
	if len(wordLower) >= 3 {
		for sw := range schemaWords {
			if textutil.Similar(wordLower, sw) {
				return true
			}
		}
	}
	return false
}
