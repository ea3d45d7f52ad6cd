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
	"testing"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

func TestBuildStripSetIncludesSchemaWords(t *testing.T) {
	tool := calltypes.Tool{
		Name:        "play_music",
		Description: "Play a song or music genre",
		Parameters: calltypes.Parameters{
			Properties: map[string]calltypes.ParamSchema{
				"song": {Type: calltypes.ParamTypeString, Description: "Song title, artist, or genre"},
			},
		},
	}
	stripSet, schemaWords := BuildStripSet(tool)
	if !schemaWords["music"] {
		t.Error("expected 'music' in schemaWords")
	}
	if !stripSet["music"] {
		t.Error("expected 'music' in stripSet")
	}
	if !stripSet["the"] {
		t.Error("expected stop word 'the' folded into stripSet")
	}
}

func TestShouldStripExactMember(t *testing.T) {
	stripSet := map[string]bool{"music": true}
	schemaWords := map[string]bool{"music": true}
	if !ShouldStrip("music", stripSet, schemaWords) {
		t.Error("expected exact stripSet member to be stripped")
	}
}

func TestShouldStripPrefixSimilarity(t *testing.T) {
	stripSet := map[string]bool{}
	schemaWords := map[string]bool{"message": true}
	if !ShouldStrip("mess", stripSet, schemaWords) {
		t.Error("expected prefix-similar word to be stripped")
	}
}

func TestShouldStripKeepsUnrelatedWord(t *testing.T) {
	stripSet := map[string]bool{}
	schemaWords := map[string]bool{"message": true}
	if ShouldStrip("classical", stripSet, schemaWords) {
		t.Error("expected unrelated word to survive")
	}
}
