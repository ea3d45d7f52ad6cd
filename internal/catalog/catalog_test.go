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
	"testing"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

func TestMergeAppendsSystemAndSlackTools(t *testing.T) {
	merged := Merge(nil)
	want := len(SystemTools) + len(SlackTools)
	if len(merged) != want {
		t.Fatalf("expected %d merged tools, got %d", want, len(merged))
	}
}

func TestMergeCallerToolWinsNameClash(t *testing.T) {
	override := calltypes.Tool{
		Name:        "get_weather",
		Description: "caller-supplied override",
	}
	merged := Merge([]calltypes.Tool{override})
	for _, tool := range merged {
		if tool.Name != "get_weather" {
			continue
		}
		if tool.Description != "caller-supplied override" {
			t.Errorf("expected caller tool to win the name clash, got %+v", tool)
		}
	}
	// exactly one get_weather entry should survive, not two
	count := 0
	for _, tool := range merged {
		if tool.Name == "get_weather" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one get_weather entry after merge, got %d", count)
	}
}

func TestMergePreservesCallerToolsNotInBuiltins(t *testing.T) {
	custom := calltypes.Tool{Name: "custom_tool"}
	merged := Merge([]calltypes.Tool{custom})
	found := false
	for _, tool := range merged {
		if tool.Name == "custom_tool" {
			found = true
		}
	}
	if !found {
		t.Error("expected caller-supplied non-clashing tool to survive merge")
	}
}
